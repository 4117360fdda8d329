package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestAtEmbedsTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	u, err := ulid.Parse(At(ts))
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(ts), u.Time())
}
