package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	trade := TradeRecord{
		TradeID:    "01HRB6K9Q0ABCDEF",
		Symbol:     "BTCUSDT",
		Side:       "short",
		Amount:     0.001,
		EntryPrice: 100,
		ExitPrice:  90,
		Fees:       0.19,
		OpenTime:   time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC),
		CloseTime:  time.Date(2024, 3, 15, 14, 20, 30, 0, time.UTC),
		RealizedPL: 0.45,
		Mode:       "dry-run",
	}

	result := FormatTradeOrg(trade)

	assert.True(t, strings.HasPrefix(result, "** Trade: BTCUSDT short (01HRB6K9)"))
	assert.Contains(t, result, ":TRADE_ID: 01HRB6K9Q0ABCDEF")
	assert.Contains(t, result, ":AMOUNT: 0.001")
	assert.Contains(t, result, ":ENTRY_PRICE: 100.00")
	assert.Contains(t, result, ":EXIT_PRICE: 90.00")
	assert.Contains(t, result, ":OPEN_TIME: 2024-03-15T10:30:45Z")
	assert.Contains(t, result, ":CLOSE_TIME: 2024-03-15T14:20:30Z")
	assert.Contains(t, result, ":REALIZED_PL: 0.45")
	assert.Contains(t, result, ":MODE: dry-run")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	out := FormatTradesOrg([]TradeRecord{{TradeID: "a"}, {TradeID: "b"}})
	assert.Equal(t, 2, strings.Count(out, "** Trade:"))
	assert.Contains(t, out, "(a)")
	assert.Equal(t, "", FormatTradesOrg(nil))
}
