package sim

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/futbot/journal"
	"github.com/rustyeddy/futbot/market"
	"github.com/rustyeddy/futbot/notify"
)

type memJournal struct {
	mu       sync.Mutex
	trades   []journal.TradeRecord
	balances []journal.BalanceSnapshot
	err      error
}

func (m *memJournal) RecordTrade(r journal.TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, r)
	return m.err
}

func (m *memJournal) RecordBalance(s journal.BalanceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances = append(m.balances, s)
	return m.err
}

func (m *memJournal) Close() error { return nil }

var t0 = time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

func newLedger(policy SameSidePolicy) (*Ledger, *memJournal, *notify.Recorder) {
	j := &memJournal{}
	rec := notify.NewRecorder()
	l := NewLedger(Options{
		Symbol:         "BTCUSDT",
		InitialBalance: 1000,
		FeeRate:        0.001,
		Leverage:       5,
		SameSide:       policy,
	}, j, notify.New(nil, rec))
	return l, j, rec
}

func TestRealizedPL(t *testing.T) {
	t.Parallel()

	// entry 100, exit 90, amount 1, leverage 5, fee 0.001 on both legs
	entryFee := Fee(100, 1, 0.001)
	exitFee := Fee(90, 1, 0.001)
	assert.InDelta(t, 0.1, entryFee, 1e-12)
	assert.InDelta(t, 0.09, exitFee, 1e-12)

	long := RealizedPL(market.Long, 100, 90, 1, 5, entryFee, exitFee)
	short := RealizedPL(market.Short, 100, 90, 1, 5, entryFee, exitFee)

	assert.InDelta(t, -45.19, long, 1e-9)
	assert.InDelta(t, 44.81, short, 1e-9)
	assert.InDelta(t, 45.0, short+entryFee+exitFee, 1e-9)
	assert.InDelta(t, -45.0, long+entryFee+exitFee, 1e-9)
}

func TestPriceChangeRate(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.1, PriceChangeRate(market.Long, 100, 110), 1e-12)
	assert.InDelta(t, -0.1, PriceChangeRate(market.Short, 100, 110), 1e-12)
	assert.Zero(t, PriceChangeRate(market.Long, 0, 110))
}

func TestLedgerOpenAndClose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, j, rec := newLedger(SameSideReject)

	assert.True(t, l.Position().IsFlat())

	opened, err := l.Simulate(ctx, market.Short, 100, 1, t0)
	require.NoError(t, err)
	assert.Equal(t, market.Short, opened.Side)
	assert.False(t, opened.Closed())
	assert.Equal(t, 1000.0, l.Balance(), "opening does not touch the balance")

	tr, ok := l.Position().Open()
	require.True(t, ok)
	assert.Equal(t, opened.ID, tr.ID)
	assert.Equal(t, -1.0, l.Position().Signed())

	closed, err := l.Simulate(ctx, market.Long, 90, 1, t0.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, closed.Closed())
	assert.Equal(t, opened.ID, closed.ID)
	assert.InDelta(t, 44.81, *closed.RealizedPL, 1e-9)
	assert.Equal(t, 90.0, closed.ExitPrice)
	assert.Equal(t, t0.Add(time.Hour), closed.CloseTime)

	assert.True(t, l.Position().IsFlat())
	assert.InDelta(t, 1044.81, l.Balance(), 1e-9)

	require.Len(t, j.trades, 1)
	assert.Equal(t, opened.ID, j.trades[0].TradeID)
	assert.Equal(t, "short", j.trades[0].Side)
	assert.InDelta(t, 0.19, j.trades[0].Fees, 1e-12)
	assert.Equal(t, "dry-run", j.trades[0].Mode)
	require.Len(t, j.balances, 1)
	assert.InDelta(t, 1044.81, j.balances[0].Balance, 1e-9)
	assert.Equal(t, 1, j.balances[0].ClosedTrades)

	require.Equal(t, 1, rec.Count(notify.LevelInfo))
	ev := rec.Events()[0]
	assert.Equal(t, "Position closed", ev.Title)
	assert.True(t, strings.HasPrefix(ev.Message, "[DRY RUN] "))
	assert.Contains(t, ev.Message, "PnL 44.81")
}

func TestLedgerBalanceIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _, _ := newLedger(SameSideReject)

	fills := []struct {
		side  market.Side
		price float64
	}{
		{market.Long, 100}, {market.Short, 110},
		{market.Short, 120}, {market.Long, 125},
		{market.Long, 90}, {market.Short, 95},
		{market.Short, 80},
	}
	for i, f := range fills {
		_, err := l.Simulate(ctx, f.side, f.price, 0.5, t0.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	var sum float64
	for _, tr := range l.Trades() {
		if tr.Closed() {
			sum += *tr.RealizedPL
		}
	}
	s := l.Summary()
	assert.InDelta(t, s.InitialBalance+sum, s.CurrentBalance, 1e-9)
	assert.InDelta(t, sum, s.TotalRealizedPL, 1e-9)
	assert.Equal(t, 3, s.ClosedTrades)
	assert.Len(t, l.Trades(), 4)
	assert.False(t, l.Position().IsFlat(), "last fill leaves a short open")

	var fees float64
	for _, tr := range l.Trades() {
		fees += tr.Fee + tr.ExitFee
	}
	assert.InDelta(t, fees, s.TotalFees, 1e-12)
}

func TestLedgerSameSideReject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, j, rec := newLedger(SameSideReject)

	first, err := l.Simulate(ctx, market.Long, 100, 1, t0)
	require.NoError(t, err)

	_, err = l.Simulate(ctx, market.Long, 105, 1, t0.Add(time.Hour))
	require.ErrorIs(t, err, ErrSameSide)

	tr, ok := l.Position().Open()
	require.True(t, ok)
	assert.Equal(t, first.ID, tr.ID)
	assert.Equal(t, 100.0, tr.EntryPrice)
	assert.Len(t, l.Trades(), 1)
	assert.Empty(t, j.trades)
	assert.Equal(t, 1, rec.Count(notify.LevelWarning))
}

func TestLedgerSameSideOverwrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _, rec := newLedger(SameSideOverwrite)

	first, err := l.Simulate(ctx, market.Long, 100, 1, t0)
	require.NoError(t, err)
	second, err := l.Simulate(ctx, market.Long, 105, 1, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	trades := l.Trades()
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Superseded)
	assert.False(t, trades[0].Closed())

	tr, _ := l.Position().Open()
	assert.Equal(t, second.ID, tr.ID)
	assert.Equal(t, 1, rec.Count(notify.LevelWarning))

	_, err = l.Simulate(ctx, market.Short, 110, 1, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, l.Summary().ClosedTrades)
}

func TestLedgerInvalidFill(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _, _ := newLedger(SameSideReject)

	_, err := l.Simulate(ctx, market.Side("up"), 100, 1, t0)
	assert.Error(t, err)
	_, err = l.Simulate(ctx, market.Long, 0, 1, t0)
	assert.Error(t, err)
	_, err = l.Simulate(ctx, market.Long, 100, -1, t0)
	assert.Error(t, err)
	assert.Empty(t, l.Trades())
}

func TestLedgerJournalErrorIsNotFatal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	j := &memJournal{err: errors.New("disk full")}
	l := NewLedger(Options{InitialBalance: 100, Leverage: 1}, j, nil)

	_, err := l.Simulate(ctx, market.Long, 100, 1, t0)
	require.NoError(t, err)
	_, err = l.Simulate(ctx, market.Short, 110, 1, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.InDelta(t, 111.0, l.Balance(), 1e-9)
}

func TestSummaryAverages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := NewLedger(Options{InitialBalance: 100, Leverage: 1}, nil, nil)

	steps := [][2]float64{{100, 110}, {100, 90}, {100, 130}}
	for i, s := range steps {
		ts := t0.Add(time.Duration(i) * time.Hour)
		_, err := l.Simulate(ctx, market.Long, s[0], 1, ts)
		require.NoError(t, err)
		_, err = l.Simulate(ctx, market.Short, s[1], 1, ts.Add(time.Minute))
		require.NoError(t, err)
	}

	s := l.Summary()
	assert.Equal(t, 3, s.ClosedTrades)
	assert.InDelta(t, 2.0/3.0, s.WinRate, 1e-12)
	// wins: 0.1*110=11, 0.3*130=39
	assert.InDelta(t, 25.0, s.AvgWin, 1e-9)
	assert.InDelta(t, -9.0, s.AvgLoss, 1e-9)
	assert.Contains(t, s.String(), "Closed trades: 3")

	h := l.History()
	assert.Equal(t, 4, strings.Count(h, "\n"))
	assert.Contains(t, h, "pnl=39.00")
}

func TestParseSameSidePolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseSameSidePolicy("")
	require.NoError(t, err)
	assert.Equal(t, SameSideReject, p)

	p, err = ParseSameSidePolicy("overwrite")
	require.NoError(t, err)
	assert.Equal(t, SameSideOverwrite, p)

	_, err = ParseSameSidePolicy("merge")
	assert.Error(t, err)
}
