package sim

import (
	"fmt"
	"strings"
	"time"
)

// Summary is a performance snapshot of the ledger.
type Summary struct {
	InitialBalance  float64
	CurrentBalance  float64
	TotalRealizedPL float64
	TotalFees       float64
	ClosedTrades    int
	WinRate         float64
	AvgWin          float64
	AvgLoss         float64
	Leverage        float64
}

func (s Summary) String() string {
	var b strings.Builder
	b.WriteString("=== Performance summary ===\n")
	fmt.Fprintf(&b, "Initial balance: %.2f\n", s.InitialBalance)
	fmt.Fprintf(&b, "Current balance: %.2f\n", s.CurrentBalance)
	fmt.Fprintf(&b, "Total PnL: %.2f\n", s.TotalRealizedPL)
	fmt.Fprintf(&b, "Closed trades: %d\n", s.ClosedTrades)
	fmt.Fprintf(&b, "Win rate: %.2f\n", s.WinRate)
	fmt.Fprintf(&b, "Avg win: %.2f\n", s.AvgWin)
	fmt.Fprintf(&b, "Avg loss: %.2f\n", s.AvgLoss)
	fmt.Fprintf(&b, "Total fees: %.2f\n", s.TotalFees)
	fmt.Fprintf(&b, "Leverage: %g\n", s.Leverage)
	return b.String()
}

func summarize(initial, balance, leverage float64, trades []*Trade) Summary {
	s := Summary{
		InitialBalance: initial,
		CurrentBalance: balance,
		Leverage:       leverage,
	}

	var wins, losses int
	var winSum, lossSum float64
	for _, t := range trades {
		s.TotalFees += t.Fees()
		if t.RealizedPL == nil {
			continue
		}
		pl := *t.RealizedPL
		s.ClosedTrades++
		s.TotalRealizedPL += pl
		switch {
		case pl > 0:
			wins++
			winSum += pl
		case pl < 0:
			losses++
			lossSum += pl
		}
	}

	if s.ClosedTrades > 0 {
		s.WinRate = float64(wins) / float64(s.ClosedTrades)
	}
	if wins > 0 {
		s.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		s.AvgLoss = lossSum / float64(losses)
	}
	return s
}

func formatHistory(trades []*Trade) string {
	var b strings.Builder
	b.WriteString("Trade history:\n")
	for _, t := range trades {
		pl := "open"
		if t.RealizedPL != nil {
			pl = fmt.Sprintf("%.2f", *t.RealizedPL)
		}
		fmt.Fprintf(&b, "%s %s %-5s price=%.1f amount=%.3f pnl=%s fee=%.2f\n",
			t.Time.UTC().Format(time.RFC3339), t.ID, t.Side, t.EntryPrice, t.Amount, pl, t.Fees())
	}
	return b.String()
}
