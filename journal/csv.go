package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	trades  *csv.Writer
	balance *csv.Writer
	tf, bf  *os.File
}

var (
	tradeHeader   = []string{"trade_id", "symbol", "side", "amount", "entry_price", "exit_price", "fees", "open_time", "close_time", "realized_pl", "mode"}
	balanceHeader = []string{"time", "balance", "total_pl", "closed_trades"}
)

func NewCSV(tradesPath, balancePath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	bf, err := os.Create(balancePath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	bw := csv.NewWriter(bf)

	if err := tw.Write(tradeHeader); err != nil {
		return nil, err
	}
	if err := bw.Write(balanceHeader); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	bw.Flush()
	if err := bw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{trades: tw, balance: bw, tf: tf, bf: bf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.Symbol,
		t.Side,
		f(t.Amount),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.Fees),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.RealizedPL),
		t.Mode,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordBalance(b BalanceSnapshot) error {
	err := j.balance.Write([]string{
		b.Time.Format(time.RFC3339),
		f(b.Balance),
		f(b.TotalPL),
		strconv.Itoa(b.ClosedTrades),
	})
	if err != nil {
		return err
	}
	j.balance.Flush()
	return j.balance.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.balance.Flush()
	if err := j.balance.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.bf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
