// Package journal keeps an append-only audit trail of closed trades and
// balance snapshots. The in-memory ledger remains the record the trading loop
// reads from; journals are written to and never consulted by it.
package journal

import (
	"fmt"
	"time"
)

// TradeRecord is one closed position.
type TradeRecord struct {
	TradeID    string
	Symbol     string
	Side       string
	Amount     float64
	EntryPrice float64
	ExitPrice  float64
	Fees       float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Mode       string // "dry-run" or "live"
}

// BalanceSnapshot is the ledger balance right after a close.
type BalanceSnapshot struct {
	Time         time.Time
	Balance      float64
	TotalPL      float64
	ClosedTrades int
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordBalance(BalanceSnapshot) error
	Close() error
}

// Reader queries journaled trades. SQLite and Postgres journals implement it.
type Reader interface {
	GetTrade(tradeID string) (TradeRecord, error)
	ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error)
	Close() error
}

// Discard is a Journal that drops everything.
var Discard Journal = discard{}

type discard struct{}

func (discard) RecordTrade(TradeRecord) error       { return nil }
func (discard) RecordBalance(BalanceSnapshot) error { return nil }
func (discard) Close() error                        { return nil }

// Open builds the journal named by kind: "none", "csv", "sqlite" or "postgres".
func Open(kind string, opts Options) (Journal, error) {
	switch kind {
	case "", "none":
		return Discard, nil
	case "csv":
		return NewCSV(opts.TradesFile, opts.BalanceFile)
	case "sqlite":
		return NewSQLite(opts.DBPath)
	case "postgres":
		return NewPostgres(opts.DSN)
	default:
		return nil, fmt.Errorf("unknown journal type %q", kind)
	}
}

// Options carries the destination for each journal kind.
type Options struct {
	TradesFile  string
	BalanceFile string
	DBPath      string
	DSN         string
}
