package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, side, amount, entry_price, exit_price, fees, open_time, close_time, realized_pl, mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Side, t.Amount, t.EntryPrice, t.ExitPrice,
		t.Fees, t.OpenTime, t.CloseTime, t.RealizedPL, t.Mode,
	)
	return err
}

func (j *SQLite) RecordBalance(b BalanceSnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO balance
		(time, balance, total_pl, closed_trades)
		VALUES (?, ?, ?, ?)`,
		b.Time, b.Balance, b.TotalPL, b.ClosedTrades,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
