package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const tradeColumns = `trade_id, symbol, side, amount, entry_price, exit_price, fees, open_time, close_time, realized_pl, mode`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&rec.Side,
		&rec.Amount,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.Fees,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.RealizedPL,
		&rec.Mode,
	)
	return rec, err
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`SELECT `+tradeColumns+` FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBalanceBetween returns balance snapshots within [start, end).
func (j *SQLite) ListBalanceBetween(start, end time.Time) ([]BalanceSnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, balance, total_pl, closed_trades
		FROM balance
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BalanceSnapshot
	for rows.Next() {
		var b BalanceSnapshot
		if err := rows.Scan(&b.Time, &b.Balance, &b.TotalPL, &b.ClosedTrades); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
