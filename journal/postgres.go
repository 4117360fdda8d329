package journal

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tradeRow struct {
	TradeID    string    `gorm:"primaryKey"`
	Symbol     string    `gorm:"index;not null"`
	Side       string    `gorm:"not null"`
	Amount     float64   `gorm:"type:decimal(20,8);not null"`
	EntryPrice float64   `gorm:"type:decimal(20,8);not null"`
	ExitPrice  float64   `gorm:"type:decimal(20,8);not null"`
	Fees       float64   `gorm:"type:decimal(20,8);not null"`
	OpenTime   time.Time `gorm:"not null"`
	CloseTime  time.Time `gorm:"index;not null"`
	RealizedPL float64   `gorm:"type:decimal(20,8);not null"`
	Mode       string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (tradeRow) TableName() string { return "trades" }

type balanceRow struct {
	ID           uint      `gorm:"primaryKey"`
	Time         time.Time `gorm:"index;not null"`
	Balance      float64   `gorm:"type:decimal(20,8);not null"`
	TotalPL      float64   `gorm:"type:decimal(20,8);not null"`
	ClosedTrades int       `gorm:"not null"`
}

func (balanceRow) TableName() string { return "balance" }

func toTradeRow(t TradeRecord) tradeRow {
	return tradeRow{
		TradeID:    t.TradeID,
		Symbol:     t.Symbol,
		Side:       t.Side,
		Amount:     t.Amount,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		Fees:       t.Fees,
		OpenTime:   t.OpenTime,
		CloseTime:  t.CloseTime,
		RealizedPL: t.RealizedPL,
		Mode:       t.Mode,
	}
}

func (r tradeRow) record() TradeRecord {
	return TradeRecord{
		TradeID:    r.TradeID,
		Symbol:     r.Symbol,
		Side:       r.Side,
		Amount:     r.Amount,
		EntryPrice: r.EntryPrice,
		ExitPrice:  r.ExitPrice,
		Fees:       r.Fees,
		OpenTime:   r.OpenTime,
		CloseTime:  r.CloseTime,
		RealizedPL: r.RealizedPL,
		Mode:       r.Mode,
	}
}

// Postgres journals to a PostgreSQL database through gorm.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres connects using a libpq style DSN and migrates the tables.
func NewPostgres(dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres journal: dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&tradeRow{}, &balanceRow{}); err != nil {
		return nil, fmt.Errorf("migrate journal tables: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (j *Postgres) RecordTrade(t TradeRecord) error {
	row := toTradeRow(t)
	return j.db.Create(&row).Error
}

func (j *Postgres) RecordBalance(b BalanceSnapshot) error {
	return j.db.Create(&balanceRow{
		Time:         b.Time,
		Balance:      b.Balance,
		TotalPL:      b.TotalPL,
		ClosedTrades: b.ClosedTrades,
	}).Error
}

// GetTrade returns a single trade record by ID.
func (j *Postgres) GetTrade(tradeID string) (TradeRecord, error) {
	var row tradeRow
	err := j.db.First(&row, "trade_id = ?", tradeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
	}
	if err != nil {
		return TradeRecord{}, err
	}
	return row.record(), nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *Postgres) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	var rows []tradeRow
	err := j.db.Where("close_time >= ? AND close_time < ?", start, end).
		Order("close_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]TradeRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

func (j *Postgres) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
