package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	amount REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	fees REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	realized_pl REAL NOT NULL,
	mode TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS balance (
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	total_pl REAL NOT NULL,
	closed_trades INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
CREATE INDEX IF NOT EXISTS idx_balance_time ON balance(time);
`
