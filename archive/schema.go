package archive

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	open_id TEXT NOT NULL,
	date TEXT NOT NULL,
	ts DATETIME NOT NULL,
	instruction TEXT NOT NULL,
	symbol TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	strategy TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date);
CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trades(strategy);

CREATE TABLE IF NOT EXISTS summaries (
	date TEXT PRIMARY KEY,
	num_completed_trades INTEGER NOT NULL,
	net_pl REAL NOT NULL
);
`
