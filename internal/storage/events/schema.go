package events

const schema = `
CREATE TABLE IF NOT EXISTS deposits (
	tx_id TEXT PRIMARY KEY,
	asset TEXT NOT NULL,
	amount TEXT NOT NULL,
	event_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS withdrawals (
	tx_id TEXT PRIMARY KEY,
	asset TEXT NOT NULL,
	amount TEXT NOT NULL,
	event_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	fill_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	price TEXT NOT NULL,
	qty TEXT NOT NULL,
	event_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_meta (
	key TEXT PRIMARY KEY,
	value INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_deposits_time ON deposits(event_time);
CREATE INDEX IF NOT EXISTS idx_withdrawals_time ON withdrawals(event_time);
CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(event_time);
`
