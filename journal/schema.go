package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	added INTEGER NOT NULL,
	skipped_existing INTEGER NOT NULL,
	missing_price INTEGER NOT NULL,
	missing_rate INTEGER NOT NULL,
	last_date TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`
