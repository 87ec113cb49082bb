package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250501-000000",
		Description: "Initial schema",
		Up: []string{
			// Mailbox accounts being warmed up
			`CREATE TABLE IF NOT EXISTS accounts (
				id TEXT PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				password_encrypted TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email)`,

			// Residential proxies ingested from the upstream source
			`CREATE TABLE IF NOT EXISTS proxies (
				id TEXT PRIMARY KEY,
				host TEXT NOT NULL,
				port INTEGER NOT NULL,
				username TEXT,
				password_encrypted TEXT,
				country TEXT,
				protocol TEXT NOT NULL DEFAULT 'socks5',
				is_active INTEGER NOT NULL DEFAULT 1,
				last_checked TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE(host, port)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_proxies_active ON proxies(is_active)`,
			`CREATE INDEX IF NOT EXISTS idx_proxies_created_at ON proxies(created_at)`,

			// Account-to-proxy assignments; one live row per account
			`CREATE TABLE IF NOT EXISTS assignments (
				id TEXT PRIMARY KEY,
				account_id TEXT UNIQUE NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
				proxy_id TEXT NOT NULL REFERENCES proxies(id) ON DELETE CASCADE,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_assignments_proxy_id ON assignments(proxy_id)`,

			// Warmup pipelines and their ordered action nodes
			`CREATE TABLE IF NOT EXISTS pipelines (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS pipeline_nodes (
				id TEXT PRIMARY KEY,
				pipeline_id TEXT NOT NULL REFERENCES pipelines(id) ON DELETE CASCADE,
				action TEXT NOT NULL,
				position INTEGER NOT NULL DEFAULT 0,
				metadata_json TEXT,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_pipeline_nodes_pipeline_id ON pipeline_nodes(pipeline_id)`,
		},
	})
}
