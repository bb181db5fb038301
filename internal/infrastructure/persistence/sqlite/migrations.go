package sqlite

import "database/sql"

func RunMigrations(db *sql.DB) error {
	stmts := []string{

		`CREATE TABLE IF NOT EXISTS device (
			slot INTEGER PRIMARY KEY CHECK (slot = 1),
			device_id TEXT NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS live_order (
			slot INTEGER PRIMARY KEY CHECK (slot = 1),
			identifier TEXT NOT NULL UNIQUE,
			web_url TEXT NOT NULL,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			notes TEXT NOT NULL,
			status TEXT NOT NULL,
			final_amount TEXT NOT NULL DEFAULT '',
			final_currency TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
