package store

func (s *Store) runMigrations() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			screen_width INTEGER NOT NULL,
			screen_height INTEGER NOT NULL,
			smooth INTEGER NOT NULL DEFAULT 1,
			aggressiveness REAL NOT NULL,
			falloff REAL NOT NULL,
			radius REAL NOT NULL,
			debounce_threshold INTEGER NOT NULL,
			finger_grace_frames INTEGER NOT NULL DEFAULT 0,
			mode TEXT NOT NULL CHECK(mode IN ('palm', 'finger', 'scroll')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
