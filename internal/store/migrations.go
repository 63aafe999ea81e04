package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Activities (summary data from /athlete/activities)
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY,
			athlete_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			start_date_local TEXT NOT NULL,
			timezone TEXT,
			distance REAL NOT NULL,
			moving_time INTEGER NOT NULL,
			elapsed_time INTEGER NOT NULL,
			total_elevation_gain REAL,
			average_speed REAL,
			max_speed REAL,
			average_watts REAL,
			max_watts REAL,
			weighted_average_watts REAL,
			kilojoules REAL,
			average_heartrate REAL,
			average_cadence REAL,
			device_watts INTEGER NOT NULL,
			streams_synced INTEGER DEFAULT 0,
			efforts_computed INTEGER DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_type ON activities(type)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_device_watts ON activities(device_watts)`,

		// Streams (second-by-second data from /activities/{id}/streams)
		`CREATE TABLE IF NOT EXISTS streams (
			activity_id INTEGER NOT NULL,
			time_offset INTEGER NOT NULL,
			latlng_lat REAL,
			latlng_lng REAL,
			altitude REAL,
			velocity_smooth REAL,
			watts REAL,
			heartrate INTEGER,
			cadence INTEGER,
			grade_smooth REAL,
			distance REAL,
			PRIMARY KEY (activity_id, time_offset),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_streams_activity ON streams(activity_id)`,

		// Best efforts (max average power per duration, per activity)
		`CREATE TABLE IF NOT EXISTS best_efforts (
			activity_id INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL,
			watts REAL NOT NULL,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (activity_id, duration_seconds),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_best_efforts_duration ON best_efforts(duration_seconds)`,

		// Physiology (fitted CP/W' history; latest row is current)
		`CREATE TABLE IF NOT EXISTS physiology (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			critical_power REAL NOT NULL,
			w_prime REAL NOT NULL,
			r_squared REAL,
			rmse REAL,
			source TEXT NOT NULL,
			archetype TEXT,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sync State (key-value store for sync tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
