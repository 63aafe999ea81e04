package store

import (
	"database/sql"
	"fmt"
)

// SaveBestEfforts replaces the stored best efforts for an activity.
func (db *DB) SaveBestEfforts(activityID int64, efforts map[int]float64) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM best_efforts WHERE activity_id = ?", activityID); err != nil {
		return fmt.Errorf("deleting existing efforts: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO best_efforts (activity_id, duration_seconds, watts, computed_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for duration, watts := range efforts {
		if _, err := stmt.Exec(activityID, duration, watts); err != nil {
			return fmt.Errorf("inserting best effort: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetActivityBestEfforts returns one activity's best efforts keyed by
// duration.
func (db *DB) GetActivityBestEfforts(activityID int64) (map[int]float64, error) {
	rows, err := db.Query(`
		SELECT duration_seconds, watts FROM best_efforts
		WHERE activity_id = ?
		ORDER BY duration_seconds
	`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEfforts(rows)
}

// GetBestEffortProfile returns the all-time maximum power per duration
// across every stored activity. This is the profile the CP model is
// fitted to.
func (db *DB) GetBestEffortProfile() (map[int]float64, error) {
	rows, err := db.Query(`
		SELECT duration_seconds, MAX(watts) FROM best_efforts
		GROUP BY duration_seconds
		ORDER BY duration_seconds
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEfforts(rows)
}

// GetRecentBestEffortProfile is GetBestEffortProfile restricted to
// activities starting on or after the cutoff date (RFC3339), so stale
// season-old efforts can be excluded from the fit.
func (db *DB) GetRecentBestEffortProfile(cutoff string) (map[int]float64, error) {
	rows, err := db.Query(`
		SELECT e.duration_seconds, MAX(e.watts)
		FROM best_efforts e
		JOIN activities a ON a.id = e.activity_id
		WHERE a.start_date >= ?
		GROUP BY e.duration_seconds
		ORDER BY e.duration_seconds
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEfforts(rows)
}

func scanEfforts(rows *sql.Rows) (map[int]float64, error) {
	efforts := make(map[int]float64)
	for rows.Next() {
		var duration int
		var watts float64
		if err := rows.Scan(&duration, &watts); err != nil {
			return nil, err
		}
		efforts[duration] = watts
	}
	return efforts, rows.Err()
}
