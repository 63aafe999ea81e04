package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrActivityNotFound is returned when an activity doesn't exist
var ErrActivityNotFound = errors.New("activity not found")

const activityColumns = `id, athlete_id, name, type, start_date, start_date_local, timezone,
			distance, moving_time, elapsed_time, total_elevation_gain,
			average_speed, max_speed, average_watts, max_watts,
			weighted_average_watts, kilojoules, average_heartrate,
			average_cadence, device_watts, streams_synced, efforts_computed`

// UpsertActivity inserts or updates an activity
func (db *DB) UpsertActivity(a *Activity) error {
	_, err := db.Exec(`
		INSERT INTO activities (
			id, athlete_id, name, type, start_date, start_date_local, timezone,
			distance, moving_time, elapsed_time, total_elevation_gain,
			average_speed, max_speed, average_watts, max_watts,
			weighted_average_watts, kilojoules, average_heartrate,
			average_cadence, device_watts, streams_synced, efforts_computed, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			name = excluded.name,
			type = excluded.type,
			start_date = excluded.start_date,
			start_date_local = excluded.start_date_local,
			timezone = excluded.timezone,
			distance = excluded.distance,
			moving_time = excluded.moving_time,
			elapsed_time = excluded.elapsed_time,
			total_elevation_gain = excluded.total_elevation_gain,
			average_speed = excluded.average_speed,
			max_speed = excluded.max_speed,
			average_watts = excluded.average_watts,
			max_watts = excluded.max_watts,
			weighted_average_watts = excluded.weighted_average_watts,
			kilojoules = excluded.kilojoules,
			average_heartrate = excluded.average_heartrate,
			average_cadence = excluded.average_cadence,
			device_watts = excluded.device_watts,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.AthleteID, a.Name, a.Type,
		a.StartDate.Format(time.RFC3339), a.StartDateLocal.Format(time.RFC3339), a.Timezone,
		a.Distance, a.MovingTime, a.ElapsedTime, a.TotalElevationGain,
		a.AverageSpeed, a.MaxSpeed, a.AverageWatts, a.MaxWatts,
		a.WeightedAverageWatts, a.Kilojoules, a.AverageHeartrate,
		a.AverageCadence, boolToInt(a.DeviceWatts), boolToInt(a.StreamsSynced), boolToInt(a.EffortsComputed),
	)
	return err
}

// GetActivity retrieves an activity by ID
func (db *DB) GetActivity(id int64) (*Activity, error) {
	row := db.QueryRow(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE id = ?
	`, id)

	return scanActivity(row)
}

// ListActivities returns activities ordered by start date descending
func (db *DB) ListActivities(limit, offset int) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		ORDER BY start_date DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ListRidesWithPower returns power-meter rides ordered by start date
// descending. These are the activities physiology is derived from.
func (db *DB) ListRidesWithPower(limit, offset int) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE device_watts = 1
		ORDER BY start_date DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// GetActivitiesNeedingStreams returns power-meter activities that
// haven't had their streams synced
func (db *DB) GetActivitiesNeedingStreams(limit int) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE streams_synced = 0 AND device_watts = 1
		ORDER BY start_date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// GetActivitiesNeedingEfforts returns activities with synced streams
// whose best efforts haven't been computed yet
func (db *DB) GetActivitiesNeedingEfforts(limit int) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE streams_synced = 1 AND efforts_computed = 0
		ORDER BY start_date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// MarkStreamsSynced marks an activity's streams as synced
func (db *DB) MarkStreamsSynced(id int64) error {
	return db.markFlag(id, "streams_synced")
}

// MarkEffortsComputed marks an activity's best efforts as computed
func (db *DB) MarkEffortsComputed(id int64) error {
	return db.markFlag(id, "efforts_computed")
}

func (db *DB) markFlag(id int64, column string) error {
	result, err := db.Exec(`
		UPDATE activities
		SET `+column+` = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// GetLatestActivityDate returns the most recent start date, or the
// zero time when no activities are stored. Used for incremental sync.
func (db *DB) GetLatestActivityDate() (time.Time, error) {
	var startDate sql.NullString
	err := db.QueryRow(`SELECT MAX(start_date) FROM activities`).Scan(&startDate)
	if err != nil {
		return time.Time{}, err
	}
	if !startDate.Valid {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, startDate.String)
}

// CountActivities returns the total number of stored activities
func (db *DB) CountActivities() (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM activities`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*Activity, error) {
	var a Activity
	var startDate, startDateLocal string
	var timezone sql.NullString
	var deviceWatts, streamsSynced, effortsComputed int

	err := row.Scan(
		&a.ID, &a.AthleteID, &a.Name, &a.Type, &startDate, &startDateLocal, &timezone,
		&a.Distance, &a.MovingTime, &a.ElapsedTime, &a.TotalElevationGain,
		&a.AverageSpeed, &a.MaxSpeed, &a.AverageWatts, &a.MaxWatts,
		&a.WeightedAverageWatts, &a.Kilojoules, &a.AverageHeartrate,
		&a.AverageCadence, &deviceWatts, &streamsSynced, &effortsComputed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}

	a.StartDate, err = time.Parse(time.RFC3339, startDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	a.StartDateLocal, err = time.Parse(time.RFC3339, startDateLocal)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date_local %q: %w", startDateLocal, err)
	}
	a.Timezone = timezone.String
	a.DeviceWatts = deviceWatts == 1
	a.StreamsSynced = streamsSynced == 1
	a.EffortsComputed = effortsComputed == 1

	return &a, nil
}

func scanActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}
