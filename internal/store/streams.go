package store

import (
	"fmt"
)

// SaveStreams saves stream data for an activity.
// It replaces any existing stream data for the activity.
func (db *DB) SaveStreams(activityID int64, points []StreamPoint) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete existing streams for this activity
	if _, err := tx.Exec("DELETE FROM streams WHERE activity_id = ?", activityID); err != nil {
		return fmt.Errorf("deleting existing streams: %w", err)
	}

	// Prepare insert statement
	stmt, err := tx.Prepare(`
		INSERT INTO streams (
			activity_id, time_offset, latlng_lat, latlng_lng, altitude,
			velocity_smooth, watts, heartrate, cadence, grade_smooth, distance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	// Insert all points
	for _, p := range points {
		_, err := stmt.Exec(
			p.ActivityID, p.TimeOffset, p.Lat, p.Lng, p.Altitude,
			p.VelocitySmooth, p.Watts, p.Heartrate, p.Cadence, p.GradeSmooth, p.Distance,
		)
		if err != nil {
			return fmt.Errorf("inserting stream point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetStreams retrieves all stream points for an activity
func (db *DB) GetStreams(activityID int64) ([]StreamPoint, error) {
	rows, err := db.Query(`
		SELECT activity_id, time_offset, latlng_lat, latlng_lng, altitude,
			velocity_smooth, watts, heartrate, cadence, grade_smooth, distance
		FROM streams
		WHERE activity_id = ?
		ORDER BY time_offset
	`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []StreamPoint
	for rows.Next() {
		var p StreamPoint
		err := rows.Scan(
			&p.ActivityID, &p.TimeOffset, &p.Lat, &p.Lng, &p.Altitude,
			&p.VelocitySmooth, &p.Watts, &p.Heartrate, &p.Cadence, &p.GradeSmooth, &p.Distance,
		)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// GetPowerStream returns the activity's watts samples in time order.
// Missing samples (meter dropouts) come back as zero, keeping the
// series aligned with elapsed seconds.
func (db *DB) GetPowerStream(activityID int64) ([]float64, error) {
	rows, err := db.Query(`
		SELECT watts FROM streams
		WHERE activity_id = ?
		ORDER BY time_offset
	`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var watts []float64
	for rows.Next() {
		var w *float64
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		if w != nil {
			watts = append(watts, *w)
		} else {
			watts = append(watts, 0)
		}
	}

	return watts, rows.Err()
}

// GetRouteStream returns the activity's GPS trace: latlng pairs and
// altitudes for points that have a position fix.
func (db *DB) GetRouteStream(activityID int64) (latlng [][2]float64, altitude []float64, err error) {
	rows, err := db.Query(`
		SELECT latlng_lat, latlng_lng, altitude FROM streams
		WHERE activity_id = ? AND latlng_lat IS NOT NULL AND latlng_lng IS NOT NULL
		ORDER BY time_offset
	`, activityID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var lat, lng float64
		var alt *float64
		if err := rows.Scan(&lat, &lng, &alt); err != nil {
			return nil, nil, err
		}
		latlng = append(latlng, [2]float64{lat, lng})
		if alt != nil {
			altitude = append(altitude, *alt)
		} else {
			altitude = append(altitude, 0)
		}
	}

	return latlng, altitude, rows.Err()
}
