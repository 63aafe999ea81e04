package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNoPhysiology is returned when no rider profile has been computed
var ErrNoPhysiology = errors.New("no physiology stored")

// Physiology sources.
const (
	PhysiologySourceFitted    = "fitted"
	PhysiologySourceArchetype = "archetype"
)

// SavePhysiology appends a rider profile to the history. The latest
// row is the current profile.
func (db *DB) SavePhysiology(p *Physiology) error {
	result, err := db.Exec(`
		INSERT INTO physiology (critical_power, w_prime, r_squared, rmse, source, archetype, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.CriticalPower, p.WPrime, p.RSquared, p.RMSE, p.Source, p.Archetype,
		p.ComputedAt.Format(time.RFC3339))
	if err != nil {
		return err
	}
	p.ID, err = result.LastInsertId()
	return err
}

// GetLatestPhysiology returns the most recently computed rider profile
func (db *DB) GetLatestPhysiology() (*Physiology, error) {
	row := db.QueryRow(`
		SELECT id, critical_power, w_prime, r_squared, rmse, source, archetype, computed_at
		FROM physiology
		ORDER BY id DESC
		LIMIT 1
	`)
	return scanPhysiology(row)
}

// ListPhysiologyHistory returns profiles newest first, for trend
// display.
func (db *DB) ListPhysiologyHistory(limit int) ([]Physiology, error) {
	rows, err := db.Query(`
		SELECT id, critical_power, w_prime, r_squared, rmse, source, archetype, computed_at
		FROM physiology
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Physiology
	for rows.Next() {
		p, err := scanPhysiology(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *p)
	}
	return history, rows.Err()
}

func scanPhysiology(row rowScanner) (*Physiology, error) {
	var p Physiology
	var computedAt string
	err := row.Scan(&p.ID, &p.CriticalPower, &p.WPrime, &p.RSquared, &p.RMSE,
		&p.Source, &p.Archetype, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPhysiology
	}
	if err != nil {
		return nil, err
	}
	p.ComputedAt, err = time.Parse(time.RFC3339, computedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
