package store

import (
	"database/sql"
	"errors"
)

// SyncKeyLastActivity records the start date of the newest ride stored,
// used as the incremental-sync cursor on the next run.
const SyncKeyLastActivity = "last_activity_sync"

// GetSyncState returns the value for a sync-state key, or "" when the
// key has never been written.
func (db *DB) GetSyncState(key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSyncState writes a sync-state key, replacing any previous value
func (db *DB) SetSyncState(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}
