package store

import (
	"database/sql"
	"errors"
	"fmt"
)

const activeProfileKey = "active_profile"

// SettingsRepository stores string settings by key.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// Delete removes key. Missing keys are not an error.
func (r *SettingsRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// SetActiveProfile selects the profile applied at startup.
func (r *SettingsRepository) SetActiveProfile(id string) error {
	if _, err := (&ProfileRepository{db: r.db}).GetByID(id); err != nil {
		return fmt.Errorf("activate profile %s: %w", id, err)
	}
	return r.Set(activeProfileKey, id)
}

// ActiveProfileID returns the id of the selected profile.
func (r *SettingsRepository) ActiveProfileID() (string, error) {
	return r.Get(activeProfileKey)
}

// ActiveProfile returns the selected profile, or ErrNotFound when none is
// selected.
func (r *SettingsRepository) ActiveProfile() (*Profile, error) {
	id, err := r.ActiveProfileID()
	if err != nil {
		return nil, err
	}
	return (&ProfileRepository{db: r.db}).GetByID(id)
}

// ClearActiveProfile deselects the active profile.
func (r *SettingsRepository) ClearActiveProfile() error {
	return r.Delete(activeProfileKey)
}
