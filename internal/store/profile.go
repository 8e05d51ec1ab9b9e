package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile is a named set of tuning values.
type Profile struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	ScreenWidth       int       `json:"screen_width"`
	ScreenHeight      int       `json:"screen_height"`
	Smooth            bool      `json:"smooth"`
	Aggressiveness    float64   `json:"smooth_aggressiveness"`
	Falloff           float64   `json:"smooth_falloff"`
	Radius            float64   `json:"smooth_radius"`
	DebounceThreshold int       `json:"debounce_threshold"`
	FingerGraceFrames int       `json:"finger_grace_frames"`
	Mode              string    `json:"mode"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

const profileColumns = `id, name, screen_width, screen_height, smooth, aggressiveness, falloff,
	radius, debounce_threshold, finger_grace_frames, mode, created_at, updated_at`

// ProfileRepository provides CRUD operations for profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*Profile, error) {
	p := &Profile{}
	err := row.Scan(&p.ID, &p.Name, &p.ScreenWidth, &p.ScreenHeight, &p.Smooth,
		&p.Aggressiveness, &p.Falloff, &p.Radius, &p.DebounceThreshold,
		&p.FingerGraceFrames, &p.Mode, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func isUnique(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create inserts p, assigning an id when it has none.
func (r *ProfileRepository) Create(p *Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.ScreenWidth, p.ScreenHeight, p.Smooth, p.Aggressiveness,
		p.Falloff, p.Radius, p.DebounceThreshold, p.FingerGraceFrames, p.Mode,
		p.CreatedAt, p.UpdatedAt,
	)
	if isUnique(err) {
		return fmt.Errorf("profile %q: %w", p.Name, ErrConflict)
	}
	return err
}

// GetByID retrieves a profile by id.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetByName retrieves a profile by name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns every profile ordered by name.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Update overwrites every field of an existing profile.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now().UTC()

	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, screen_width = ?, screen_height = ?, smooth = ?,
			aggressiveness = ?, falloff = ?, radius = ?, debounce_threshold = ?,
			finger_grace_frames = ?, mode = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.ScreenWidth, p.ScreenHeight, p.Smooth, p.Aggressiveness, p.Falloff,
		p.Radius, p.DebounceThreshold, p.FingerGraceFrames, p.Mode, p.UpdatedAt, p.ID,
	)
	if isUnique(err) {
		return fmt.Errorf("profile %q: %w", p.Name, ErrConflict)
	}
	if err != nil {
		return err
	}
	return expectOne(result)
}

// Delete removes a profile. If it was the active profile the selection is
// cleared as well.
func (r *ProfileRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := expectOne(result); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM settings WHERE key = ? AND value = ?`, activeProfileKey, id); err != nil {
		return err
	}
	return tx.Commit()
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
