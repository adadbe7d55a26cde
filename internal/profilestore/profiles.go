package profilestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/roach88/gridprefs/internal/canon"
	"github.com/roach88/gridprefs/internal/profile"
)

// ErrNotFound is returned when no profile has the requested name.
var ErrNotFound = errors.New("profile not found")

// ErrInvalidName is returned for empty or whitespace-padded names.
var ErrInvalidName = errors.New("invalid profile name")

// Record describes a stored profile without its document.
type Record struct {
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Revision is one entry of a profile's save history.
type Revision struct {
	Revision int64     `json:"revision"`
	Hash     string    `json:"hash"`
	SavedAt  time.Time `json:"savedAt"`
}

const timeLayout = time.RFC3339Nano

func checkName(name string) error {
	if name == "" || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Save stores p under name. It reports changed=false, and leaves the row
// untouched, when the stored document already has the same content hash.
func (s *Store) Save(ctx context.Context, name string, p profile.Settings) (rec Record, changed bool, err error) {
	if err := checkName(name); err != nil {
		return Record{}, false, err
	}
	body, err := canon.Marshal(p)
	if err != nil {
		return Record{}, false, fmt.Errorf("encode profile %q: %w", name, err)
	}
	hash, err := canon.Hash(canon.DomainProfile, p)
	if err != nil {
		return Record{}, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, false, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	current, err := recordTx(ctx, tx, name)
	switch {
	case errors.Is(err, ErrNotFound):
		current = Record{}
	case err != nil:
		return Record{}, false, err
	case current.Hash == hash:
		return current, false, nil
	}

	now := s.now().UTC()
	stamp := now.Format(timeLayout)
	if current.Name == "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO profiles (name, body, content_hash, revision, created_at, updated_at)
			VALUES (?, ?, ?, 1, ?, ?)
		`, name, string(body), hash, stamp, stamp)
		rec = Record{Name: name, Hash: hash, Revision: 1, CreatedAt: now, UpdatedAt: now}
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE profiles SET body = ?, content_hash = ?, revision = revision + 1, updated_at = ?
			WHERE name = ?
		`, string(body), hash, stamp, name)
		rec = current
		rec.Hash = hash
		rec.Revision++
		rec.UpdatedAt = now
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("write profile %q: %w", name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profile_revisions (name, revision, content_hash, body, saved_at)
		VALUES (?, ?, ?, ?, ?)
	`, name, rec.Revision, hash, string(body), stamp)
	if err != nil {
		return Record{}, false, fmt.Errorf("write revision %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, false, fmt.Errorf("commit save: %w", err)
	}
	return rec, true, nil
}

// Load returns the profile stored under name.
func (s *Store) Load(ctx context.Context, name string) (profile.Settings, Record, error) {
	raw, rec, err := s.Raw(ctx, name)
	if err != nil {
		return profile.Settings{}, Record{}, err
	}
	p, err := profile.Decode(raw, profile.JSON)
	if err != nil {
		return profile.Settings{}, Record{}, fmt.Errorf("decode profile %q: %w", name, err)
	}
	return p, rec, nil
}

// Raw returns the stored canonical JSON document for name.
func (s *Store) Raw(ctx context.Context, name string) ([]byte, Record, error) {
	var (
		body    string
		rec     Record
		created string
		updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, body, content_hash, revision, created_at, updated_at
		FROM profiles WHERE name = ?
	`, name).Scan(&rec.Name, &body, &rec.Hash, &rec.Revision, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Record{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, Record{}, fmt.Errorf("read profile %q: %w", name, err)
	}
	if err := parseTimes(&rec, created, updated); err != nil {
		return nil, Record{}, err
	}
	return []byte(body), rec, nil
}

// Get returns the value at a gjson path inside the stored document.
// The boolean is false when the path does not exist.
func (s *Store) Get(ctx context.Context, name, path string) (gjson.Result, bool, error) {
	raw, _, err := s.Raw(ctx, name)
	if err != nil {
		return gjson.Result{}, false, err
	}
	res := gjson.GetBytes(raw, path)
	return res, res.Exists(), nil
}

// Patch sets the value at an sjson path inside the stored document and saves
// the result. A nil value deletes the path.
func (s *Store) Patch(ctx context.Context, name, path string, value any) (Record, bool, error) {
	if path == "" {
		return Record{}, false, fmt.Errorf("patch %q: empty path", name)
	}
	raw, _, err := s.Raw(ctx, name)
	if err != nil {
		return Record{}, false, err
	}

	var patched []byte
	if value == nil {
		patched, err = sjson.DeleteBytes(raw, path)
	} else {
		patched, err = sjson.SetBytes(raw, path, value)
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("patch %q at %s: %w", name, path, err)
	}

	p, err := profile.Decode(patched, profile.JSON)
	if err != nil {
		return Record{}, false, fmt.Errorf("patch %q at %s: %w", name, path, err)
	}
	return s.Save(ctx, name, p)
}

// List returns all stored profiles ordered by name.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, content_hash, revision, created_at, updated_at
		FROM profiles ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec              Record
			created, updated string
		)
		if err := rows.Scan(&rec.Name, &rec.Hash, &rec.Revision, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if err := parseTimes(&rec, created, updated); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

// History returns the save history of name, oldest first.
func (s *Store) History(ctx context.Context, name string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT revision, content_hash, saved_at
		FROM profile_revisions WHERE name = ? ORDER BY revision ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("read history %q: %w", name, err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var (
			r     Revision
			saved string
		)
		if err := rows.Scan(&r.Revision, &r.Hash, &saved); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		if r.SavedAt, err = time.Parse(timeLayout, saved); err != nil {
			return nil, fmt.Errorf("parse saved_at: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return out, nil
}

// Delete removes name and its history.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete profile %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

func recordTx(ctx context.Context, tx *sql.Tx, name string) (Record, error) {
	var (
		rec              Record
		created, updated string
	)
	err := tx.QueryRowContext(ctx, `
		SELECT name, content_hash, revision, created_at, updated_at
		FROM profiles WHERE name = ?
	`, name).Scan(&rec.Name, &rec.Hash, &rec.Revision, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("read profile %q: %w", name, err)
	}
	if err := parseTimes(&rec, created, updated); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func parseTimes(rec *Record, created, updated string) error {
	var err error
	if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return fmt.Errorf("parse updated_at: %w", err)
	}
	return nil
}
