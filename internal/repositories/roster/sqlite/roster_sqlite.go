package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	r "github.com/quipper/poc/aitutor/be/pkg/repositories/roster"
)

type SQLiteRepo struct{ db *sql.DB }

func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil { return nil, err }
	if err := initSchema(db); err != nil { _ = db.Close(); return nil, err }
	return &SQLiteRepo{db: db}, nil
}

func (s *SQLiteRepo) Disconnect() { _ = s.db.Close() }

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS roster_entries (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  owner_id TEXT NOT NULL,
	  course_id TEXT NOT NULL,
	  anchor_id INTEGER NOT NULL,
	  display_name TEXT NOT NULL,
	  student_id TEXT,
	  email TEXT,
	  role TEXT NOT NULL DEFAULT 'student',
	  updated_at TIMESTAMP NOT NULL,
	  UNIQUE(owner_id, course_id, anchor_id)
	);
	CREATE TABLE IF NOT EXISTS roster_variations (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  owner_id TEXT NOT NULL,
	  course_id TEXT NOT NULL,
	  anchor_id INTEGER NOT NULL,
	  text TEXT NOT NULL,
	  enabled INTEGER NOT NULL DEFAULT 1,
	  UNIQUE(owner_id, course_id, anchor_id, text)
	);
	`)
	return err
}

func (s *SQLiteRepo) UpsertEntry(ctx context.Context, e *r.Entry) error {
	role := e.Role
	if role == "" {
		role = "student"
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO roster_entries (owner_id, course_id, anchor_id, display_name, student_id, email, role, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(owner_id, course_id, anchor_id)
	DO UPDATE SET display_name = excluded.display_name, student_id = excluded.student_id, email = excluded.email, role = excluded.role, updated_at = excluded.updated_at
	`, e.Owner, e.Course, e.Anchor, e.DisplayName, e.StudentID, e.Email, role, now)
	if err == nil {
		e.Role = role
		e.UpdatedAt = now
	}
	return err
}

func (s *SQLiteRepo) ListEntries(ctx context.Context, owner, course string) ([]*r.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT anchor_id, display_name, student_id, email, role, updated_at FROM roster_entries WHERE owner_id = ? AND course_id = ? ORDER BY anchor_id ASC`, owner, course)
	if err != nil { return nil, err }
	defer rows.Close()
	var out []*r.Entry
	for rows.Next() {
		e, err := scanEntry(rows, owner, course)
		if err != nil { return nil, err }
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteRepo) ListEntriesPage(ctx context.Context, owner, course string, offset, limit int) ([]*r.Entry, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roster_entries WHERE owner_id = ? AND course_id = ?`, owner, course).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT anchor_id, display_name, student_id, email, role, updated_at FROM roster_entries WHERE owner_id = ? AND course_id = ? ORDER BY anchor_id ASC LIMIT ? OFFSET ?`, owner, course, limit, offset)
	if err != nil { return nil, 0, err }
	defer rows.Close()
	var out []*r.Entry
	for rows.Next() {
		e, err := scanEntry(rows, owner, course)
		if err != nil { return nil, 0, err }
		out = append(out, e)
	}
	if err := rows.Err(); err != nil { return nil, 0, err }
	return out, total, nil
}

func scanEntry(rows *sql.Rows, owner, course string) (*r.Entry, error) {
	var e r.Entry
	var sid, email sql.NullString
	var ts time.Time
	if err := rows.Scan(&e.Anchor, &e.DisplayName, &sid, &email, &e.Role, &ts); err != nil {
		return nil, err
	}
	e.Owner, e.Course = owner, course
	if sid.Valid { e.StudentID = sid.String }
	if email.Valid { e.Email = email.String }
	e.UpdatedAt = ts
	return &e, nil
}

// ClearCourse removes the course roster and its variations in one
// transaction; a half-cleared course must never be observable.
func (s *SQLiteRepo) ClearCourse(ctx context.Context, owner, course string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil { return err }
	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_entries WHERE owner_id = ? AND course_id = ?`, owner, course); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_variations WHERE owner_id = ? AND course_id = ?`, owner, course); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteRepo) UpsertVariation(ctx context.Context, v *r.Variation) error {
	enabled := 0
	if v.Enabled {
		enabled = 1
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO roster_variations (owner_id, course_id, anchor_id, text, enabled)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(owner_id, course_id, anchor_id, text)
	DO UPDATE SET enabled = excluded.enabled
	`, v.Owner, v.Course, v.Anchor, v.Text, enabled)
	return err
}

func (s *SQLiteRepo) ListVariations(ctx context.Context, owner, course string) ([]*r.Variation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT anchor_id, text, enabled FROM roster_variations WHERE owner_id = ? AND course_id = ? ORDER BY id ASC`, owner, course)
	if err != nil { return nil, err }
	defer rows.Close()
	var out []*r.Variation
	for rows.Next() {
		var v r.Variation
		var enabled int
		if err := rows.Scan(&v.Anchor, &v.Text, &enabled); err != nil { return nil, err }
		v.Owner, v.Course = owner, course
		v.Enabled = enabled != 0
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *SQLiteRepo) DeleteVariation(ctx context.Context, owner, course string, anchor int64, text string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM roster_variations WHERE owner_id = ? AND course_id = ? AND anchor_id = ? AND text = ?`, owner, course, anchor, text)
	return err
}
