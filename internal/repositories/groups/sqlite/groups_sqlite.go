package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	g "github.com/quipper/poc/aitutor/be/pkg/repositories/groups"
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
	CREATE TABLE IF NOT EXISTS course_groups (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  owner_id TEXT NOT NULL,
	  course_id TEXT NOT NULL,
	  anchor_id INTEGER NOT NULL,
	  name TEXT NOT NULL,
	  updated_at TIMESTAMP NOT NULL,
	  UNIQUE(owner_id, course_id, anchor_id)
	);
	`)
	return err
}

func (s *SQLiteRepo) UpsertGroup(ctx context.Context, grp *g.Group) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO course_groups (owner_id, course_id, anchor_id, name, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(owner_id, course_id, anchor_id)
	DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
	`, grp.Owner, grp.Course, grp.Anchor, grp.Name, now)
	if err == nil { grp.UpdatedAt = now }
	return err
}

func (s *SQLiteRepo) ListGroups(ctx context.Context, owner, course string) ([]*g.Group, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT anchor_id, name, updated_at FROM course_groups WHERE owner_id = ? AND course_id = ? ORDER BY anchor_id ASC`, owner, course)
	if err != nil { return nil, err }
	defer rows.Close()
	var out []*g.Group
	for rows.Next() {
		var grp g.Group
		var ts time.Time
		if err := rows.Scan(&grp.Anchor, &grp.Name, &ts); err != nil { return nil, err }
		grp.Owner, grp.Course = owner, course
		grp.UpdatedAt = ts
		out = append(out, &grp)
	}
	return out, rows.Err()
}

func (s *SQLiteRepo) ClearCourse(ctx context.Context, owner, course string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM course_groups WHERE owner_id = ? AND course_id = ?`, owner, course)
	return err
}
