package roster

import (
	"context"
	"time"
)

// Entry is one person on a course roster, scoped to the owning instructor
// account. Anchor is the LMS-issued stable identifier; tokens are derived
// from it and never stored.
type Entry struct {
	Owner       string    `json:"owner_id"`
	Course      string    `json:"course_id"`
	Anchor      int64     `json:"anchor_id"`
	DisplayName string    `json:"display_name"`
	StudentID   string    `json:"student_id,omitempty"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Variation is a user-supplied textual variant for one roster entry.
// Auto-generated variants are computed on index build and never persisted.
type Variation struct {
	Owner   string `json:"owner_id"`
	Course  string `json:"course_id"`
	Anchor  int64  `json:"anchor_id"`
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
}

type Repository interface {
	// UpsertEntry inserts or updates by (owner, course, anchor). A blank
	// role is stored as "student".
	UpsertEntry(ctx context.Context, e *Entry) error
	ListEntries(ctx context.Context, owner, course string) ([]*Entry, error)
	// ListEntriesPage returns a page of entries plus the total count.
	ListEntriesPage(ctx context.Context, owner, course string, offset, limit int) ([]*Entry, int, error)
	// ClearCourse removes every entry and variation for the course. The
	// only way roster rows are ever deleted.
	ClearCourse(ctx context.Context, owner, course string) error

	UpsertVariation(ctx context.Context, v *Variation) error
	ListVariations(ctx context.Context, owner, course string) ([]*Variation, error)
	DeleteVariation(ctx context.Context, owner, course string, anchor int64, text string) error

	Disconnect()
}
