package groups

import (
	"context"
	"time"
)

// Group is a team/group record for a course. Group names like
// "Team 01-Smith" carry PII and are masked wholesale by literal name.
type Group struct {
	Owner     string    `json:"owner_id"`
	Course    string    `json:"course_id"`
	Anchor    int64     `json:"anchor_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	UpsertGroup(ctx context.Context, g *Group) error
	ListGroups(ctx context.Context, owner, course string) ([]*Group, error)
	ClearCourse(ctx context.Context, owner, course string) error
	Disconnect()
}
