package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	g "github.com/quipper/poc/aitutor/be/pkg/repositories/groups"
)

func newRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := NewSQLiteRepo(filepath.Join(t.TempDir(), "groups.db"))
	require.NoError(t, err)
	t.Cleanup(repo.Disconnect)
	return repo
}

func TestUpsertAndListGroups(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertGroup(ctx, &g.Group{Owner: "t1", Course: "c1", Anchor: 9, Name: "Team 01-Smith"}))
	require.NoError(t, repo.UpsertGroup(ctx, &g.Group{Owner: "t1", Course: "c1", Anchor: 9, Name: "Team 01-Renamed"}))

	got, err := repo.ListGroups(ctx, "t1", "c1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Team 01-Renamed", got[0].Name)
}

func TestClearCourse(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertGroup(ctx, &g.Group{Owner: "t1", Course: "c1", Anchor: 1, Name: "A"}))
	require.NoError(t, repo.UpsertGroup(ctx, &g.Group{Owner: "t1", Course: "c2", Anchor: 1, Name: "B"}))
	require.NoError(t, repo.ClearCourse(ctx, "t1", "c1"))

	got, err := repo.ListGroups(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Empty(t, got)
	kept, err := repo.ListGroups(ctx, "t1", "c2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
