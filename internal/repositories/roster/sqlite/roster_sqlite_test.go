package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	r "github.com/quipper/poc/aitutor/be/pkg/repositories/roster"
)

func newRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := NewSQLiteRepo(filepath.Join(t.TempDir(), "roster.db"))
	require.NoError(t, err)
	t.Cleanup(repo.Disconnect)
	return repo
}

func TestUpsertEntryDefaultsRole(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	e := &r.Entry{Owner: "t1", Course: "c1", Anchor: 21011, DisplayName: "Jackson Smith"}
	require.NoError(t, repo.UpsertEntry(ctx, e))
	assert.Equal(t, "student", e.Role)

	got, err := repo.ListEntries(ctx, "t1", "c1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "student", got[0].Role)
	assert.Equal(t, int64(21011), got[0].Anchor)
}

func TestUpsertEntryUpdatesInPlace(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertEntry(ctx, &r.Entry{Owner: "t1", Course: "c1", Anchor: 1, DisplayName: "Old Name", Role: "student"}))
	require.NoError(t, repo.UpsertEntry(ctx, &r.Entry{Owner: "t1", Course: "c1", Anchor: 1, DisplayName: "New Name", Email: "n@x.edu", Role: "ta"}))

	got, err := repo.ListEntries(ctx, "t1", "c1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New Name", got[0].DisplayName)
	assert.Equal(t, "n@x.edu", got[0].Email)
	assert.Equal(t, "ta", got[0].Role)
}

func TestOwnerScoping(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertEntry(ctx, &r.Entry{Owner: "t1", Course: "c1", Anchor: 1, DisplayName: "A"}))
	require.NoError(t, repo.UpsertEntry(ctx, &r.Entry{Owner: "t2", Course: "c1", Anchor: 1, DisplayName: "B"}))

	got, err := repo.ListEntries(ctx, "t1", "c1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].DisplayName)
}

func TestListEntriesPage(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	// Insertion order differs from anchor order; pages must still come back
	// sorted by anchor, same as ListEntries.
	for _, anchor := range []int64{4, 1, 5, 3, 2} {
		require.NoError(t, repo.UpsertEntry(ctx, &r.Entry{Owner: "t1", Course: "c1", Anchor: anchor, DisplayName: "P"}))
	}
	page, total, err := repo.ListEntriesPage(ctx, "t1", "c1", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].Anchor)
	assert.Equal(t, int64(4), page[1].Anchor)
}

func TestClearCourseRemovesEntriesAndVariations(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertEntry(ctx, &r.Entry{Owner: "t1", Course: "c1", Anchor: 1, DisplayName: "A"}))
	require.NoError(t, repo.UpsertVariation(ctx, &r.Variation{Owner: "t1", Course: "c1", Anchor: 1, Text: "Ace", Enabled: true}))
	require.NoError(t, repo.UpsertEntry(ctx, &r.Entry{Owner: "t1", Course: "c2", Anchor: 1, DisplayName: "Keep"}))

	require.NoError(t, repo.ClearCourse(ctx, "t1", "c1"))

	got, err := repo.ListEntries(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Empty(t, got)
	vars, err := repo.ListVariations(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Empty(t, vars)

	kept, err := repo.ListEntries(ctx, "t1", "c2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestVariationLifecycle(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	v := &r.Variation{Owner: "t1", Course: "c1", Anchor: 7, Text: "The Captain", Enabled: true}
	require.NoError(t, repo.UpsertVariation(ctx, v))

	// Upsert toggles enabled without duplicating the row.
	v.Enabled = false
	require.NoError(t, repo.UpsertVariation(ctx, v))
	vars, err := repo.ListVariations(ctx, "t1", "c1")
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.False(t, vars[0].Enabled)

	require.NoError(t, repo.DeleteVariation(ctx, "t1", "c1", 7, "The Captain"))
	vars, err = repo.ListVariations(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Empty(t, vars)
}
