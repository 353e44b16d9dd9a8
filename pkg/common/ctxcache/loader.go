package ctxcache

import (
	"context"
	"fmt"

	"github.com/quipper/poc/aitutor/be/pkg/pii/index"
	"github.com/quipper/poc/aitutor/be/pkg/repositories/groups"
	"github.com/quipper/poc/aitutor/be/pkg/repositories/roster"
)

// RepoLoader builds snapshots from the sqlite repositories. The index is
// built here, once per (re)load, not per transform call.
func RepoLoader(rosterRepo roster.Repository, groupsRepo groups.Repository) LoaderFunc {
	return func(ctx context.Context, key Key) (*Snapshot, error) {
		entries, err := rosterRepo.ListEntries(ctx, key.Owner, key.Course)
		if err != nil {
			return nil, fmt.Errorf("ctxcache: load roster: %w", err)
		}
		custom, err := rosterRepo.ListVariations(ctx, key.Owner, key.Course)
		if err != nil {
			return nil, fmt.Errorf("ctxcache: load variations: %w", err)
		}
		grps, err := groupsRepo.ListGroups(ctx, key.Owner, key.Course)
		if err != nil {
			return nil, fmt.Errorf("ctxcache: load groups: %w", err)
		}
		return &Snapshot{
			Roster: entries,
			Custom: custom,
			Groups: grps,
			Index:  index.Build(entries, custom, grps),
		}, nil
	}
}
