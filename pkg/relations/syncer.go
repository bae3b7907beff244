// Package relations reconciles an archive's many-to-many relations
// against a desired input set. Reconciliation is diff-based: registry
// terms are never deleted, only junction rows move, and the whole
// synchronization runs inside the caller's transaction so partial
// relation state never commits.
package relations

import (
	"context"
	"fmt"

	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/taxonomy"
	"github.com/katworks/vitrina/pkg/types"
)

// Syncer reconciles relation rows for one archive at a time.
type Syncer struct {
	aliases *taxonomy.AliasTable
}

// NewSyncer returns a Syncer. aliases may be nil, in which case tag
// display names pass through unchanged.
func NewSyncer(aliases *taxonomy.AliasTable) *Syncer {
	return &Syncer{aliases: aliases}
}

// Apply synchronizes every facet present in desired onto archiveID.
// Nil slices leave their facet untouched. Sources are merged: existing
// rows absent from the input survive, so partial metadata payloads
// never strip links collected earlier. Callers that want replacement
// call SyncSources directly. Any failing step aborts the whole
// synchronization.
func (s *Syncer) Apply(ctx context.Context, tx store.Querier, archiveID int64, desired types.Relations) error {
	facets := []struct {
		facet taxonomy.Facet
		names []string
	}{
		{taxonomy.Artist, desired.Artists},
		{taxonomy.Circle, desired.Circles},
		{taxonomy.Magazine, desired.Magazines},
		{taxonomy.Event, desired.Events},
		{taxonomy.Publisher, desired.Publishers},
		{taxonomy.Parody, desired.Parodies},
	}

	for _, f := range facets {
		if f.names == nil {
			continue
		}
		if err := s.syncTaxonomy(ctx, tx, f.facet, archiveID, f.names); err != nil {
			return fmt.Errorf("failed to sync %s: %w", f.facet.Table(), err)
		}
	}

	if desired.Tags != nil {
		if err := s.syncTags(ctx, tx, archiveID, desired.Tags); err != nil {
			return fmt.Errorf("failed to sync tags: %w", err)
		}
	}

	if desired.Sources != nil {
		if err := SyncSources(ctx, tx, archiveID, desired.Sources, true); err != nil {
			return fmt.Errorf("failed to sync sources: %w", err)
		}
	}

	if desired.Images != nil {
		if err := SyncImages(ctx, tx, archiveID, desired.Images); err != nil {
			return fmt.Errorf("failed to sync images: %w", err)
		}
	}

	return nil
}
