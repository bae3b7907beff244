package relations

import (
	"context"
	"fmt"

	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/types"
)

// SyncSources reconciles the archive's external source links. With
// merge set, rows absent from the input survive; otherwise they are
// deleted. Inserts upsert the url on the (archive, name) key.
func SyncSources(ctx context.Context, tx store.Querier, archiveID int64, sources []types.Source, merge bool) error {
	existing, err := currentSources(ctx, tx, archiveID)
	if err != nil {
		return err
	}

	sameSource := func(a, b types.Source) bool {
		return a.Name == b.Name && equalURL(a.URL, b.URL)
	}

	if !merge {
		toDelete := missing(existing, sources, sameSource)
		for _, source := range toDelete {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM archive_sources WHERE archive_id = $1 AND name = $2 AND url IS NOT DISTINCT FROM $3",
				archiveID, source.Name, source.URL,
			); err != nil {
				return fmt.Errorf("failed to delete source: %w", err)
			}
		}
	}

	toInsert := missing(sources, existing, sameSource)
	for _, source := range toInsert {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO archive_sources (archive_id, name, url) VALUES ($1, $2, $3)
			ON CONFLICT (archive_id, name) DO UPDATE SET url = EXCLUDED.url`,
			archiveID, source.Name, source.URL,
		); err != nil {
			return fmt.Errorf("failed to insert source: %w", err)
		}
	}

	return nil
}

func equalURL(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func currentSources(ctx context.Context, tx store.Querier, archiveID int64) ([]types.Source, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT name, url FROM archive_sources WHERE archive_id = $1", archiveID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	defer rows.Close()

	var sources []types.Source
	for rows.Next() {
		var source types.Source
		if err := rows.Scan(&source.Name, &source.URL); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}

	return sources, nil
}
