package relations

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"

	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/taxonomy"
	"github.com/katworks/vitrina/pkg/types"
)

// tagJunctionRow is one current archive-tag relation. The namespace
// lives on the relation, so the identity key is (slug, namespace).
type tagJunctionRow struct {
	TagID     int64
	Slug      string
	Namespace string
}

// syncTags reconciles the archive's tag relations. Display names pass
// through the alias table, which may rewrite the display form while
// preserving the slug derived from the original name.
func (s *Syncer) syncTags(ctx context.Context, tx store.Querier, archiveID int64, pairs []types.TagPair) error {
	desired := make([]types.Tag, 0, len(pairs))
	for _, pair := range pairs {
		tagSlug := slug.Make(pair.Name)
		desired = append(desired, types.Tag{
			Slug:      tagSlug,
			Name:      s.aliases.Canonical(pair.Name, tagSlug),
			Namespace: pair.Namespace,
		})
	}

	asTaxonomy := make([]types.Taxonomy, 0, len(desired))
	for _, t := range desired {
		asTaxonomy = append(asTaxonomy, types.Taxonomy{Slug: t.Slug, Name: t.Name})
	}

	terms, err := resolveTerms(ctx, tx, taxonomy.Tag, asTaxonomy)
	if err != nil {
		return err
	}

	current, err := currentTagJunctions(ctx, tx, archiveID)
	if err != nil {
		return err
	}

	toDelete := missing(current, desired, func(row tagJunctionRow, t types.Tag) bool {
		return row.Slug == t.Slug && row.Namespace == t.Namespace
	})
	for _, row := range toDelete {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM archive_tags WHERE archive_id = $1 AND tag_id = $2 AND namespace = $3",
			archiveID, row.TagID, row.Namespace,
		); err != nil {
			return fmt.Errorf("failed to delete tag relation: %w", err)
		}
	}

	toInsert := missing(desired, current, func(t types.Tag, row tagJunctionRow) bool {
		return t.Slug == row.Slug && t.Namespace == row.Namespace
	})

	insertTerms := make([]types.Taxonomy, 0, len(toInsert))
	namespaces := make([]string, 0, len(toInsert))
	for _, t := range toInsert {
		insertTerms = append(insertTerms, types.Taxonomy{Slug: t.Slug, Name: t.Name})
		namespaces = append(namespaces, t.Namespace)
	}

	return insertJunctions(ctx, tx, taxonomy.Tag, archiveID, insertTerms, terms, namespaces)
}

func currentTagJunctions(ctx context.Context, tx store.Querier, archiveID int64) ([]tagJunctionRow, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT tag_id, slug, namespace FROM archive_tags INNER JOIN tags ON id = tag_id WHERE archive_id = $1",
		archiveID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load current tag relations: %w", err)
	}
	defer rows.Close()

	var current []tagJunctionRow
	for rows.Next() {
		var row tagJunctionRow
		if err := rows.Scan(&row.TagID, &row.Slug, &row.Namespace); err != nil {
			return nil, fmt.Errorf("failed to scan tag relation: %w", err)
		}
		current = append(current, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tag relations: %w", err)
	}

	return current, nil
}
