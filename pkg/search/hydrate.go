package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/taxonomy"
	"github.com/katworks/vitrina/pkg/types"
)

// hydrate fetches display fields for the phase-2 id set, ordered by the
// same ordinal. Facet arrays aggregate as JSON ordered by term name;
// the cover is the image at the thumbnail page and is kept only when at
// least one dimension is known.
func hydrate(ctx context.Context, db store.Querier, ids []int64) ([]types.ArchiveListItem, error) {
	b := store.NewBuilder(`SELECT archives.id, slug, hash, title, (SELECT json_build_object('width', width, 'height', height) FROM archive_images WHERE archive_id = archives.id AND page_number = thumbnail) cover`)

	for _, facet := range taxonomy.AllFacets {
		table := facet.Table()

		object := fmt.Sprintf("json_build_object('slug', %s.slug, 'name', %s.name)", table, table)
		if facet == taxonomy.Tag {
			object = fmt.Sprintf("json_build_object('slug', %s.slug, 'name', %s.name, 'namespace', r.namespace)", table, table)
		}

		b.Pushf(", COALESCE((SELECT json_agg(%s ORDER BY %s.name) FROM %s INNER JOIN %s r ON r.%s = %s.id WHERE r.archive_id = archives.id), '[]') %s",
			object, table, table, facet.Relation(), facet.IDColumn(), table, table)
	}

	b.Push(", pages, thumbnail")
	b.Push(", ARRAY_POSITION(").Bind(pq.Array(ids)).Push(", archives.id) AS ord")
	b.Push(" FROM archives WHERE archives.id = ANY(").Bind(pq.Array(ids)).Push(") ORDER BY ord")

	rows, err := db.QueryContext(ctx, b.SQL(), b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate archives: %w", err)
	}
	defer rows.Close()

	items := make([]types.ArchiveListItem, 0, len(ids))
	for rows.Next() {
		var (
			item   types.ArchiveListItem
			cover  sql.NullString
			facets [6][]byte
			tags   []byte
			ord    int64
		)

		if err := rows.Scan(
			&item.ID, &item.Slug, &item.Hash, &item.Title, &cover,
			&facets[0], &facets[1], &facets[2], &facets[3], &facets[4], &facets[5], &tags,
			&item.Pages, &item.Thumbnail, &ord,
		); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}

		item.Cover = decodeCover(cover)

		targets := []*[]types.Taxonomy{
			&item.Artists, &item.Circles, &item.Magazines,
			&item.Events, &item.Publishers, &item.Parodies,
		}
		for i, target := range targets {
			if err := json.Unmarshal(facets[i], target); err != nil {
				return nil, fmt.Errorf("failed to decode taxonomy column: %w", err)
			}
		}
		if err := json.Unmarshal(tags, &item.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tag column: %w", err)
		}

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archive rows: %w", err)
	}

	return items, nil
}

// decodeCover parses the cover JSON and drops covers with no known
// dimension.
func decodeCover(raw sql.NullString) *types.ImageDimensions {
	if !raw.Valid {
		return nil
	}

	var dims types.ImageDimensions
	if err := json.Unmarshal([]byte(raw.String), &dims); err != nil {
		return nil
	}
	if !dims.Known() {
		return nil
	}

	return &dims
}
