package relations

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/lib/pq"

	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/taxonomy"
	"github.com/katworks/vitrina/pkg/types"
)

// termRow is a registry row resolved or created during synchronization.
type termRow struct {
	ID   int64
	Slug string
}

// junctionRow is one current archive relation with its term slug.
type junctionRow struct {
	TermID int64
	Slug   string
}

// syncTaxonomy reconciles one facet's junction rows for an archive:
// resolve or create registry terms by slug, then delete relations whose
// slug left the input and insert relations whose slug is new.
func (s *Syncer) syncTaxonomy(ctx context.Context, tx store.Querier, facet taxonomy.Facet, archiveID int64, names []string) error {
	desired := make([]types.Taxonomy, 0, len(names))
	for _, name := range names {
		desired = append(desired, types.Taxonomy{Slug: slug.Make(name), Name: name})
	}

	terms, err := resolveTerms(ctx, tx, facet, desired)
	if err != nil {
		return err
	}

	current, err := currentJunctions(ctx, tx, facet, archiveID)
	if err != nil {
		return err
	}

	toDelete := missing(current, desired, func(row junctionRow, t types.Taxonomy) bool {
		return row.Slug == t.Slug
	})
	for _, row := range toDelete {
		stmt := fmt.Sprintf("DELETE FROM %s WHERE archive_id = $1 AND %s = $2", facet.Relation(), facet.IDColumn())
		if _, err := tx.ExecContext(ctx, stmt, archiveID, row.TermID); err != nil {
			return fmt.Errorf("failed to delete relation: %w", err)
		}
	}

	toInsert := missing(desired, current, func(t types.Taxonomy, row junctionRow) bool {
		return t.Slug == row.Slug
	})

	return insertJunctions(ctx, tx, facet, archiveID, toInsert, terms, nil)
}

// resolveTerms batch-looks-up the desired slugs and batch-inserts the
// ones the registry has not seen, returning slug → id for all of them.
func resolveTerms(ctx context.Context, tx store.Querier, facet taxonomy.Facet, desired []types.Taxonomy) (map[string]int64, error) {
	slugs := make([]string, 0, len(desired))
	for _, t := range desired {
		slugs = append(slugs, t.Slug)
	}

	terms := make(map[string]int64, len(desired))

	stmt := fmt.Sprintf("SELECT id, slug FROM %s WHERE slug = ANY($1)", facet.Table())
	rows, err := tx.QueryContext(ctx, stmt, pq.Array(slugs))
	if err != nil {
		return nil, fmt.Errorf("failed to look up terms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row termRow
		if err := rows.Scan(&row.ID, &row.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan term: %w", err)
		}
		terms[row.Slug] = row.ID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read terms: %w", err)
	}

	toCreate := dedupeBy(missingTerms(desired, terms), func(t types.Taxonomy) string { return t.Slug })
	if len(toCreate) == 0 {
		return terms, nil
	}

	names := make([]string, 0, len(toCreate))
	newSlugs := make([]string, 0, len(toCreate))
	for _, t := range toCreate {
		names = append(names, t.Name)
		newSlugs = append(newSlugs, t.Slug)
	}

	stmt = fmt.Sprintf("INSERT INTO %s (name, slug) SELECT * FROM UNNEST($1::text[], $2::text[]) RETURNING id, slug", facet.Table())
	created, err := tx.QueryContext(ctx, stmt, pq.Array(names), pq.Array(newSlugs))
	if err != nil {
		return nil, fmt.Errorf("failed to insert terms: %w", err)
	}
	defer created.Close()

	for created.Next() {
		var row termRow
		if err := created.Scan(&row.ID, &row.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan created term: %w", err)
		}
		terms[row.Slug] = row.ID
	}
	if err := created.Err(); err != nil {
		return nil, fmt.Errorf("failed to read created terms: %w", err)
	}

	return terms, nil
}

func missingTerms(desired []types.Taxonomy, terms map[string]int64) []types.Taxonomy {
	var out []types.Taxonomy
	for _, t := range desired {
		if _, ok := terms[t.Slug]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// currentJunctions loads the archive's existing junction rows with the
// slug of each linked term.
func currentJunctions(ctx context.Context, tx store.Querier, facet taxonomy.Facet, archiveID int64) ([]junctionRow, error) {
	stmt := fmt.Sprintf("SELECT %s, slug FROM %s INNER JOIN %s ON id = %s WHERE archive_id = $1",
		facet.IDColumn(), facet.Relation(), facet.Table(), facet.IDColumn())

	rows, err := tx.QueryContext(ctx, stmt, archiveID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current relations: %w", err)
	}
	defer rows.Close()

	var current []junctionRow
	for rows.Next() {
		var row junctionRow
		if err := rows.Scan(&row.TermID, &row.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		current = append(current, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read relations: %w", err)
	}

	return current, nil
}

// insertJunctions batch-inserts junction rows for the given terms.
// namespaces is non-nil only for the tag facet and runs in lockstep
// with toInsert.
func insertJunctions(ctx context.Context, tx store.Querier, facet taxonomy.Facet, archiveID int64, toInsert []types.Taxonomy, terms map[string]int64, namespaces []string) error {
	if len(toInsert) == 0 {
		return nil
	}

	archiveIDs := make([]int64, 0, len(toInsert))
	termIDs := make([]int64, 0, len(toInsert))
	for _, t := range toInsert {
		id, ok := terms[t.Slug]
		if !ok {
			return fmt.Errorf("term %q missing after resolution", t.Slug)
		}
		archiveIDs = append(archiveIDs, archiveID)
		termIDs = append(termIDs, id)
	}

	if namespaces != nil {
		stmt := fmt.Sprintf("INSERT INTO %s (archive_id, %s, namespace) SELECT * FROM UNNEST($1::bigint[], $2::bigint[], $3::text[])",
			facet.Relation(), facet.IDColumn())
		if _, err := tx.ExecContext(ctx, stmt, pq.Array(archiveIDs), pq.Array(termIDs), pq.Array(namespaces)); err != nil {
			return fmt.Errorf("failed to insert relations: %w", err)
		}
		return nil
	}

	stmt := fmt.Sprintf("INSERT INTO %s (archive_id, %s) SELECT * FROM UNNEST($1::bigint[], $2::bigint[])",
		facet.Relation(), facet.IDColumn())
	if _, err := tx.ExecContext(ctx, stmt, pq.Array(archiveIDs), pq.Array(termIDs)); err != nil {
		return fmt.Errorf("failed to insert relations: %w", err)
	}

	return nil
}
