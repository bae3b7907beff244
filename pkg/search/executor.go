// Package search runs the two-phase archive search: phase 1 resolves
// and orders the full candidate id set, phase 2 ranks the current page
// and hydrates display fields. Ranking must span the whole candidate
// set before pagination, while relation hydration is only needed for
// the page at hand, hence the split.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/katworks/vitrina/pkg/query"
	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/types"
)

// PageSize is the fixed number of results per page.
const PageSize = 24

// Sort selects the phase-1 ordering key.
type Sort string

const (
	SortRelevance  Sort = "relevance"
	SortReleasedAt Sort = "released_at"
	SortCreatedAt  Sort = "created_at"
	SortTitle      Sort = "title"
	SortPages      Sort = "pages"
	SortRandom     Sort = "random"
)

// Order is the sort direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// sql returns the validated SQL direction keyword. Anything but asc
// maps to DESC so caller input never reaches the statement verbatim.
func (o Order) sql() string {
	if strings.EqualFold(string(o), string(OrderAsc)) {
		return "ASC"
	}
	return "DESC"
}

// Query is one search request. Page is 1-based. Seed feeds the
// deterministic shuffle under SortRandom; an empty seed is still a
// fixed seed.
type Query struct {
	Value     string
	Blacklist []string
	Sort      Sort
	Order     Order
	Page      int
	Seed      string
}

// tsvector is the combined text-search vector maintained by the store's
// fts table.
const tsvector = "(title_tsv || artists_tsv || circles_tsv || magazines_tsv || parodies_tsv || tags_tsv)"

const fromArchives = " FROM archives INNER JOIN archive_fts fts ON fts.archive_id = archives.id WHERE deleted_at IS NULL"

// Run executes the search and returns the hydrated page plus the total
// candidate count from phase 1 (pre-pagination). Phase 1 and phase 2 do
// not share a snapshot; the candidate set may shift under concurrent
// writes, which is accepted.
func Run(ctx context.Context, db store.Querier, q Query) ([]types.ArchiveListItem, int64, error) {
	compiled := query.Compile(q.Value)

	allIDs, err := resolveCandidates(ctx, db, q, compiled)
	if err != nil {
		return nil, 0, err
	}

	if q.Sort == SortRandom {
		shuffleIDs(allIDs, q.Seed)
	}

	total := int64(len(allIDs))

	pageIDs := paginate(allIDs, q.Page)
	if len(pageIDs) == 0 {
		return []types.ArchiveListItem{}, total, nil
	}

	rankedIDs, err := rankPage(ctx, db, q, compiled, allIDs, pageIDs)
	if err != nil {
		return nil, 0, err
	}

	items, err := hydrate(ctx, db, rankedIDs)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// resolveCandidates is phase 1: every matching live archive id, ordered
// by the requested key. Random ordering is left to the shuffle.
func resolveCandidates(ctx context.Context, db store.Querier, q Query, compiled query.Compiled) ([]int64, error) {
	b := store.NewBuilder("SELECT id" + fromArchives)
	appendTextClause(b, compiled.TextExpression)
	query.AppendConstraints(b, compiled.Predicates, q.Blacklist)

	order := q.Order.sql()
	switch q.Sort {
	case SortRelevance, "":
		if compiled.TextExpression != "" {
			b.Pushf(" ORDER BY ts_rank(%s, to_tsquery('english', ", tsvector).
				Bind(compiled.TextExpression).
				Pushf(")) %s, created_at %s", order, order)
		} else {
			b.Pushf(" ORDER BY created_at %s", order)
		}
	case SortReleasedAt:
		b.Pushf(" ORDER BY released_at %s", order)
	case SortCreatedAt:
		b.Pushf(" ORDER BY created_at %s", order)
	case SortTitle:
		b.Pushf(" ORDER BY archives.title %s", order)
	case SortPages:
		b.Pushf(" ORDER BY pages %s, created_at %s", order, order)
	case SortRandom:
	}

	rows, err := db.QueryContext(ctx, b.SQL(), b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve candidates: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}

	return ids, nil
}

// rankPage is phase 2: the same filters restricted to the page slice,
// with per-row rank and an explicit ordinal carrying over the phase-1
// order, which phase 2 has no natural tie to.
func rankPage(ctx context.Context, db store.Querier, q Query, compiled query.Compiled, allIDs, pageIDs []int64) ([]int64, error) {
	ranked := compiled.TextExpression != ""

	b := store.NewBuilder("SELECT archives.id")
	if ranked {
		b.Pushf(", ts_rank(%s, to_tsquery('english', ", tsvector).
			Bind(compiled.TextExpression).
			Push(")) rank")
	}
	b.Push(", ARRAY_POSITION(").
		Bind(pq.Array(allIDs)).
		Push(", archives.id) AS ord").
		Push(fromArchives)
	appendTextClause(b, compiled.TextExpression)
	query.AppendConstraints(b, compiled.Predicates, q.Blacklist)

	b.Push(" AND archives.id = ANY(").Bind(pq.Array(pageIDs)).Push(")")
	b.Push(" GROUP BY archives.id, fts.archive_id ORDER BY ord")

	rows, err := db.QueryContext(ctx, b.SQL(), b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to rank page: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var (
			id   int64
			rank float64
			ord  int64
		)

		if ranked {
			err = rows.Scan(&id, &rank, &ord)
		} else {
			err = rows.Scan(&id, &ord)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranked row: %w", err)
		}

		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ranked page: %w", err)
	}

	return ids, nil
}

func appendTextClause(b *store.Builder, expression string) {
	if expression == "" {
		return
	}

	b.Pushf(" AND %s @@ to_tsquery('english', ", tsvector).
		Bind(expression).
		Push(")")
}
