package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/taxonomy"
	"github.com/katworks/vitrina/pkg/types"
)

// Fetch loads one archive with its ordered image list, the cover
// dimensions of the thumbnail page, and every relation, or
// ErrArchiveNotFound.
func Fetch(ctx context.Context, db store.Querier, id int64) (*types.ArchiveDetail, error) {
	var (
		detail      types.ArchiveDetail
		description sql.NullString
		cover       sql.NullString
		images      sql.NullString
	)

	err := db.QueryRowContext(ctx,
		`SELECT id, slug, title, description, hash, pages, size, thumbnail,
		(SELECT json_build_object('width', width, 'height', height) FROM archive_images WHERE archive_id = archives.id AND page_number = archives.thumbnail) cover,
		(SELECT json_agg(image) FROM (SELECT json_build_object('filename', filename, 'page_number', page_number, 'width', width, 'height', height) AS image FROM archive_images WHERE archive_id = archives.id ORDER BY page_number ASC) AS ordered_images) images,
		created_at, released_at FROM archives WHERE id = $1`,
		id,
	).Scan(
		&detail.ID, &detail.Slug, &detail.Title, &description, &detail.Hash,
		&detail.Pages, &detail.Size, &detail.Thumbnail, &cover, &images,
		&detail.CreatedAt, &detail.ReleasedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArchiveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archive %d: %w", id, err)
	}

	if description.Valid {
		detail.Description = &description.String
	}

	if cover.Valid {
		var dims types.ImageDimensions
		if err := json.Unmarshal([]byte(cover.String), &dims); err == nil && dims.Known() {
			detail.Cover = &dims
		}
	}

	detail.Images = []types.Image{}
	if images.Valid {
		if err := json.Unmarshal([]byte(images.String), &detail.Images); err != nil {
			return nil, fmt.Errorf("failed to decode image list: %w", err)
		}
	}

	if err := FetchRelations(ctx, db, &detail); err != nil {
		return nil, err
	}

	return &detail, nil
}

// FetchRelations hydrates every relation of the archive identified by
// detail.ID, each list ordered by name.
func FetchRelations(ctx context.Context, db store.Querier, detail *types.ArchiveDetail) error {
	targets := map[taxonomy.Facet]*[]types.Taxonomy{
		taxonomy.Artist:    &detail.Artists,
		taxonomy.Circle:    &detail.Circles,
		taxonomy.Magazine:  &detail.Magazines,
		taxonomy.Event:     &detail.Events,
		taxonomy.Publisher: &detail.Publishers,
		taxonomy.Parody:    &detail.Parodies,
	}

	for _, facet := range taxonomy.AllFacets {
		target, ok := targets[facet]
		if !ok {
			continue
		}

		terms, err := fetchTaxonomy(ctx, db, facet, detail.ID)
		if err != nil {
			return err
		}
		*target = terms
	}

	tags, err := fetchTags(ctx, db, detail.ID)
	if err != nil {
		return err
	}
	detail.Tags = tags

	sources, err := fetchSources(ctx, db, detail.ID)
	if err != nil {
		return err
	}
	detail.Sources = sources

	return nil
}

func fetchTaxonomy(ctx context.Context, db store.Querier, facet taxonomy.Facet, archiveID int64) ([]types.Taxonomy, error) {
	stmt := fmt.Sprintf(
		"SELECT slug, name FROM %s INNER JOIN %s ON %s.%s = id WHERE %s.archive_id = $1 ORDER BY name",
		facet.Table(), facet.Relation(), facet.Relation(), facet.IDColumn(), facet.Relation(),
	)

	rows, err := db.QueryContext(ctx, stmt, archiveID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", facet.Table(), err)
	}
	defer rows.Close()

	terms := []types.Taxonomy{}
	for rows.Next() {
		var t types.Taxonomy
		if err := rows.Scan(&t.Slug, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", facet.Table(), err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", facet.Table(), err)
	}

	return terms, nil
}

func fetchTags(ctx context.Context, db store.Querier, archiveID int64) ([]types.Tag, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT slug, name, namespace FROM tags INNER JOIN archive_tags ON archive_tags.tag_id = id WHERE archive_tags.archive_id = $1 ORDER BY name",
		archiveID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}
	defer rows.Close()

	tags := []types.Tag{}
	for rows.Next() {
		var t types.Tag
		if err := rows.Scan(&t.Slug, &t.Name, &t.Namespace); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tag rows: %w", err)
	}

	return tags, nil
}

func fetchSources(ctx context.Context, db store.Querier, archiveID int64) ([]types.Source, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name, url FROM archive_sources WHERE archive_id = $1 ORDER BY name ASC",
		archiveID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sources: %w", err)
	}
	defer rows.Close()

	sources := []types.Source{}
	for rows.Next() {
		var s types.Source
		if err := rows.Scan(&s.Name, &s.URL); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source rows: %w", err)
	}

	return sources, nil
}
