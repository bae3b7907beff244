// Package archive implements the catalog write path: identity
// resolution, insert, in-place update, content-hash versioning, and
// detail hydration.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gosimple/slug"

	"github.com/katworks/vitrina/pkg/linker"
	"github.com/katworks/vitrina/pkg/relations"
	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/types"
)

// ErrInsufficientData is returned when a first-time insert is missing
// one of title, path, hash, pages, size, or thumbnail. No partial row
// is created.
var ErrInsufficientData = errors.New("insufficient archive data to insert")

// ErrArchiveNotFound is returned when an archive id does not exist.
var ErrArchiveNotFound = errors.New("archive not found")

// Writer performs archive upserts. Every call runs in one transaction;
// the post-commit link refresh is the only step outside it.
type Writer struct {
	db     *sql.DB
	syncer *relations.Syncer
	linker linker.Linker
	logger *slog.Logger
}

// NewWriter creates a Writer. linker may be nil to skip link refreshes;
// logger defaults to slog.Default().
func NewWriter(db *sql.DB, syncer *relations.Syncer, lk linker.Linker, logger *slog.Logger) *Writer {
	if lk == nil {
		lk = linker.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Writer{db: db, syncer: syncer, linker: lk, logger: logger}
}

// identity is the live row matched by id, path, or hash.
type identity struct {
	ID   int64
	Slug string
	Path string
	Hash string
}

// Upsert resolves the archive identity and inserts, updates in place,
// or versions the archive, synchronizing relations on the same
// transaction. It returns the id that now carries the content, which
// differs from the matched id after versioning.
func (w *Writer) Upsert(ctx context.Context, data types.UpsertArchiveData) (int64, error) {
	var (
		archiveID int64
		linkPath  *string
	)

	err := store.WithTx(ctx, w.db, func(tx *sql.Tx) error {
		rec, found, err := w.matchIdentity(ctx, tx, data)
		if err != nil {
			return err
		}

		if found && data.Hash != nil && *data.Hash != rec.Hash {
			archiveID, err = w.version(ctx, tx, rec, data)
			if err != nil {
				return err
			}
			linkPath = &rec.Path
			return nil
		}

		if found {
			if err := w.update(ctx, tx, rec, data); err != nil {
				return err
			}
			archiveID = rec.ID
			if data.Path != nil {
				linkPath = data.Path
			}
		} else {
			archiveID, err = w.insert(ctx, tx, data)
			if err != nil {
				return err
			}
			linkPath = data.Path
		}

		return w.syncer.Apply(ctx, tx, archiveID, data.Relations)
	})
	if err != nil {
		return 0, err
	}

	if linkPath != nil {
		if err := w.linker.Link(*linkPath, archiveID); err != nil {
			// The write is already durable; a stale link is recoverable.
			w.logger.Error("failed to refresh content link",
				"archive_id", archiveID, "path", *linkPath, "error", err)
		}
	}

	return archiveID, nil
}

// matchIdentity finds the live archive matching the request by id,
// path, or hash. Soft-deleted rows never match.
func (w *Writer) matchIdentity(ctx context.Context, tx store.Querier, data types.UpsertArchiveData) (identity, bool, error) {
	var rec identity

	err := tx.QueryRowContext(ctx,
		"SELECT id, slug, path, hash FROM archives WHERE (id = $1 OR path = $2 OR hash = $3) AND deleted_at IS NULL",
		data.ID, data.Path, data.Hash,
	).Scan(&rec.ID, &rec.Slug, &rec.Path, &rec.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return identity{}, false, nil
	}
	if err != nil {
		return identity{}, false, fmt.Errorf("failed to match archive identity: %w", err)
	}

	return rec, true, nil
}

// insert creates the archive on first ingestion. All required fields
// must be present; the slug defaults to the slugified title.
func (w *Writer) insert(ctx context.Context, tx store.Querier, data types.UpsertArchiveData) (int64, error) {
	if data.Title == nil || data.Path == nil || data.Hash == nil ||
		data.Pages == nil || data.Size == nil || data.Thumbnail == nil {
		return 0, ErrInsufficientData
	}

	archiveSlug := slug.Make(*data.Title)
	if data.Slug != nil {
		archiveSlug = *data.Slug
	}

	hasMetadata := false
	if data.HasMetadata != nil {
		hasMetadata = *data.HasMetadata
	}

	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO archives (
			slug, title, description, path, hash, pages, size, thumbnail, language, released_at, has_metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING id`,
		archiveSlug, *data.Title, data.Description, *data.Path, *data.Hash,
		*data.Pages, *data.Size, *data.Thumbnail, data.Language, data.ReleasedAt, hasMetadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert archive: %w", err)
	}

	return id, nil
}

// update overwrites the matched row in place. Present optional fields
// overwrite their columns; description, language, and deleted_at are
// written unconditionally, including to NULL. That asymmetry is the
// observed contract of the metadata pipeline, not an oversight.
func (w *Writer) update(ctx context.Context, tx store.Querier, rec identity, data types.UpsertArchiveData) error {
	b := store.NewBuilder("UPDATE archives SET")

	if data.Title != nil {
		b.Push(" title = ").Bind(*data.Title).Push(",")
	}
	if data.Slug != nil {
		b.Push(" slug = ").Bind(*data.Slug).Push(",")
	}

	b.Push(" description = ").Bind(data.Description).Push(",")

	if data.Path != nil && *data.Path != rec.Path {
		b.Push(" path = ").Bind(*data.Path).Push(",")
	}
	if data.Pages != nil {
		b.Push(" pages = ").Bind(*data.Pages).Push(",")
	}
	if data.Size != nil {
		b.Push(" size = ").Bind(*data.Size).Push(",")
	}
	if data.Thumbnail != nil {
		b.Push(" thumbnail = ").Bind(*data.Thumbnail).Push(",")
	}

	b.Push(" language = ").Bind(data.Language).Push(",")

	if data.ReleasedAt != nil {
		b.Push(" released_at = ").Bind(*data.ReleasedAt).Push(",")
	}

	b.Push(" deleted_at = ").Bind(data.DeletedAt).Push(",")

	if data.HasMetadata != nil {
		b.Push(" has_metadata = ").Bind(*data.HasMetadata).Push(",")
	}

	b.Push(" updated_at = NOW() WHERE id = ").Bind(rec.ID)

	if _, err := tx.ExecContext(ctx, b.SQL(), b.Args()...); err != nil {
		return fmt.Errorf("failed to update archive: %w", err)
	}

	return nil
}

// version replaces the archive identity when the content hash changed:
// the matched metadata is copied into a new row under the new hash,
// relations are synchronized onto the new id from the input, and the
// old row is soft-deleted. The old row is retained for history.
func (w *Writer) version(ctx context.Context, tx store.Querier, rec identity, data types.UpsertArchiveData) (int64, error) {
	w.logger.Warn("content hash changed, replacing archive",
		"archive_id", rec.ID, "old_hash", rec.Hash, "new_hash", *data.Hash)

	newID, err := w.copyArchive(ctx, tx, rec.Hash, *data.Hash)
	if err != nil {
		return 0, err
	}

	if err := w.syncer.Apply(ctx, tx, newID, data.Relations); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE archives SET deleted_at = NOW() WHERE id = $1", rec.ID,
	); err != nil {
		return 0, fmt.Errorf("failed to soft-delete archive %d: %w", rec.ID, err)
	}

	return newID, nil
}

// copyArchive duplicates the metadata of the archive at oldHash into a
// new row carrying newHash and returns the new id.
func (w *Writer) copyArchive(ctx context.Context, tx store.Querier, oldHash, newHash string) (int64, error) {
	var (
		archiveSlug string
		title       string
		description *string
		path        string
		pages       *int
		size        int64
		thumbnail   int
		language    *string
		releasedAt  sql.NullTime
		hasMetadata bool
	)

	err := tx.QueryRowContext(ctx,
		"SELECT slug, title, description, path, pages, size, thumbnail, language, released_at, has_metadata FROM archives WHERE hash = $1",
		oldHash,
	).Scan(&archiveSlug, &title, &description, &path, &pages, &size, &thumbnail, &language, &releasedAt, &hasMetadata)
	if err != nil {
		return 0, fmt.Errorf("failed to load archive for copy: %w", err)
	}

	var newID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO archives (
			slug, title, description, path, hash, pages, size, thumbnail, language, released_at, has_metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING id`,
		archiveSlug, title, description, path, newHash, pages, size, thumbnail, language, releasedAt, hasMetadata,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("failed to copy archive: %w", err)
	}

	return newID, nil
}
