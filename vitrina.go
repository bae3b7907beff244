package vitrina

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/katworks/vitrina/pkg/archive"
	"github.com/katworks/vitrina/pkg/linker"
	"github.com/katworks/vitrina/pkg/relations"
	"github.com/katworks/vitrina/pkg/search"
	"github.com/katworks/vitrina/pkg/taxonomy"
	"github.com/katworks/vitrina/pkg/types"
)

// Catalog is the main interface of the vitrina data/query layer. It is
// a library surface for an out-of-scope API layer; no transport or file
// format is owned here.
type Catalog interface {
	// Search runs the two-phase archive search and returns the hydrated
	// page plus the pre-pagination candidate count.
	Search(ctx context.Context, q search.Query) ([]types.ArchiveListItem, int64, error)

	// FetchArchive loads one archive with all of its relations, or
	// ErrArchiveNotFound.
	FetchArchive(ctx context.Context, id int64) (*types.ArchiveDetail, error)

	// UpsertArchive inserts, updates, or versions an archive from an
	// all-optional field set and returns the id carrying the content.
	UpsertArchive(ctx context.Context, data types.UpsertArchiveData) (int64, error)
}

// Client is the main implementation of the Catalog interface.
type Client struct {
	db     *sql.DB
	writer *archive.Writer
	logger *slog.Logger
}

// Config holds the collaborators injected into a Client. Every field is
// optional.
type Config struct {
	// Aliases rewrites tag display names to their canonical form.
	Aliases *taxonomy.AliasTable
	// Linker receives post-commit content-link refresh requests.
	Linker linker.Linker
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewClient creates a catalog client on top of an existing connection
// pool. The pool bounds in-flight operations; the client adds no
// caching and no background tasks.
func NewClient(db *sql.DB, config *Config) *Client {
	if config == nil {
		config = &Config{}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	syncer := relations.NewSyncer(config.Aliases)

	return &Client{
		db:     db,
		writer: archive.NewWriter(db, syncer, config.Linker, logger),
		logger: logger,
	}
}

// Search implements Catalog. Reads are lock-free and may run
// arbitrarily concurrently with writes; the two phases of one search
// share no snapshot.
func (c *Client) Search(ctx context.Context, q search.Query) ([]types.ArchiveListItem, int64, error) {
	return search.Run(ctx, c.db, q)
}

// FetchArchive implements Catalog.
func (c *Client) FetchArchive(ctx context.Context, id int64) (*types.ArchiveDetail, error) {
	return archive.Fetch(ctx, c.db, id)
}

// UpsertArchive implements Catalog. Each call runs in one transaction;
// callers racing on the same hash or path are serialized by row-level
// locking and should treat a uniqueness violation as retryable.
func (c *Client) UpsertArchive(ctx context.Context, data types.UpsertArchiveData) (int64, error) {
	return c.writer.Upsert(ctx, data)
}

// DB returns the underlying connection pool.
func (c *Client) DB() *sql.DB {
	return c.db
}

var (
	// ErrArchiveNotFound is returned when an archive id does not exist.
	ErrArchiveNotFound = archive.ErrArchiveNotFound
	// ErrInsufficientData is returned when a first-time insert is
	// missing required fields.
	ErrInsufficientData = archive.ErrInsufficientData
)
