package relations

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katworks/vitrina/pkg/taxonomy"
	"github.com/katworks/vitrina/pkg/types"
)

func TestSyncTaxonomyTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Archive 1 currently links alice and bob; the input keeps bob and
	// adds carol, who is not in the registry yet.
	mock.ExpectQuery(`SELECT id, slug FROM artists WHERE slug = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).AddRow(2, "bob"))
	mock.ExpectQuery(`INSERT INTO artists \(name, slug\) SELECT \* FROM UNNEST`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).AddRow(3, "carol"))
	mock.ExpectQuery(`SELECT artist_id, slug FROM archive_artists INNER JOIN artists`).
		WillReturnRows(sqlmock.NewRows([]string{"artist_id", "slug"}).
			AddRow(5, "alice").
			AddRow(2, "bob"))
	mock.ExpectExec(`DELETE FROM archive_artists WHERE archive_id = \$1 AND artist_id = \$2`).
		WithArgs(int64(1), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO archive_artists \(archive_id, artist_id\) SELECT \* FROM UNNEST`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewSyncer(nil)
	err = s.syncTaxonomy(context.Background(), db, taxonomy.Artist, 1, []string{"Bob", "Carol"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncTaxonomyIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The relation already matches the input: no term insert, no delete,
	// no junction insert.
	mock.ExpectQuery(`SELECT id, slug FROM circles WHERE slug = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).AddRow(4, "full-moon"))
	mock.ExpectQuery(`SELECT circle_id, slug FROM archive_circles INNER JOIN circles`).
		WillReturnRows(sqlmock.NewRows([]string{"circle_id", "slug"}).AddRow(4, "full-moon"))

	s := NewSyncer(nil)
	err = s.syncTaxonomy(context.Background(), db, taxonomy.Circle, 1, []string{"Full Moon"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncTagsNamespaceKeyed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The same tag under a different namespace is a different relation:
	// vanilla moves from the misc namespace to female, so the misc row
	// goes and a female row comes in against the same term id.
	mock.ExpectQuery(`SELECT id, slug FROM tags WHERE slug = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).AddRow(7, "vanilla"))
	mock.ExpectQuery(`SELECT tag_id, slug, namespace FROM archive_tags INNER JOIN tags`).
		WillReturnRows(sqlmock.NewRows([]string{"tag_id", "slug", "namespace"}).
			AddRow(7, "vanilla", "misc"))
	mock.ExpectExec(`DELETE FROM archive_tags WHERE archive_id = \$1 AND tag_id = \$2 AND namespace = \$3`).
		WithArgs(int64(1), int64(7), "misc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO archive_tags \(archive_id, tag_id, namespace\) SELECT \* FROM UNNEST`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewSyncer(nil)
	err = s.syncTags(context.Background(), db, 1, []types.TagPair{{Name: "Vanilla", Namespace: "female"}})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncTagsAppliesAliases(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, slug FROM tags WHERE slug = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}))
	// The new term is created under the canonical display name while the
	// slug stays derived from the original spelling.
	mock.ExpectQuery(`INSERT INTO tags \(name, slug\) SELECT \* FROM UNNEST`).
		WithArgs(`{"X-ray"}`, `{"x-ray"}`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).AddRow(9, "x-ray"))
	mock.ExpectQuery(`SELECT tag_id, slug, namespace FROM archive_tags INNER JOIN tags`).
		WillReturnRows(sqlmock.NewRows([]string{"tag_id", "slug", "namespace"}))
	mock.ExpectExec(`INSERT INTO archive_tags \(archive_id, tag_id, namespace\) SELECT \* FROM UNNEST`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewSyncer(taxonomy.NewAliasTable(map[string]string{"x-ray": "X-ray"}))
	err = s.syncTags(context.Background(), db, 1, []types.TagPair{{Name: "x-ray", Namespace: "misc"}})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMergesSources(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	kept := "https://old.example/keep"
	added := "https://new.example/1"

	// The payload carries only the new source; the existing row stays,
	// so no delete may ever reach the store.
	mock.ExpectQuery(`SELECT name, url FROM archive_sources WHERE archive_id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "url"}).AddRow("keeper", kept))
	mock.ExpectExec(`INSERT INTO archive_sources \(archive_id, name, url\)`).
		WithArgs(int64(5), "mirror", added).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewSyncer(nil)
	err = s.Apply(context.Background(), db, 5, types.Relations{
		Sources: []types.Source{{Name: "mirror", URL: &added}},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncSourcesReplace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	oldURL := "https://old.example/1"
	newURL := "https://new.example/1"

	mock.ExpectQuery(`SELECT name, url FROM archive_sources WHERE archive_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "url"}).
			AddRow("mirror", oldURL).
			AddRow("scraper", nil))
	// Without merge the scraper row disappears; the NULL url still has to
	// match its delete predicate.
	mock.ExpectExec(`DELETE FROM archive_sources WHERE archive_id = \$1 AND name = \$2 AND url IS NOT DISTINCT FROM \$3`).
		WithArgs(int64(1), "mirror", oldURL).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM archive_sources WHERE archive_id = \$1 AND name = \$2 AND url IS NOT DISTINCT FROM \$3`).
		WithArgs(int64(1), "scraper", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO archive_sources \(archive_id, name, url\)`).
		WithArgs(int64(1), "mirror", newURL).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = SyncSources(context.Background(), db, 1, []types.Source{{Name: "mirror", URL: &newURL}}, false)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncSourcesMergeKeepsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	url := "https://a.example/1"

	mock.ExpectQuery(`SELECT name, url FROM archive_sources WHERE archive_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "url"}).AddRow("mirror", "https://old.example/1"))
	mock.ExpectExec(`INSERT INTO archive_sources \(archive_id, name, url\)`).
		WithArgs(int64(1), "extra", url).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = SyncSources(context.Background(), db, 1, []types.Source{{Name: "extra", URL: &url}}, true)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
