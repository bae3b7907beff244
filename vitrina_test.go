package vitrina

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katworks/vitrina/pkg/archive"
	"github.com/katworks/vitrina/pkg/search"
)

func TestClientImplementsCatalog(t *testing.T) {
	var _ Catalog = (*Client)(nil)
}

func TestNewClientNilConfig(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client := NewClient(db, nil)

	require.NotNil(t, client)
	assert.Same(t, db, client.DB())
}

func TestClientSearchDelegates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id FROM archives`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, total, err := NewClient(db, nil).Search(context.Background(), search.Query{Value: "foo"})

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientFetchArchiveNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, slug, title`).
		WillReturnError(sql.ErrNoRows)

	_, err = NewClient(db, nil).FetchArchive(context.Background(), 404)

	require.ErrorIs(t, err, ErrArchiveNotFound)
	require.ErrorIs(t, err, archive.ErrArchiveNotFound)
}
