package relations

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katworks/vitrina/pkg/types"
)

func TestSyncImages(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Page 3 left the input and is deleted; pages 1 and 2 are upserted,
	// page 1 gaining the dimensions the thumbnailer measured since.
	mock.ExpectQuery(`SELECT filename, page_number, width, height FROM archive_images`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"filename", "page_number", "width", "height"}).
			AddRow("001.jpg", 1, nil, nil).
			AddRow("003.jpg", 3, nil, nil))
	mock.ExpectExec(`DELETE FROM archive_images WHERE archive_id = \$1 AND page_number = \$2`).
		WithArgs(int64(1), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO archive_images`).
		WithArgs(int64(1), "001.jpg", 1, 900, 1280).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO archive_images`).
		WithArgs(int64(1), "002.jpg", 2, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	width, height := 900, 1280
	err = SyncImages(context.Background(), db, 1, []types.Image{
		{Filename: "001.jpg", PageNumber: 1, Width: &width, Height: &height},
		{Filename: "002.jpg", PageNumber: 2},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncImagesEmptyInputClears(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT filename, page_number, width, height FROM archive_images`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"filename", "page_number", "width", "height"}).
			AddRow("001.jpg", 1, nil, nil))
	mock.ExpectExec(`DELETE FROM archive_images WHERE archive_id = \$1 AND page_number = \$2`).
		WithArgs(int64(1), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = SyncImages(context.Background(), db, 1, []types.Image{})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
