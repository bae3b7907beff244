package relations

import (
	"context"
	"fmt"

	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/types"
)

// SyncImages reconciles the archive's page images. Pages absent from
// the input are deleted; every input page is upserted on the
// (archive, page_number) key, overwriting filename and dimensions.
func SyncImages(ctx context.Context, tx store.Querier, archiveID int64, images []types.Image) error {
	existing, err := currentImages(ctx, tx, archiveID)
	if err != nil {
		return err
	}

	toDelete := missing(existing, images, func(a, b types.Image) bool {
		return a.PageNumber == b.PageNumber
	})
	for _, image := range toDelete {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM archive_images WHERE archive_id = $1 AND page_number = $2",
			archiveID, image.PageNumber,
		); err != nil {
			return fmt.Errorf("failed to delete image: %w", err)
		}
	}

	for _, image := range images {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO archive_images (archive_id, filename, page_number, width, height)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (archive_id, page_number) DO UPDATE
			SET filename = EXCLUDED.filename, width = EXCLUDED.width, height = EXCLUDED.height`,
			archiveID, image.Filename, image.PageNumber, image.Width, image.Height,
		); err != nil {
			return fmt.Errorf("failed to upsert image: %w", err)
		}
	}

	return nil
}

func currentImages(ctx context.Context, tx store.Querier, archiveID int64) ([]types.Image, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT filename, page_number, width, height FROM archive_images WHERE archive_id = $1",
		archiveID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	defer rows.Close()

	var images []types.Image
	for rows.Next() {
		var image types.Image
		if err := rows.Scan(&image.Filename, &image.PageNumber, &image.Width, &image.Height); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read images: %w", err)
	}

	return images, nil
}
