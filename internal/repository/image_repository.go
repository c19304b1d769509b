package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lewtec/enquadra/internal/domain"
)

// ImageRepository implements domain.ImageRepository over sqlite
type ImageRepository struct {
	db dbtx
}

// NewImageRepository creates a new ImageRepository
func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// NewImageRepositoryWithTx creates a new ImageRepository with a transaction
func NewImageRepositoryWithTx(tx *sql.Tx) *ImageRepository {
	return &ImageRepository{db: tx}
}

const imageColumns = `sha256, filename, width, height, ingested_at`

func scanImage(row interface{ Scan(...interface{}) error }) (*domain.Image, error) {
	var img domain.Image
	var ingested timestamp
	if err := row.Scan(&img.SHA256, &img.Filename, &img.Width, &img.Height, &ingested); err != nil {
		return nil, err
	}
	img.IngestedAt = ingested.Time
	return &img, nil
}

// Create registers an image, refreshing filename and dimensions when the
// hash is already known.
func (r *ImageRepository) Create(ctx context.Context, sha256, filename string, width, height int) (*domain.Image, error) {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO images (sha256, filename, width, height, ingested_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(sha256) DO UPDATE SET filename = excluded.filename, width = excluded.width, height = excluded.height
`, sha256, filename, width, height, now())
	if err != nil {
		return nil, fmt.Errorf("while registering image '%s': %w", sha256, err)
	}
	return r.GetBySHA256(ctx, sha256)
}

// GetBySHA256 returns nil when the image is unknown
func (r *ImageRepository) GetBySHA256(ctx context.Context, sha256 string) (*domain.Image, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE sha256 = ?`, sha256))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return img, err
}

// GetByFilename returns the most recently ingested image with that name
func (r *ImageRepository) GetByFilename(ctx context.Context, filename string) (*domain.Image, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE filename = ? ORDER BY ingested_at DESC LIMIT 1`, filename))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return img, err
}

// List retrieves all images ordered by filename
func (r *ImageRepository) List(ctx context.Context) ([]*domain.Image, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+imageColumns+` FROM images ORDER BY filename, sha256`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	return result, rows.Err()
}

// Count returns the total number of images
func (r *ImageRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&n)
	return n, err
}

// Delete removes an image and its annotations
func (r *ImageRepository) Delete(ctx context.Context, sha256 string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM annotations WHERE image_sha256 = ?`, sha256); err != nil {
		return fmt.Errorf("while deleting annotations of image '%s': %w", sha256, err)
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE sha256 = ?`, sha256)
	return err
}

// Verify that ImageRepository implements domain.ImageRepository
var _ domain.ImageRepository = (*ImageRepository)(nil)
