package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/lewtec/enquadra/internal/domain"
)

// AnnotationRepository implements domain.AnnotationRepository over sqlite
type AnnotationRepository struct {
	db dbtx
}

// NewAnnotationRepository creates a new AnnotationRepository
func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

// NewAnnotationRepositoryWithTx creates a new AnnotationRepository with a transaction
func NewAnnotationRepositoryWithTx(tx *sql.Tx) *AnnotationRepository {
	return &AnnotationRepository{db: tx}
}

const annotationColumns = `id, image_sha256, position, label_name, x, y, width, height, visible, locked, title_position, updated_at`

func scanAnnotation(row interface{ Scan(...interface{}) error }) (*domain.StoredAnnotation, error) {
	var ann domain.StoredAnnotation
	var title string
	var updated timestamp
	err := row.Scan(&ann.ID, &ann.ImageSHA256, &ann.Position, &ann.LabelName,
		&ann.X, &ann.Y, &ann.Width, &ann.Height, &ann.Visible, &ann.Locked, &title, &updated)
	if err != nil {
		return nil, err
	}
	if ann.TitlePosition, err = domain.ParseTitlePosition(title); err != nil {
		return nil, fmt.Errorf("while reading annotation '%s': %w", ann.ID, err)
	}
	ann.UpdatedAt = updated.Time
	return &ann, nil
}

func (r *AnnotationRepository) list(ctx context.Context, where string, args ...interface{}) ([]*domain.StoredAnnotation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+annotationColumns+` FROM annotations `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.StoredAnnotation{}
	for rows.Next() {
		ann, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ann)
	}
	return result, rows.Err()
}

// ReplaceForImage stores anns as the complete set for an image. Records
// without an ID get a fresh one; the returned slice carries the IDs in the
// same order as anns. Callers wanting atomicity use NewAnnotationRepositoryWithTx.
func (r *AnnotationRepository) ReplaceForImage(ctx context.Context, imageSHA256 string, anns []domain.Annotation) ([]domain.Annotation, error) {
	var known int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE sha256 = ?`, imageSHA256).Scan(&known); err != nil {
		return nil, fmt.Errorf("while looking up image '%s': %w", imageSHA256, err)
	}
	if known == 0 {
		return nil, fmt.Errorf("while replacing annotations: image '%s' is not registered", imageSHA256)
	}

	log.Printf("repository: replacing %d annotations of image %s", len(anns), imageSHA256)
	if _, err := r.db.ExecContext(ctx, `DELETE FROM annotations WHERE image_sha256 = ?`, imageSHA256); err != nil {
		return nil, fmt.Errorf("while clearing annotations of image '%s': %w", imageSHA256, err)
	}

	stamp := now()
	out := make([]domain.Annotation, len(anns))
	for i, a := range anns {
		a = a.Normalized()
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		_, err := r.db.ExecContext(ctx, `
INSERT INTO annotations (id, image_sha256, position, label_name, x, y, width, height, visible, locked, title_position, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, a.ID, imageSHA256, i, a.LabelName, a.X, a.Y, a.Width, a.Height, a.Visible, a.Locked, a.TitlePosition.String(), stamp)
		if err != nil {
			return nil, fmt.Errorf("while storing annotation '%s': %w", a.ID, err)
		}
		out[i] = a
	}
	return out, nil
}

// GetForImage retrieves all annotations for a specific image in drawing order
func (r *AnnotationRepository) GetForImage(ctx context.Context, imageSHA256 string) ([]*domain.StoredAnnotation, error) {
	return r.list(ctx, `WHERE image_sha256 = ? ORDER BY position`, imageSHA256)
}

// Get returns nil when no annotation has that ID
func (r *AnnotationRepository) Get(ctx context.Context, id string) (*domain.StoredAnnotation, error) {
	ann, err := scanAnnotation(r.db.QueryRowContext(ctx, `SELECT `+annotationColumns+` FROM annotations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ann, err
}

// GetByLabel retrieves annotations carrying a label across all images
func (r *AnnotationRepository) GetByLabel(ctx context.Context, labelName string) ([]*domain.StoredAnnotation, error) {
	return r.list(ctx, `WHERE label_name = ? ORDER BY image_sha256, position`, labelName)
}

// CountByLabel counts annotations per label; unlabeled ones are keyed by ""
func (r *AnnotationRepository) CountByLabel(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label_name, COUNT(*) FROM annotations GROUP BY label_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]int64{}
	for rows.Next() {
		var label string
		var n int64
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		result[label] = n
	}
	return result, rows.Err()
}

// Delete removes an annotation by ID
func (r *AnnotationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM annotations WHERE id = ?`, id)
	return err
}

// DeleteForImage removes all annotations for an image
func (r *AnnotationRepository) DeleteForImage(ctx context.Context, imageSHA256 string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM annotations WHERE image_sha256 = ?`, imageSHA256)
	return err
}

// GetStats returns overall annotation statistics
func (r *AnnotationRepository) GetStats(ctx context.Context) (*domain.AnnotationStats, error) {
	var stats domain.AnnotationStats
	err := r.db.QueryRowContext(ctx, `
SELECT
  COUNT(DISTINCT image_sha256),
  COUNT(*),
  COUNT(DISTINCT NULLIF(label_name, ''))
FROM annotations
`).Scan(&stats.AnnotatedImages, &stats.TotalAnnotations, &stats.TotalLabels)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Verify that AnnotationRepository implements domain.AnnotationRepository
var _ domain.AnnotationRepository = (*AnnotationRepository)(nil)
