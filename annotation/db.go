package annotation

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/lewtec/enquadra/internal/domain"
	"github.com/lewtec/enquadra/internal/repository"
)

// GetDatabase opens the database and brings its schema up to date
func GetDatabase(filename string) (*sql.DB, error) {
	db, err := repository.Open(filename)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// LoadAnnotations returns the stored annotations of an image ready to be
// handed to the editor.
func LoadAnnotations(ctx context.Context, db *sql.DB, imageSHA256 string) ([]domain.Annotation, error) {
	stored, err := repository.NewAnnotationRepository(db).GetForImage(ctx, imageSHA256)
	if err != nil {
		return nil, fmt.Errorf("while loading annotations of image '%s': %w", imageSHA256, err)
	}
	ret := make([]domain.Annotation, len(stored))
	for i, s := range stored {
		ret[i] = s.Annotation
	}
	return ret, nil
}

// SubmitAnnotations replaces the stored set of an image with records in one
// transaction, registering the image first. It returns the persisted ID of
// every record keyed by LocalID.
func SubmitAnnotations(ctx context.Context, db *sql.DB, img *LoadedImage, filename string, records []domain.Annotation) (map[string]string, error) {
	ids := map[string]string{}
	err := repository.WithTx(ctx, db, func(tx *sql.Tx) error {
		images := repository.NewImageRepositoryWithTx(tx)
		known, err := images.GetBySHA256(ctx, img.SHA256)
		if err != nil {
			return fmt.Errorf("while looking up image '%s': %w", img.SHA256, err)
		}
		if known == nil {
			log.Printf("SubmitAnnotations: registering image %s", img.SHA256)
			if _, err := images.Create(ctx, img.SHA256, filename, img.Width, img.Height); err != nil {
				return err
			}
		}
		saved, err := repository.NewAnnotationRepositoryWithTx(tx).ReplaceForImage(ctx, img.SHA256, records)
		if err != nil {
			return err
		}
		for _, a := range saved {
			if a.LocalID != "" {
				ids[a.LocalID] = a.ID
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("while submitting annotations: %w", err)
	}
	log.Printf("SubmitAnnotations: stored %d annotations for %s", len(records), img.SHA256)
	return ids, nil
}
