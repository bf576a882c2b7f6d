package generator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cardforge/internal/domain"
	"cardforge/pkg/sentinel"
)

// PostgresStore persists artifact sets in PostgreSQL. One row per license,
// replaced wholesale on regeneration.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed artifact store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const createArtifactSets = `
CREATE TABLE IF NOT EXISTS card_artifact_sets (
	license_id         TEXT PRIMARY KEY,
	front_image        TEXT NOT NULL,
	back_image         TEXT NOT NULL,
	watermark_image    TEXT NOT NULL,
	front_pdf          TEXT NOT NULL,
	back_pdf           TEXT NOT NULL,
	watermark_pdf      TEXT NOT NULL,
	combined_pdf       TEXT NOT NULL,
	processed_photo    TEXT NOT NULL DEFAULT '',
	photo_placeholder  BOOLEAN NOT NULL DEFAULT FALSE,
	generation_version INTEGER NOT NULL,
	generated_at       TIMESTAMPTZ NOT NULL
)`

// Migrate creates the artifact set table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createArtifactSets); err != nil {
		return fmt.Errorf("create card_artifact_sets: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, licenseID string) (domain.CardArtifactSet, error) {
	const query = `
		SELECT license_id, front_image, back_image, watermark_image,
		       front_pdf, back_pdf, watermark_pdf, combined_pdf,
		       processed_photo, photo_placeholder, generation_version, generated_at
		FROM card_artifact_sets
		WHERE license_id = $1`

	var set domain.CardArtifactSet
	err := s.db.QueryRowContext(ctx, query, licenseID).Scan(
		&set.LicenseID, &set.FrontImage, &set.BackImage, &set.WatermarkImage,
		&set.FrontPDF, &set.BackPDF, &set.WatermarkPDF, &set.CombinedPDF,
		&set.ProcessedPhoto, &set.PhotoPlaceholder, &set.Version, &set.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CardArtifactSet{}, sentinel.ErrNotFound
		}
		return domain.CardArtifactSet{}, fmt.Errorf("find artifact set: %w", err)
	}
	return set, nil
}

func (s *PostgresStore) Save(ctx context.Context, set domain.CardArtifactSet) error {
	const query = `
		INSERT INTO card_artifact_sets (
			license_id, front_image, back_image, watermark_image,
			front_pdf, back_pdf, watermark_pdf, combined_pdf,
			processed_photo, photo_placeholder, generation_version, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (license_id) DO UPDATE SET
			front_image = EXCLUDED.front_image,
			back_image = EXCLUDED.back_image,
			watermark_image = EXCLUDED.watermark_image,
			front_pdf = EXCLUDED.front_pdf,
			back_pdf = EXCLUDED.back_pdf,
			watermark_pdf = EXCLUDED.watermark_pdf,
			combined_pdf = EXCLUDED.combined_pdf,
			processed_photo = EXCLUDED.processed_photo,
			photo_placeholder = EXCLUDED.photo_placeholder,
			generation_version = EXCLUDED.generation_version,
			generated_at = EXCLUDED.generated_at`

	_, err := s.db.ExecContext(ctx, query,
		set.LicenseID, set.FrontImage, set.BackImage, set.WatermarkImage,
		set.FrontPDF, set.BackPDF, set.WatermarkPDF, set.CombinedPDF,
		set.ProcessedPhoto, set.PhotoPlaceholder, set.Version, set.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("save artifact set: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, licenseID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM card_artifact_sets WHERE license_id = $1`, licenseID); err != nil {
		return fmt.Errorf("delete artifact set: %w", err)
	}
	return nil
}
