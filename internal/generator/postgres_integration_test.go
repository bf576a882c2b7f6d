//go:build integration

package generator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardforge/internal/domain"
	"cardforge/internal/generator"
	"cardforge/pkg/sentinel"
	"cardforge/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *generator.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = generator.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "card_artifact_sets"))
}

func testSet(licenseID string) domain.CardArtifactSet {
	return domain.CardArtifactSet{
		LicenseID:      licenseID,
		FrontImage:     "licenses/license_" + licenseID + "_front_aaaa.png",
		BackImage:      "licenses/license_" + licenseID + "_back_bbbb.png",
		WatermarkImage: "licenses/license_" + licenseID + "_watermark_cccc.png",
		FrontPDF:       "licenses/license_" + licenseID + "_front_dddd.pdf",
		BackPDF:        "licenses/license_" + licenseID + "_back_eeee.pdf",
		WatermarkPDF:   "licenses/license_" + licenseID + "_watermark_ffff.pdf",
		CombinedPDF:    "licenses/license_" + licenseID + "_combined_1111.pdf",
		ProcessedPhoto: "photos/citizen_C1_processed_2222.jpg",
		Version:        generator.SchemaVersion,
		GeneratedAt:    time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	set := testSet("LIC-001")
	set.PhotoPlaceholder = true
	s.Require().NoError(s.store.Save(ctx, set))

	found, err := s.store.Find(ctx, "LIC-001")
	s.Require().NoError(err)
	s.Equal(set.FrontImage, found.FrontImage)
	s.Equal(set.CombinedPDF, found.CombinedPDF)
	s.Equal(set.ProcessedPhoto, found.ProcessedPhoto)
	s.True(found.PhotoPlaceholder)
	s.Equal(set.Version, found.Version)
	s.True(set.GeneratedAt.Equal(found.GeneratedAt))
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.Find(context.Background(), "LIC-404")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSaveReplacesExisting() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, testSet("LIC-001")))

	updated := testSet("LIC-001")
	updated.FrontImage = "licenses/license_LIC-001_front_ffff.png"
	updated.GeneratedAt = updated.GeneratedAt.Add(time.Hour)
	s.Require().NoError(s.store.Save(ctx, updated))

	found, err := s.store.Find(ctx, "LIC-001")
	s.Require().NoError(err)
	s.Equal(updated.FrontImage, found.FrontImage)
	s.True(updated.GeneratedAt.Equal(found.GeneratedAt))
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, testSet("LIC-001")))
	s.Require().NoError(s.store.Delete(ctx, "LIC-001"))

	_, err := s.store.Find(ctx, "LIC-001")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// Deleting a missing record is not an error.
	s.Require().NoError(s.store.Delete(ctx, "LIC-001"))
}
