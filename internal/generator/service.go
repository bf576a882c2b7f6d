// Package generator orchestrates the full card pipeline: photo assets,
// payload encoding, face rendering, PDF export, storage and the artifact
// set record, with idempotent regeneration on top of content-addressed
// files.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardforge/internal/compliance"
	"cardforge/internal/domain"
	"cardforge/internal/encode"
	"cardforge/internal/photo"
	"cardforge/internal/platform/metrics"
	"cardforge/internal/render"
	"cardforge/internal/storage"
	"cardforge/pkg/sentinel"
)

const (
	// SchemaVersion is the artifact set schema. Sets persisted with an
	// older version are regenerated on the next request even when their
	// files still exist.
	SchemaVersion = 2
	// GeneratorVersion is stamped into results for operational tracing.
	GeneratorVersion = "2.0"
)

// Artifact names, the keys of Result.Artifacts and Result.URLs.
const (
	ArtifactFrontImage     = "front_image"
	ArtifactBackImage      = "back_image"
	ArtifactWatermarkImage = "watermark_image"
	ArtifactFrontPDF       = "front_pdf"
	ArtifactBackPDF        = "back_pdf"
	ArtifactWatermarkPDF   = "watermark_pdf"
	ArtifactCombinedPDF    = "combined_pdf"
	ArtifactProcessedPhoto = "processed_photo"
)

// Request is one generation order. RawPhoto, when present, replaces every
// other photo source for this run.
type Request struct {
	License  domain.LicenseRecord
	Citizen  domain.CitizenRecord
	RawPhoto []byte
	// Force regenerates even when a current artifact set exists.
	Force bool
}

// Result reports one completed generation.
type Result struct {
	LicenseID        string            `json:"license_id"`
	Artifacts        map[string]string `json:"artifacts"`
	URLs             map[string]string `json:"urls"`
	GeneratedAt      time.Time         `json:"generated_at"`
	GeneratorVersion string            `json:"generator_version"`
	FromCache        bool              `json:"from_cache"`
	PhotoPlaceholder bool              `json:"photo_placeholder"`
	Compliance       compliance.Report `json:"compliance"`
}

// Service runs the pipeline. It holds no per-request state; concurrency
// control for same-license requests lives in Exclusive.
type Service struct {
	files     *storage.FileStore
	artifacts ArtifactStore
	photos    *photo.Manager
	encoder   *encode.Encoder
	renderer  *render.Renderer
	validator *compliance.Validator
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

func NewService(
	files *storage.FileStore,
	artifacts ArtifactStore,
	photos *photo.Manager,
	encoder *encode.Encoder,
	renderer *render.Renderer,
	validator *compliance.Validator,
	m *metrics.Metrics,
	log *zap.Logger,
) *Service {
	return &Service{
		files:     files,
		artifacts: artifacts,
		photos:    photos,
		encoder:   encoder,
		renderer:  renderer,
		validator: validator,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the generation timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Generate produces the complete artifact set for a license. When a current
// set already exists, every file is still present and Force is unset, the
// stored set is returned without re-rendering; its compliance report is
// still recomputed from the stored bytes.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	log := s.log.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("license_id", req.License.ID))

	if err := req.License.Validate(); err != nil {
		return s.fail(start, stageErr(StageProjection, err))
	}
	if err := req.Citizen.Validate(); err != nil {
		return s.fail(start, stageErr(StageProjection, err))
	}

	// A new source photo always invalidates the cached set.
	if !req.Force && len(req.RawPhoto) == 0 {
		if result, ok := s.fromCache(ctx, req); ok {
			s.metrics.ObserveGeneration("cached", start)
			log.Info("artifact set served from cache",
				zap.Time("generated_at", result.GeneratedAt))
			return result, nil
		}
	}

	var asset domain.PhotoAsset
	var err error
	if len(req.RawPhoto) > 0 {
		asset, err = s.photos.Refresh(ctx, req.Citizen, req.RawPhoto)
	} else {
		asset, err = s.photos.EnsureProcessed(ctx, req.Citizen, req.Force)
	}
	if err != nil {
		return s.fail(start, stageErr(StagePhoto, err))
	}
	if asset.Placeholder {
		s.metrics.PlaceholderPhotos.Inc()
	}
	processedPhoto, err := s.files.Read(asset.ProcessedPath)
	if err != nil {
		return s.fail(start, stageErr(StagePhoto, err))
	}

	generatedAt := s.now().UTC()
	payload, err := s.encoder.Encode(req.License, req.Citizen, generatedAt)
	if err != nil {
		return s.fail(start, stageErr(StageEncode, err))
	}

	front, err := s.renderer.Front(payload, req.License, req.Citizen, processedPhoto)
	if err != nil {
		return s.fail(start, stageErr(StageRender, err))
	}
	back, err := s.renderer.Back(payload, req.License)
	if err != nil {
		return s.fail(start, stageErr(StageRender, err))
	}
	watermark, err := s.renderer.Watermark(req.License)
	if err != nil {
		return s.fail(start, stageErr(StageRender, err))
	}

	meta := render.PDFMeta{
		Title:   "Driving Licence " + req.License.LicenseNumber,
		Author:  s.encoder.IssuingAuthority,
		Subject: "Driving Licence Card",
		Created: generatedAt,
	}
	frontPDF, err := render.PDF(front, meta)
	if err != nil {
		return s.fail(start, stageErr(StageExport, err))
	}
	backPDF, err := render.PDF(back, meta)
	if err != nil {
		return s.fail(start, stageErr(StageExport, err))
	}
	watermarkPDF, err := render.PDF(watermark, meta)
	if err != nil {
		return s.fail(start, stageErr(StageExport, err))
	}
	combinedPDF, err := render.CombinedPDF(front, back, watermark, meta)
	if err != nil {
		return s.fail(start, stageErr(StageExport, err))
	}

	stem := "license_" + req.License.ID
	set := domain.CardArtifactSet{
		LicenseID:        req.License.ID,
		ProcessedPhoto:   asset.ProcessedPath,
		PhotoPlaceholder: asset.Placeholder,
		Version:          SchemaVersion,
		GeneratedAt:      generatedAt,
	}
	stores := []struct {
		target  *string
		suffix  string
		ext     string
		content []byte
	}{
		{&set.FrontImage, "_front", "png", front},
		{&set.BackImage, "_back", "png", back},
		{&set.WatermarkImage, "_watermark", "png", watermark},
		{&set.FrontPDF, "_front", "pdf", frontPDF},
		{&set.BackPDF, "_back", "pdf", backPDF},
		{&set.WatermarkPDF, "_watermark", "pdf", watermarkPDF},
		{&set.CombinedPDF, "_combined", "pdf", combinedPDF},
	}
	for _, item := range stores {
		stored, err := s.files.Store(ctx, item.content, storage.CategoryDocument, stem+item.suffix, item.ext)
		if err != nil {
			return s.fail(start, stageErr(StageStore, err))
		}
		*item.target = stored.RelPath
	}

	// Superseded artifacts from earlier generations are garbage once the
	// new set is on disk.
	if _, err := s.files.CleanupForEntity(storage.CategoryDocument, stem+"_", set.Paths()); err != nil {
		log.Warn("artifact cleanup failed", zap.Error(err))
	}

	if err := s.artifacts.Save(ctx, set); err != nil {
		return s.fail(start, stageErr(StagePersist, err))
	}

	report := s.validator.Validate(compliance.Input{
		License:          req.License,
		Citizen:          req.Citizen,
		Payload:          payload,
		FrontPNG:         front,
		BackPNG:          back,
		ProcessedPhoto:   processedPhoto,
		PhotoPlaceholder: asset.Placeholder,
		GeneratedAt:      generatedAt,
	})

	s.metrics.ObserveGeneration("generated", start)
	log.Info("artifact set generated",
		zap.String("compliance_status", string(report.Status)),
		zap.Float64("compliance_score", report.Score),
		zap.Bool("photo_placeholder", asset.Placeholder))

	return Result{
		LicenseID:        req.License.ID,
		Artifacts:        artifactPaths(set),
		URLs:             s.artifactURLs(set),
		GeneratedAt:      generatedAt,
		GeneratorVersion: GeneratorVersion,
		PhotoPlaceholder: asset.Placeholder,
		Compliance:       report,
	}, nil
}

// fromCache serves the stored artifact set when it is current: schema
// version at least SchemaVersion and every file still on disk.
func (s *Service) fromCache(ctx context.Context, req Request) (Result, bool) {
	set, err := s.artifacts.Find(ctx, req.License.ID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.log.Warn("artifact set lookup failed", zap.String("license_id", req.License.ID), zap.Error(err))
		}
		return Result{}, false
	}
	if set.Version < SchemaVersion {
		return Result{}, false
	}
	for _, rel := range set.Paths() {
		if !s.files.Exists(rel) {
			return Result{}, false
		}
	}

	report := s.validateStored(req, set)
	return Result{
		LicenseID:        req.License.ID,
		Artifacts:        artifactPaths(set),
		URLs:             s.artifactURLs(set),
		GeneratedAt:      set.GeneratedAt,
		GeneratorVersion: GeneratorVersion,
		FromCache:        true,
		PhotoPlaceholder: set.PhotoPlaceholder,
		Compliance:       report,
	}, true
}

// validateStored re-runs compliance against the stored bytes. The payload
// is recomputed at the recorded generation instant; encoding is
// deterministic, so a clean set verifies bit for bit.
func (s *Service) validateStored(req Request, set domain.CardArtifactSet) compliance.Report {
	input := compliance.Input{
		License:          req.License,
		Citizen:          req.Citizen,
		PhotoPlaceholder: set.PhotoPlaceholder,
		GeneratedAt:      set.GeneratedAt,
	}
	if payload, err := s.encoder.Encode(req.License, req.Citizen, set.GeneratedAt); err == nil {
		input.Payload = payload
	}
	if content, err := s.files.Read(set.FrontImage); err == nil {
		input.FrontPNG = content
	}
	if content, err := s.files.Read(set.BackImage); err == nil {
		input.BackPNG = content
	}
	if set.ProcessedPhoto != "" {
		if content, err := s.files.Read(set.ProcessedPhoto); err == nil {
			input.ProcessedPhoto = content
		}
	}
	return s.validator.Validate(input)
}

func (s *Service) fail(start time.Time, err error) (Result, error) {
	s.metrics.ObserveGeneration("failed", start)
	return Result{}, err
}

func artifactPaths(set domain.CardArtifactSet) map[string]string {
	return map[string]string{
		ArtifactFrontImage:     set.FrontImage,
		ArtifactBackImage:      set.BackImage,
		ArtifactWatermarkImage: set.WatermarkImage,
		ArtifactFrontPDF:       set.FrontPDF,
		ArtifactBackPDF:        set.BackPDF,
		ArtifactWatermarkPDF:   set.WatermarkPDF,
		ArtifactCombinedPDF:    set.CombinedPDF,
		ArtifactProcessedPhoto: set.ProcessedPhoto,
	}
}

func (s *Service) artifactURLs(set domain.CardArtifactSet) map[string]string {
	urls := make(map[string]string, 8)
	for name, rel := range artifactPaths(set) {
		urls[name] = s.files.URL(rel)
	}
	return urls
}

// Side selects a preview face.
type Side string

const (
	SideFront     Side = "front"
	SideBack      Side = "back"
	SideWatermark Side = "watermark"
)

// ParseSide enforces the closed side set at trust boundaries.
func ParseSide(s string) (Side, error) {
	switch side := Side(s); side {
	case SideFront, SideBack, SideWatermark:
		return side, nil
	default:
		return "", fmt.Errorf("unknown card side: %q", s)
	}
}

// Preview renders one face in memory without touching the artifact record.
// The photo asset is still ensured, so a first preview can process a photo.
func (s *Service) Preview(ctx context.Context, req Request, side Side) ([]byte, error) {
	if err := req.License.Validate(); err != nil {
		return nil, stageErr(StageProjection, err)
	}
	if err := req.Citizen.Validate(); err != nil {
		return nil, stageErr(StageProjection, err)
	}

	if side == SideWatermark {
		return s.renderer.Watermark(req.License)
	}

	payload, err := s.encoder.Encode(req.License, req.Citizen, s.now().UTC())
	if err != nil {
		return nil, stageErr(StageEncode, err)
	}
	if side == SideBack {
		return s.renderer.Back(payload, req.License)
	}

	asset, err := s.photos.EnsureProcessed(ctx, req.Citizen, false)
	if err != nil {
		return nil, stageErr(StagePhoto, err)
	}
	processedPhoto, err := s.files.Read(asset.ProcessedPath)
	if err != nil {
		return nil, stageErr(StagePhoto, err)
	}
	return s.renderer.Front(payload, req.License, req.Citizen, processedPhoto)
}
