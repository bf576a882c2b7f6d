package photo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cardforge/internal/domain"
	"cardforge/internal/storage"
)

// Manager owns the photo asset lifecycle: resolve a source, normalize it,
// store the original/processed pair under content-hash names, and retire
// superseded assets. Assets are immutable; a new source photo means new
// files, never an in-place rewrite.
type Manager struct {
	store      *storage.FileStore
	resolver   *Resolver
	normalizer *Normalizer
	log        *zap.Logger
	now        func() time.Time
}

func NewManager(store *storage.FileStore, resolver *Resolver, normalizer *Normalizer, log *zap.Logger) *Manager {
	return &Manager{
		store:      store,
		resolver:   resolver,
		normalizer: normalizer,
		log:        log,
		now:        time.Now,
	}
}

// WithClock overrides the timestamp source. Tests pin it for deterministic
// asset records.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// EnsureProcessed returns a processed photo asset for the citizen,
// normalizing a new one only when the recorded asset is missing, stale, or
// force is set. A citizen without any reachable source still succeeds with
// a flagged placeholder asset.
func (m *Manager) EnsureProcessed(ctx context.Context, citizen domain.CitizenRecord, force bool) (domain.PhotoAsset, error) {
	if !force && citizen.ProcessedPhotoPath != "" && m.store.Exists(citizen.ProcessedPhotoPath) {
		content, err := m.store.Read(citizen.ProcessedPhotoPath)
		if err != nil {
			return domain.PhotoAsset{}, fmt.Errorf("read processed photo: %w", err)
		}
		return domain.PhotoAsset{
			CitizenID:     citizen.ID,
			ProcessedPath: citizen.ProcessedPhotoPath,
			ContentHash:   storage.ContentHash(content),
			ProcessedAt:   m.now(),
		}, nil
	}
	return m.Refresh(ctx, citizen, nil)
}

// Refresh resolves and normalizes a photo unconditionally, stores the new
// original/processed pair, and purges the citizen's prior photo files. raw,
// when non-empty, wins over the citizen's stored reference and URL.
func (m *Manager) Refresh(ctx context.Context, citizen domain.CitizenRecord, raw []byte) (domain.PhotoAsset, error) {
	resolution := m.resolver.Resolve(ctx, citizen, raw)
	if resolution.Placeholder() && resolution.Err != nil {
		m.log.Warn("photo source unavailable, substituting placeholder",
			zap.String("citizen_id", citizen.ID),
			zap.Error(resolution.Err))
	}

	processed, err := m.normalizer.Normalize(resolution.Bytes)
	if err != nil {
		// Undecodable source bytes degrade to the placeholder rather than
		// aborting generation; the flag still reaches the caller.
		m.log.Warn("photo normalization failed, substituting placeholder",
			zap.String("citizen_id", citizen.ID),
			zap.Error(err))
		resolution = Resolution{Kind: SourcePlaceholder, Bytes: Placeholder(m.normalizer.Spec()), Err: err}
		if processed, err = m.normalizer.Normalize(resolution.Bytes); err != nil {
			return domain.PhotoAsset{}, fmt.Errorf("normalize placeholder: %w", err)
		}
	}

	stem := "citizen_" + citizen.ID
	original, err := m.store.Store(ctx, resolution.Bytes, storage.CategoryPhoto, stem+"_original", "jpg")
	if err != nil {
		return domain.PhotoAsset{}, fmt.Errorf("store original photo: %w", err)
	}
	stored, err := m.store.Store(ctx, processed, storage.CategoryPhoto, stem+"_processed", "jpg")
	if err != nil {
		return domain.PhotoAsset{}, fmt.Errorf("store processed photo: %w", err)
	}

	// Old assets are garbage, not history: keep only the pair just written.
	if _, err := m.store.CleanupForEntity(storage.CategoryPhoto, stem+"_", []string{original.RelPath, stored.RelPath}); err != nil {
		m.log.Warn("photo cleanup failed", zap.String("citizen_id", citizen.ID), zap.Error(err))
	}

	now := m.now()
	return domain.PhotoAsset{
		CitizenID:     citizen.ID,
		OriginalPath:  original.RelPath,
		ProcessedPath: stored.RelPath,
		ContentHash:   storage.ContentHash(resolution.Bytes),
		Placeholder:   resolution.Placeholder(),
		UploadedAt:    now,
		ProcessedAt:   now,
	}, nil
}
