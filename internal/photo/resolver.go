package photo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"cardforge/internal/domain"
	"cardforge/internal/storage"
)

// SourceKind tags which resolution step produced the photo bytes.
type SourceKind string

const (
	SourceBytes       SourceKind = "direct_bytes"
	SourceStored      SourceKind = "stored_asset"
	SourceRemote      SourceKind = "remote_fetch"
	SourcePlaceholder SourceKind = "placeholder"
)

// Resolution is the outcome of one resolve call. Placeholder resolutions
// are valid pipeline inputs; the flag travels up to the generation result
// so the caller can schedule follow-up.
type Resolution struct {
	Kind  SourceKind
	Bytes []byte
	// Err records why an earlier step was skipped when the pipeline fell
	// through to the placeholder. Informational only.
	Err error
}

// Placeholder reports whether the resolution synthesized a stand-in photo.
func (r Resolution) Placeholder() bool { return r.Kind == SourcePlaceholder }

// Fetcher retrieves remote photo bytes. The HTTP implementation is the
// production fetcher; tests substitute a stub.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches photos over HTTP with a bounded timeout.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build photo request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch photo: unexpected status %d", resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read photo body: %w", err)
	}
	return content, nil
}

// Resolver walks the ordered source pipeline: direct bytes, stored asset,
// remote fetch, placeholder. Each step either yields bytes or passes to the
// next; nothing is swallowed silently, the last failure rides along on the
// placeholder resolution.
type Resolver struct {
	store   *storage.FileStore
	fetcher Fetcher
	spec    Spec
}

func NewResolver(store *storage.FileStore, fetcher Fetcher, spec Spec) *Resolver {
	return &Resolver{store: store, fetcher: fetcher, spec: spec}
}

// Resolve produces photo bytes for a citizen. raw takes precedence over the
// stored reference, which takes precedence over the remote URL. A missing or
// unreachable source never fails: the placeholder is substituted and
// flagged.
func (r *Resolver) Resolve(ctx context.Context, citizen domain.CitizenRecord, raw []byte) Resolution {
	if len(raw) > 0 {
		return Resolution{Kind: SourceBytes, Bytes: raw}
	}

	var lastErr error
	if citizen.ProcessedPhotoPath != "" {
		content, err := r.store.Read(citizen.ProcessedPhotoPath)
		if err == nil {
			return Resolution{Kind: SourceStored, Bytes: content}
		}
		lastErr = err
	}

	if citizen.PhotoURL != "" {
		content, err := r.fetcher.Fetch(ctx, citizen.PhotoURL)
		if err == nil {
			return Resolution{Kind: SourceRemote, Bytes: content}
		}
		lastErr = err
	}

	return Resolution{Kind: SourcePlaceholder, Bytes: Placeholder(r.spec), Err: lastErr}
}
