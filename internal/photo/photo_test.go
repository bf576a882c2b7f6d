package photo

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"cardforge/internal/domain"
	"cardforge/internal/platform/logger"
	"cardforge/internal/storage"
)

// encodePNG builds an in-memory test image of the given size.
func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(w, h, c)))
	return buf.Bytes()
}

func decodeDims(t *testing.T, content []byte) (int, int) {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(content))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestSpecPixelBox(t *testing.T) {
	w, h := DefaultSpec().PixelBox()
	require.Equal(t, 213, w)
	require.Equal(t, 260, h)
}

// TestNormalizeExactBox is the core normalization property: any input
// geometry lands on exactly the spec pixel box.
func TestNormalizeExactBox(t *testing.T) {
	n := NewNormalizer(DefaultSpec())
	wantW, wantH := DefaultSpec().PixelBox()

	cases := map[string][]byte{
		"wider than target":  encodePNG(t, 800, 400, color.White),
		"taller than target": encodePNG(t, 300, 900, color.White),
		"exact aspect":       encodePNG(t, 426, 520, color.White),
		"tiny":               encodePNG(t, 20, 20, color.White),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := n.Normalize(input)
			require.NoError(t, err)
			gotW, gotH := decodeDims(t, out)
			require.Equal(t, wantW, gotW)
			require.Equal(t, wantH, gotH)
		})
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	n := NewNormalizer(DefaultSpec())
	_, err := n.Normalize([]byte("not an image"))
	require.Error(t, err)
}

func TestNormalizeCarriesDensity(t *testing.T) {
	n := NewNormalizer(DefaultSpec())
	out, err := n.Normalize(encodePNG(t, 400, 500, color.White))
	require.NoError(t, err)
	// SOI then JFIF APP0 with dpi units.
	require.True(t, bytes.HasPrefix(out, []byte{0xFF, 0xD8, 0xFF, 0xE0}))
	require.Contains(t, string(out[:32]), "JFIF")
}

func TestPlaceholderExactBoxAndDeterminism(t *testing.T) {
	spec := DefaultSpec()
	first := Placeholder(spec)
	second := Placeholder(spec)
	require.Equal(t, first, second)

	wantW, wantH := spec.PixelBox()
	gotW, gotH := decodeDims(t, first)
	require.Equal(t, wantW, gotW)
	require.Equal(t, wantH, gotH)
}

type stubFetcher struct {
	content []byte
	err     error
	calls   int
}

func (f *stubFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.calls++
	return f.content, f.err
}

type ResolverSuite struct {
	suite.Suite
	store *storage.FileStore
	ctx   context.Context
}

func (s *ResolverSuite) SetupTest() {
	store, err := storage.NewFileStore(s.T().TempDir(), "/static/storage", nil)
	s.Require().NoError(err)
	s.store = store
	s.ctx = context.Background()
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) TestDirectBytesWin() {
	fetcher := &stubFetcher{content: []byte("remote")}
	r := NewResolver(s.store, fetcher, DefaultSpec())

	res := r.Resolve(s.ctx, domain.CitizenRecord{ID: "C1", PhotoURL: "http://example/p.jpg"}, []byte("direct"))
	s.Equal(SourceBytes, res.Kind)
	s.Equal([]byte("direct"), res.Bytes)
	s.Zero(fetcher.calls)
}

func (s *ResolverSuite) TestStoredAssetBeforeRemote() {
	stored, err := s.store.Store(s.ctx, []byte("stored photo"), storage.CategoryPhoto, "citizen_C1_processed", "jpg")
	s.Require().NoError(err)

	fetcher := &stubFetcher{content: []byte("remote")}
	r := NewResolver(s.store, fetcher, DefaultSpec())

	res := r.Resolve(s.ctx, domain.CitizenRecord{
		ID:                 "C1",
		ProcessedPhotoPath: stored.RelPath,
		PhotoURL:           "http://example/p.jpg",
	}, nil)
	s.Equal(SourceStored, res.Kind)
	s.Equal([]byte("stored photo"), res.Bytes)
	s.Zero(fetcher.calls)
}

func (s *ResolverSuite) TestRemoteFetch() {
	fetcher := &stubFetcher{content: []byte("remote photo")}
	r := NewResolver(s.store, fetcher, DefaultSpec())

	res := r.Resolve(s.ctx, domain.CitizenRecord{ID: "C1", PhotoURL: "http://example/p.jpg"}, nil)
	s.Equal(SourceRemote, res.Kind)
	s.Equal(1, fetcher.calls)
}

func (s *ResolverSuite) TestFallsThroughToPlaceholder() {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	r := NewResolver(s.store, fetcher, DefaultSpec())

	res := r.Resolve(s.ctx, domain.CitizenRecord{
		ID:                 "C1",
		ProcessedPhotoPath: "photos/gone.jpg",
		PhotoURL:           "http://example/p.jpg",
	}, nil)
	s.True(res.Placeholder())
	s.Error(res.Err)
	s.NotEmpty(res.Bytes)
}

func (s *ResolverSuite) TestNoSourceAtAllIsPlaceholder() {
	r := NewResolver(s.store, &stubFetcher{}, DefaultSpec())
	res := r.Resolve(s.ctx, domain.CitizenRecord{ID: "C1"}, nil)
	s.True(res.Placeholder())
	s.NoError(res.Err)
}

type ManagerSuite struct {
	suite.Suite
	store   *storage.FileStore
	fetcher *stubFetcher
	mgr     *Manager
	ctx     context.Context
}

func (s *ManagerSuite) SetupTest() {
	store, err := storage.NewFileStore(s.T().TempDir(), "/static/storage", nil)
	s.Require().NoError(err)
	s.store = store
	s.fetcher = &stubFetcher{}
	spec := DefaultSpec()
	s.mgr = NewManager(store, NewResolver(store, s.fetcher, spec), NewNormalizer(spec), logger.NewNop()).
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) })
	s.ctx = context.Background()
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) TestRefreshStoresPair() {
	asset, err := s.mgr.Refresh(s.ctx, domain.CitizenRecord{ID: "C1"}, encodePNG(s.T(), 600, 700, color.White))
	s.Require().NoError(err)
	s.False(asset.Placeholder)
	s.True(s.store.Exists(asset.OriginalPath))
	s.True(s.store.Exists(asset.ProcessedPath))
	s.NotEmpty(asset.ContentHash)

	processed, err := s.store.Read(asset.ProcessedPath)
	s.Require().NoError(err)
	w, h := decodeDims(s.T(), processed)
	s.Equal(213, w)
	s.Equal(260, h)
}

func (s *ManagerSuite) TestRefreshPurgesOldAssets() {
	first, err := s.mgr.Refresh(s.ctx, domain.CitizenRecord{ID: "C1"}, encodePNG(s.T(), 600, 700, color.White))
	s.Require().NoError(err)
	second, err := s.mgr.Refresh(s.ctx, domain.CitizenRecord{ID: "C1"}, encodePNG(s.T(), 500, 900, color.Black))
	s.Require().NoError(err)

	s.NotEqual(first.ProcessedPath, second.ProcessedPath)
	s.False(s.store.Exists(first.OriginalPath))
	s.False(s.store.Exists(first.ProcessedPath))
	s.True(s.store.Exists(second.ProcessedPath))
}

func (s *ManagerSuite) TestEnsureProcessedReusesExisting() {
	asset, err := s.mgr.Refresh(s.ctx, domain.CitizenRecord{ID: "C1"}, encodePNG(s.T(), 600, 700, color.White))
	s.Require().NoError(err)

	reused, err := s.mgr.EnsureProcessed(s.ctx, domain.CitizenRecord{
		ID:                 "C1",
		ProcessedPhotoPath: asset.ProcessedPath,
	}, false)
	s.Require().NoError(err)
	s.Equal(asset.ProcessedPath, reused.ProcessedPath)
	s.Zero(s.fetcher.calls)
}

func (s *ManagerSuite) TestEnsureProcessedPlaceholderWhenNothingAvailable() {
	asset, err := s.mgr.EnsureProcessed(s.ctx, domain.CitizenRecord{ID: "C2"}, false)
	s.Require().NoError(err)
	s.True(asset.Placeholder)
	s.True(s.store.Exists(asset.ProcessedPath))
}

func (s *ManagerSuite) TestUndecodableSourceDegradesToPlaceholder() {
	s.fetcher.content = []byte("corrupt image bytes")
	asset, err := s.mgr.Refresh(s.ctx, domain.CitizenRecord{ID: "C3", PhotoURL: "http://example/p.jpg"}, nil)
	s.Require().NoError(err)
	s.True(asset.Placeholder)
}
