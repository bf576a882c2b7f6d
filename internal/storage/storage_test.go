package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardforge/pkg/sentinel"
)

type FileStoreSuite struct {
	suite.Suite
	store *FileStore
	dir   string
	ctx   context.Context
}

func (s *FileStoreSuite) SetupTest() {
	s.dir = s.T().TempDir()
	store, err := NewFileStore(s.dir, "/static/storage", nil)
	s.Require().NoError(err)
	s.store = store
	s.ctx = context.Background()
}

func TestFileStoreSuite(t *testing.T) {
	suite.Run(t, new(FileStoreSuite))
}

func (s *FileStoreSuite) TestParseCategory() {
	s.Run("accepts known categories", func() {
		for _, name := range []string{"document", "photo", "temp", " Photo "} {
			_, err := ParseCategory(name)
			s.NoError(err, name)
		}
	})

	s.Run("rejects unknown category", func() {
		_, err := ParseCategory("archive")
		s.Error(err)
	})
}

func (s *FileStoreSuite) TestStoreAndRead() {
	stored, err := s.store.Store(s.ctx, []byte("front face"), CategoryDocument, "license_L1_front", "png")
	s.Require().NoError(err)
	s.False(stored.Deduplicated)
	s.Equal("/static/storage/"+filepath.ToSlash(stored.RelPath), stored.URL)

	content, err := s.store.Read(stored.RelPath)
	s.Require().NoError(err)
	s.Equal([]byte("front face"), content)
	s.True(s.store.Exists(stored.RelPath))
}

// TestDedup verifies the write-once contract: identical bytes resolve to
// the same path and leave exactly one file on disk.
func (s *FileStoreSuite) TestDedup() {
	first, err := s.store.Store(s.ctx, []byte("same bytes"), CategoryPhoto, "citizen_C1_processed", "jpg")
	s.Require().NoError(err)
	second, err := s.store.Store(s.ctx, []byte("same bytes"), CategoryPhoto, "citizen_C1_processed", "jpg")
	s.Require().NoError(err)

	s.Equal(first.RelPath, second.RelPath)
	s.False(first.Deduplicated)
	s.True(second.Deduplicated)

	entries, err := os.ReadDir(filepath.Join(s.dir, "photos"))
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *FileStoreSuite) TestDistinctContentDistinctFiles() {
	first, err := s.store.Store(s.ctx, []byte("photo v1"), CategoryPhoto, "citizen_C1_processed", "jpg")
	s.Require().NoError(err)
	second, err := s.store.Store(s.ctx, []byte("photo v2"), CategoryPhoto, "citizen_C1_processed", "jpg")
	s.Require().NoError(err)
	s.NotEqual(first.RelPath, second.RelPath)
}

func (s *FileStoreSuite) TestUnknownCategoryFailsFast() {
	_, err := s.store.Store(s.ctx, []byte("x"), Category("archive"), "stem", "bin")
	s.Error(err)
}

func (s *FileStoreSuite) TestReadMissingIsNotFound() {
	_, err := s.store.Read("licenses/never_stored.png")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *FileStoreSuite) TestCleanupForEntity() {
	keepFile, err := s.store.Store(s.ctx, []byte("keep"), CategoryDocument, "license_L1_front", "png")
	s.Require().NoError(err)
	_, err = s.store.Store(s.ctx, []byte("drop"), CategoryDocument, "license_L1_back", "png")
	s.Require().NoError(err)
	other, err := s.store.Store(s.ctx, []byte("other license"), CategoryDocument, "license_L2_front", "png")
	s.Require().NoError(err)

	removed, err := s.store.CleanupForEntity(CategoryDocument, "license_L1_", []string{keepFile.RelPath})
	s.Require().NoError(err)
	s.Equal(1, removed)
	s.True(s.store.Exists(keepFile.RelPath))
	s.True(s.store.Exists(other.RelPath))
}

func (s *FileStoreSuite) TestCleanupTemp() {
	old, err := s.store.Store(s.ctx, []byte("stale"), CategoryTemp, "scratch_a", "bin")
	s.Require().NoError(err)
	fresh, err := s.store.Store(s.ctx, []byte("fresh"), CategoryTemp, "scratch_b", "bin")
	s.Require().NoError(err)

	stale := time.Now().Add(-48 * time.Hour)
	s.Require().NoError(os.Chtimes(filepath.Join(s.dir, old.RelPath), stale, stale))

	removed, err := s.store.CleanupTemp(24 * time.Hour)
	s.Require().NoError(err)
	s.Equal(1, removed)
	s.False(s.store.Exists(old.RelPath))
	s.True(s.store.Exists(fresh.RelPath))
}

func (s *FileStoreSuite) TestStats() {
	_, err := s.store.Store(s.ctx, []byte("doc"), CategoryDocument, "license_L1_front", "png")
	s.Require().NoError(err)
	_, err = s.store.Store(s.ctx, []byte("photo bytes"), CategoryPhoto, "citizen_C1_processed", "jpg")
	s.Require().NoError(err)

	stats, err := s.store.Stats()
	s.Require().NoError(err)
	s.Equal(1, stats.Files[CategoryDocument])
	s.Equal(1, stats.Files[CategoryPhoto])
	s.Equal(int64(11), stats.Bytes[CategoryPhoto])
}
