package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"cardforge/internal/assets"
	"cardforge/internal/compliance"
	"cardforge/internal/domain"
	"cardforge/internal/encode"
	"cardforge/internal/generator"
	"cardforge/internal/photo"
	"cardforge/internal/platform/config"
	"cardforge/internal/platform/logger"
	"cardforge/internal/platform/metrics"
	"cardforge/internal/render"
	"cardforge/internal/storage"
)

// request is the on-disk job format: the two projections plus an optional
// raw photo file that overrides every other photo source.
type request struct {
	License   domain.LicenseRecord `json:"license"`
	Citizen   domain.CitizenRecord `json:"citizen"`
	PhotoFile string               `json:"photo_file,omitempty"`
}

// main wires the pipeline dependencies and runs one job: generate, preview,
// temp cleanup or storage stats. Business logic lives in internal packages.
func main() {
	_ = godotenv.Load()

	requestPath := flag.String("request", "", "path to a JSON generation request")
	force := flag.Bool("force", false, "regenerate even when a current artifact set exists")
	preview := flag.String("preview", "", "render one side in memory (front, back, watermark) instead of generating")
	out := flag.String("out", "preview.png", "output path for -preview")
	cleanupTemp := flag.Duration("cleanup-temp", 0, "remove temp files older than this duration and exit")
	stats := flag.Bool("stats", false, "print storage stats and exit")
	flag.Parse()

	cfg := config.FromEnv()
	log, err := logger.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	m := metrics.New(prometheus.DefaultRegisterer)
	files, err := storage.NewFileStore(cfg.StorageDir, cfg.PublicBaseURL, m)
	if err != nil {
		log.Fatal("open file store", zap.Error(err))
	}

	switch {
	case *cleanupTemp > 0:
		removed, err := files.CleanupTemp(*cleanupTemp)
		if err != nil {
			log.Fatal("temp cleanup", zap.Error(err))
		}
		log.Info("temp cleanup complete", zap.Int("removed", removed))
		return
	case *stats:
		s, err := files.Stats()
		if err != nil {
			log.Fatal("storage stats", zap.Error(err))
		}
		printJSON(log, s)
		return
	}

	if *requestPath == "" {
		fmt.Fprintln(os.Stderr, "usage: cardforge -request job.json [-force] [-preview side -out file]")
		os.Exit(2)
	}
	req, err := loadRequest(*requestPath)
	if err != nil {
		log.Fatal("load request", zap.String("path", *requestPath), zap.Error(err))
	}
	req.Force = *force

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	artifacts, closeStore, err := openArtifactStore(ctx, cfg)
	if err != nil {
		log.Fatal("open artifact store", zap.Error(err))
	}
	defer closeStore()

	svc, err := buildService(cfg, files, artifacts, m, log)
	if err != nil {
		log.Fatal("build pipeline", zap.Error(err))
	}

	if *preview != "" {
		side, err := generator.ParseSide(*preview)
		if err != nil {
			log.Fatal("parse side", zap.Error(err))
		}
		content, err := svc.Preview(ctx, req, side)
		if err != nil {
			log.Fatal("render preview", zap.Error(err))
		}
		if err := os.WriteFile(*out, content, 0o644); err != nil {
			log.Fatal("write preview", zap.String("path", *out), zap.Error(err))
		}
		log.Info("preview written", zap.String("side", *preview), zap.String("path", *out))
		return
	}

	result, err := svc.Generate(ctx, req)
	if err != nil {
		var stage *generator.StageError
		if errors.As(err, &stage) {
			log.Fatal("generation failed",
				zap.String("license_id", req.License.ID),
				zap.String("stage", string(stage.Stage)),
				zap.Error(stage.Err))
		}
		log.Fatal("generation failed", zap.String("license_id", req.License.ID), zap.Error(err))
	}
	printJSON(log, result)
}

func loadRequest(path string) (generator.Request, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return generator.Request{}, err
	}
	var job request
	if err := json.Unmarshal(content, &job); err != nil {
		return generator.Request{}, fmt.Errorf("parse request: %w", err)
	}
	req := generator.Request{License: job.License, Citizen: job.Citizen}
	if job.PhotoFile != "" {
		raw, err := os.ReadFile(job.PhotoFile)
		if err != nil {
			return generator.Request{}, fmt.Errorf("read photo file: %w", err)
		}
		req.RawPhoto = raw
	}
	return req, nil
}

// openArtifactStore selects Postgres when a database URL is configured and
// falls back to the in-memory index otherwise.
func openArtifactStore(ctx context.Context, cfg config.Pipeline) (generator.ArtifactStore, func(), error) {
	if cfg.DatabaseURL == "" {
		return generator.NewMemoryStore(), func() {}, nil
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	store := generator.NewPostgres(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}

func buildService(cfg config.Pipeline, files *storage.FileStore, artifacts generator.ArtifactStore, m *metrics.Metrics, log *zap.Logger) (*generator.Exclusive, error) {
	fonts, err := assets.NewFontProvider(render.FontDPI)
	if err != nil {
		return nil, err
	}
	spec := photo.DefaultSpec()
	photos := photo.NewManager(
		files,
		photo.NewResolver(files, photo.NewHTTPFetcher(30*time.Second), spec),
		photo.NewNormalizer(spec),
		log,
	)
	svc := generator.NewService(
		files,
		artifacts,
		photos,
		encode.NewEncoder(cfg.CountryCode, cfg.IssuingAuthority),
		render.NewRenderer(fonts, cfg.CountryCode, cfg.IssuingAuthority),
		compliance.NewValidator(cfg.CountryCode, cfg.IssuingAuthority),
		m,
		log,
	)
	return generator.NewExclusive(svc), nil
}

func printJSON(log *zap.Logger, v any) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal("encode output", zap.Error(err))
	}
	fmt.Println(string(encoded))
}
