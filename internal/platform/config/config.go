package config

import "os"

// Pipeline captures environment-level configuration for the generation
// pipeline. Values are read once at startup so main stays lean; components
// receive the fields they need, not the whole struct.
type Pipeline struct {
	// StorageDir is the root of the content-addressable file store.
	StorageDir string
	// PublicBaseURL prefixes stored relative paths when resolving URLs.
	PublicBaseURL string
	// CountryCode is the ISO 3166-1 alpha-3 issuing country.
	CountryCode string
	// IssuingAuthority appears in signatures, chip data, and PDF metadata.
	IssuingAuthority string
	// DatabaseURL selects the Postgres artifact index when non-empty;
	// otherwise the in-memory index is used.
	DatabaseURL string
}

// FromEnv builds a Pipeline config from environment variables with
// development defaults.
func FromEnv() Pipeline {
	return Pipeline{
		StorageDir:       envOr("CARDFORGE_STORAGE_DIR", "storage"),
		PublicBaseURL:    envOr("CARDFORGE_BASE_URL", "/static/storage"),
		CountryCode:      envOr("CARDFORGE_COUNTRY_CODE", "ZAF"),
		IssuingAuthority: envOr("CARDFORGE_AUTHORITY", "Department of Transport"),
		DatabaseURL:      os.Getenv("CARDFORGE_DATABASE_URL"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
