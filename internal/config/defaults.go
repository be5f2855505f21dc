package config

// DefaultMaxDistance is the fuzzy edit distance used when search.max_distance is unset.
const DefaultMaxDistance = 2

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/cvsearch/data/db/applicants.db"
	}
	if cfg.Search.DefaultAlgorithm == "" {
		cfg.Search.DefaultAlgorithm = "kmp"
	}
	if cfg.Search.DefaultTopN == 0 {
		cfg.Search.DefaultTopN = 10
	}
	if cfg.Search.MaxTopN == 0 {
		cfg.Search.MaxTopN = 100
	}
	if cfg.Search.MaxDistance == nil {
		d := DefaultMaxDistance
		cfg.Search.MaxDistance = &d
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".pdf", ".txt", ".md", ".docx", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Ingest.Directories) > 0 && cfg.Ingest.Recursive == nil {
		t := true
		cfg.Ingest.Recursive = &t
	}
}
