package main

import (
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/cvsearch/internal/config"
	"github.com/hyperjump/cvsearch/internal/models"
)

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after keywords are moved first",
			args:     []string{"python, django", "-top", "5"},
			expected: []string{"-top", "5", "python, django"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-algorithm", "bm", "golang"},
			expected: []string{"-algorithm", "bm", "golang"},
		},
		{
			name:     "keywords only returns unchanged",
			args:     []string{"golang"},
			expected: []string{"golang"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"python", "django", "-output", "json"},
			expected: []string{"-output", "json", "python", "django"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("searchArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFlagSet(t *testing.T) {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.Int("top", 0, "")
	fs.String("algorithm", "", "")
	if err := fs.Parse([]string{"--top", "0"}); err != nil {
		t.Fatal(err)
	}
	if !flagSet(fs, "top") {
		t.Error("--top 0 should count as set")
	}
	if flagSet(fs, "algorithm") {
		t.Error("--algorithm was not given")
	}
}

func TestBuildKeywords(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single keyword", []string{"python"}, "python"},
		{"separate arguments", []string{"python", "django"}, "python,django"},
		{"quoted list", []string{"python, django"}, "python, django"},
		{"trailing commas", []string{"python,", "django,"}, "python,django"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", ","}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildKeywords(tt.args)
			if got != tt.expected {
				t.Errorf("buildKeywords(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func directResponse(called *bool) func() (*models.SearchResponse, error) {
	return func() (*models.SearchResponse, error) {
		*called = true
		return &models.SearchResponse{Algorithm: "direct"}, nil
	}
}

func TestSearchWithFallback(t *testing.T) {
	query := &models.SearchQuery{Keywords: "golang"}

	t.Run("no server searches directly", func(t *testing.T) {
		var called bool
		resp, err := searchWithFallback("", query, directResponse(&called))
		if err != nil || !called || resp.Algorithm != "direct" {
			t.Errorf("resp=%+v err=%v called=%v", resp, err, called)
		}
	})

	t.Run("reachable server is used", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/search" || r.Method != http.MethodPost {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var q models.SearchQuery
			_ = json.NewDecoder(r.Body).Decode(&q)
			_ = json.NewEncoder(w).Encode(models.SearchResponse{Query: q.Keywords, Algorithm: "kmp", Total: 1})
		}))
		defer srv.Close()

		var called bool
		resp, err := searchWithFallback(srv.URL, query, directResponse(&called))
		if err != nil {
			t.Fatal(err)
		}
		if called || resp.Query != "golang" || resp.Total != 1 {
			t.Errorf("resp=%+v called=%v", resp, called)
		}
	})

	t.Run("server errors are not retried", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid argument: unknown algorithm \"regex\""}`))
		}))
		defer srv.Close()

		var called bool
		_, err := searchWithFallback(srv.URL, query, directResponse(&called))
		if err == nil || called {
			t.Fatalf("err=%v called=%v", err, called)
		}
		if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "unknown algorithm") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("unreachable server falls back", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		var called bool
		resp, err := searchWithFallback(addr, query, directResponse(&called))
		if err != nil || !called || resp.Algorithm != "direct" {
			t.Errorf("resp=%+v err=%v called=%v", resp, err, called)
		}
	})
}

func TestIsUnreachable(t *testing.T) {
	if isUnreachable(errors.New("server returned 500: boom")) {
		t.Error("response errors are not transport errors")
	}
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	err := doJSON(http.MethodGet, addr+"/health", nil, nil)
	if err == nil || !isUnreachable(err) {
		t.Errorf("closed server: err = %v", err)
	}
}

func TestDoJSON_plainErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer srv.Close()
	err := doJSON(http.MethodGet, srv.URL, nil, nil)
	if err == nil || err.Error() != "server returned 502: gateway exploded" {
		t.Errorf("err = %v", err)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  database_path: "applicants.db"
search:
  default_algorithm: bm
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug || cfg.Search.DefaultAlgorithm != "bm" {
		t.Errorf("unexpected config: debug=%v algorithm=%q", cfg.Debug, cfg.Search.DefaultAlgorithm)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "./applicants.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "applicants.db") {
		t.Errorf("database path should be relative to the config file: %s", cfg.Storage.DatabasePath)
	}
}

func TestLoadConfig_invalidAlgorithm(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("search:\n  default_algorithm: regex\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadConfig(configPath); err == nil {
		t.Error("expected error for unknown default algorithm")
	}
}

func TestAddIngestDirectories(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	existing := filepath.Join(dir, "cvs")
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "applicants.db")
	cfg.Ingest.Directories = []string{existing}

	added := filepath.Join(dir, "incoming")
	if err := addIngestDirectories(cfg, configPath, []string{existing, added, added + "/"}); err != nil {
		t.Fatal(err)
	}
	want := []string{existing, added}
	if !reflect.DeepEqual(cfg.Ingest.Directories, want) {
		t.Errorf("Directories = %v, want %v", cfg.Ingest.Directories, want)
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.Ingest.Directories, want) {
		t.Errorf("saved Directories = %v, want %v", loaded.Ingest.Directories, want)
	}
}
