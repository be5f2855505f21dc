// Package main is the cvsearch CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/cvsearch/internal/cli"
	"github.com/hyperjump/cvsearch/internal/config"
	"github.com/hyperjump/cvsearch/internal/extract"
	"github.com/hyperjump/cvsearch/internal/indexer"
	"github.com/hyperjump/cvsearch/internal/models"
	"github.com/hyperjump/cvsearch/internal/search"
	"github.com/hyperjump/cvsearch/internal/server"
	"github.com/hyperjump/cvsearch/internal/storage"
	"github.com/hyperjump/cvsearch/internal/watcher"
	"github.com/hyperjump/cvsearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/cvsearch/config.yaml"

// httpTimeout bounds requests to a running server.
const httpTimeout = 30 * time.Second

var httpClient = &http.Client{Timeout: httpTimeout}

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "ingest":
		runIngest()
	case "list":
		runList()
	case "delete":
		runDelete()
	case "summary":
		runSummary()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("cvsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// fatalf prints to stderr and exits with status 1.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config and initializes components for commands that work on the local store.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		_ = logger.Sync()
		fatalf("Failed to initialize: %v", err)
	}
	components.ConfigPath = resolved
	return cfg, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, ingested files, watcher events)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Ingest.Directories) > 0 {
		watchSvc := watcher.NewWatcher(
			cfg.Ingest.Directories,
			cfg.Ingest.Extensions,
			cfg.Ingest.RecursiveOrDefault(),
			components.Indexer,
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		go watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(components.Engine, components.Indexer, components.Storage, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: cvsearch search [flags] <keywords>\n\n")
	fmt.Fprintf(fs.Output(), "Keywords are separated by commas; separate arguments are separate keywords.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Each keyword is counted exactly first; keywords with no exact occurrence in a CV
are counted again allowing up to search.max_distance typos.

Examples:
  cvsearch search python django
  cvsearch search "python, django, react"           # same as separate arguments
  cvsearch search --algorithm bm --top 5 golang
  cvsearch search --output json kubernetes           # structured JSON for other apps
`)
}

// buildKeywords joins positional args into one comma separated keyword list,
// so "python django" and "python, django" mean the same.
func buildKeywords(args []string) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.Trim(strings.TrimSpace(a), ","); a != "" {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, ",")
}

// searchArgsReorder moves any flags (and their values) that appear after the keywords
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// flagSet reports whether the named flag was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct storage mode)")
	serverURL := fs.String("server", "", "server URL; when unreachable, falls back to direct storage")
	algorithm := fs.String("algorithm", "", "exact matcher: kmp or bm (default from config)")
	topN := fs.Int("top", 0, "number of ranked CVs; 0 prints only the totals (default from config)")
	outputFormat := fs.String("output", "text", "output format: text, compact (one CV per line), or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	keywords := buildKeywords(fs.Args())
	if keywords == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	query := &models.SearchQuery{Keywords: keywords, Algorithm: *algorithm}
	if flagSet(fs, "top") {
		query.TopN = models.IntPtr(*topN)
	}

	response, err := searchWithFallback(*serverURL, query, func() (*models.SearchResponse, error) {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		return components.Engine.Search(context.Background(), query)
	})
	if err != nil {
		fatalf("Search failed: %v", err)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// searchWithFallback searches through the server at serverURL, or runs direct when serverURL is
// empty or the server cannot be reached. Errors returned by a reachable server are not retried.
func searchWithFallback(serverURL string, query *models.SearchQuery, direct func() (*models.SearchResponse, error)) (*models.SearchResponse, error) {
	if serverURL == "" {
		return direct()
	}
	var response models.SearchResponse
	err := doJSON(http.MethodPost, serverURL+"/api/v1/search", query, &response)
	if err == nil {
		return &response, nil
	}
	if !isUnreachable(err) {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "Server %s unreachable, searching local store\n", serverURL)
	return direct()
}

// isUnreachable reports whether err came from the transport rather than from a server response.
func isUnreachable(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// doJSON sends in (when non-nil) as JSON and decodes a 2xx response body into out.
func doJSON(method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	id := fs.String("id", "", "applicant ID to attach the CV to (single file only)")
	first := fs.String("first-name", "", "applicant first name (single file only; default from file name)")
	last := fs.String("last-name", "", "applicant last name (single file only)")
	role := fs.String("role", "", "role applied for (single file only)")
	watch := fs.Bool("watch", false, "add ingested directories to ingest.directories in the config file")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: cvsearch ingest [flags] <file-or-directory>...")
		os.Exit(1)
	}
	cfg, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()

	failed := false
	var watched []string
	for _, path := range fs.Args() {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to stat path: %v\n", err)
			failed = true
			continue
		}
		if info.IsDir() {
			n, err := components.Indexer.IndexDirectory(ctx, path)
			fmt.Printf("Ingested %s from %s\n", utils.Plural(n, "CV"), path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Some files failed:\n%v\n", err)
				failed = true
			}
			if *watch {
				watched = append(watched, path)
			}
			continue
		}
		applicant, detail, err := components.Indexer.RegisterApplicant(ctx, &models.ApplicantInput{
			ID:        *id,
			FirstName: *first,
			LastName:  *last,
			Role:      *role,
			CVPath:    path,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingesting %s failed: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("Ingested %s for %s (%s)\n", detail.ID, applicant.FullName(), applicant.ID)
	}
	if len(watched) > 0 {
		if err := addIngestDirectories(cfg, components.ConfigPath, watched); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to update config: %v\n", err)
			failed = true
		} else {
			fmt.Printf("Server will watch %s\n", strings.Join(cfg.Ingest.Directories, ", "))
		}
	}
	if failed {
		os.Exit(1)
	}
}

// addIngestDirectories appends dirs (as absolute paths) to cfg.Ingest.Directories,
// skipping ones already listed, and saves cfg to path.
func addIngestDirectories(cfg *config.Config, path string, dirs []string) error {
	seen := make(map[string]bool, len(cfg.Ingest.Directories))
	for _, d := range cfg.Ingest.Directories {
		seen[filepath.Clean(d)] = true
	}
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return err
		}
		if !seen[abs] {
			seen[abs] = true
			cfg.Ingest.Directories = append(cfg.Ingest.Directories, abs)
		}
	}
	return config.Save(path, cfg)
}

// listPage mirrors the server's paged applicant list.
type listPage struct {
	Applicants []*models.Applicant `json:"applicants"`
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "", "server URL (empty = use direct storage)")
	offset := fs.Int("offset", 0, "number of applicants to skip")
	limit := fs.Int("limit", 50, "maximum number of applicants")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	if *offset < 0 || *limit <= 0 {
		fatalf("--offset must be >= 0 and --limit > 0")
	}
	var applicants []*models.Applicant
	if *serverURL != "" {
		var page listPage
		endpoint := fmt.Sprintf("%s/api/v1/applicants?offset=%d&limit=%d", *serverURL, *offset, *limit)
		err = doJSON(http.MethodGet, endpoint, nil, &page)
		applicants = page.Applicants
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		applicants, err = components.Storage.ListApplicants(context.Background(), *offset, *limit)
	}
	if err != nil {
		fatalf("List failed: %v", err)
	}
	if err := cli.WriteApplicants(os.Stdout, applicants, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = use direct storage)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: cvsearch delete [flags] <applicant-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)

	if *serverURL != "" {
		if err := doJSON(http.MethodDelete, *serverURL+"/api/v1/applicants/"+url.PathEscape(id), nil, nil); err != nil {
			fatalf("Deletion failed: %v", err)
		}
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		if err := components.Indexer.DeleteApplicant(context.Background(), id); err != nil {
			fatalf("Deletion failed: %v", err)
		}
	}
	fmt.Printf("Applicant deleted: %s\n", id)
}

func runSummary() {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: cvsearch summary [flags] <applicant-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	var summary *models.ApplicantSummary
	if *serverURL != "" {
		summary = &models.ApplicantSummary{}
		err = doJSON(http.MethodGet, *serverURL+"/api/v1/applicants/"+url.PathEscape(id)+"/summary", nil, summary)
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		summary, err = components.Indexer.Summary(context.Background(), id)
	}
	if err != nil {
		fatalf("Summary failed: %v", err)
	}
	if err := cli.WriteSummary(os.Stdout, summary, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	var status *models.Status
	if *serverURL != "" {
		status = &models.Status{}
		err = doJSON(http.MethodGet, *serverURL+"/api/v1/status", nil, status)
	} else {
		cfg, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		status, err = server.CollectStatus(context.Background(), components.Storage, cfg)
	}
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// Components holds initialized services.
type Components struct {
	Storage    storage.Storage
	Engine     *search.Engine
	Indexer    *indexer.Indexer
	ConfigPath string
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	engine := search.NewEngine(store, &cfg.Search, search.WithLogger(logger))

	idxOpts := []indexer.IndexerOption{}
	if debug && logger != nil {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	idx := indexer.NewIndexer(store, extract.NewExtractor(), &cfg.Ingest, idxOpts...)

	return &Components{
		Storage: store,
		Engine:  engine,
		Indexer: idx,
	}, nil
}

func printUsage() {
	fmt.Println(`cvsearch - Keyword search over applicant CVs

Usage:
  cvsearch server [flags]                Start the HTTP server (and watch ingest directories)
  cvsearch search [flags] <keywords>     Rank CVs by keyword occurrences
  cvsearch ingest [flags] <path>...      Ingest CV files or directories
  cvsearch list [flags]                  List stored applicants
  cvsearch delete [flags] <id>           Delete an applicant and their CVs
  cvsearch summary [flags] <id>          Show the sections of an applicant's CVs
  cvsearch status [flags]                Show store and search settings
  cvsearch version                       Show version
  cvsearch help                          Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/cvsearch/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string     Config file path (for direct storage mode)
  --server string     Server URL. When empty or unreachable the local store is searched.
  --algorithm string  Exact matcher: kmp or bm (default from config)
  --top int           Number of ranked CVs (default from config)
  --output string     Output format: text, compact or json (default: text)

Ingest Flags:
  --config string      Config file path
  --id string          Attach the CV to an existing applicant
  --first-name string  Applicant first name (default: derived from the file name)
  --last-name string   Applicant last name
  --role string        Role applied for
  --watch              Add ingested directories to the config so the server watches them

List, Delete, Summary and Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (empty = use direct storage)
  --offset, --limit  Paging (list only)
  --output string    Output format: text or json (list, summary and status)

Examples:
  cvsearch server
  cvsearch ingest ~/cvs
  cvsearch ingest --first-name Ada --last-name Lovelace --role "Backend Engineer" ada.pdf
  cvsearch search python django
  cvsearch search --algorithm bm --top 5 "react, typescript"
  cvsearch search --server http://localhost:8080 --output json golang
  cvsearch summary 6f1c2d3e-0000-4000-8000-000000000000
  cvsearch status --output json`)
}
