// Package main is the Beacon CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/commonweal/beacon/internal/config"
	"github.com/commonweal/beacon/internal/geo"
	"github.com/commonweal/beacon/internal/index"
	"github.com/commonweal/beacon/internal/indexer"
	"github.com/commonweal/beacon/internal/models"
	"github.com/commonweal/beacon/internal/query"
	"github.com/commonweal/beacon/internal/ranking"
	"github.com/commonweal/beacon/internal/search"
	"github.com/commonweal/beacon/internal/server"
	"github.com/commonweal/beacon/internal/storage"
	"github.com/commonweal/beacon/internal/taxonomy"
	"github.com/commonweal/beacon/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/beacon/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used instead.
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
	case "seed":
		runSeed()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("beacon version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Reload collections when the seed file changes on disk.
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := components.Taxonomy.Watch(watchCtx); err != nil {
		logger.Warn("collections watch disabled", zap.Error(err))
	}

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Storage,
		components.Index,
		components.Taxonomy,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
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

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	category := fs.String("category", "", "category slugs, comma-separated")
	persona := fs.String("persona", "", "persona slugs, comma-separated")
	typ := fs.String("type", "", "service type filter")
	waitTime := fs.String("wait-time", "", "maximum wait time (one_week .. longer)")
	isFree := fs.Bool("free", false, "only free services")
	lat := fs.Float64("lat", 0, "search origin latitude")
	lon := fs.Float64("lon", 0, "search origin longitude")
	radius := fs.Float64("radius", 0, "search radius in miles (requires -lat/-lon)")
	order := fs.String("order", "relevance", "sort order: relevance or distance")
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", 10, "results per page")
	_ = fs.Parse(os.Args[2:])

	queryStr := strings.TrimSpace(strings.Join(fs.Args(), " "))

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	req := &models.SearchRequest{
		Query:    queryStr,
		Type:     models.ServiceType(*typ),
		Category: *category,
		Persona:  *persona,
		WaitTime: models.WaitTime(*waitTime),
		Order:    models.SortOrder(*order),
		Page:     page,
		PerPage:  *perPage,
	}
	if *isFree {
		v := true
		req.IsFree = &v
	}
	if *lat != 0 || *lon != 0 {
		req.Location = &geo.Coordinate{Lat: *lat, Lon: *lon}
		if *radius > 0 {
			r := *radius
			req.Radius = &r
		}
	}

	result, err := components.Engine.Search(context.Background(), req, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d result(s), page %d of %d\n\n", result.Meta.Total, result.Meta.CurrentPage, result.Meta.LastPage)
	for _, r := range result.Data {
		line := fmt.Sprintf("%-36s  %-8s  score %.2f", r.ID, r.Type, r.Score)
		if r.DistanceMiles != nil {
			line += fmt.Sprintf("  %.1f mi", *r.DistanceMiles)
		}
		fmt.Println(line)
		fmt.Printf("  %s\n", r.Name)
		if r.Intro != "" {
			fmt.Printf("  %s\n", utils.Truncate(r.Intro, 100))
		}
		fmt.Println()
	}
}

func runSeed() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: beacon seed [flags] <services.yaml>")
		os.Exit(1)
	}
	seedPath := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	n, err := components.Indexer.SeedFromFile(context.Background(), seedPath)
	if err != nil {
		fmt.Printf("Seeding failed after %d service(s): %v\n", n, err)
		os.Exit(1)
	}
	fmt.Printf("Seeded %d service(s) from %s\n", n, seedPath)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	serviceCount, err := components.Storage.CountServices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count services failed: %v\n", err)
		os.Exit(1)
	}
	indexCount, err := components.Index.DocCount()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Index doc count failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("services:          %d\n", serviceCount)
	fmt.Printf("indexed:           %d\n", indexCount)
	fmt.Printf("database_path:     %s\n", cfg.Storage.DatabasePath)
	fmt.Printf("bleve_index_path:  %s\n", cfg.Storage.BleveIndexPath)
	fmt.Printf("collections_path:  %s\n", cfg.Storage.CollectionsPath)
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Index    index.ServiceIndex
	Taxonomy *taxonomy.FileStore
	Engine   *search.Engine
	Indexer  *indexer.Indexer
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Taxonomy != nil {
		c.Taxonomy.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	taxOpts := []taxonomy.FileStoreOption{}
	if debug && logger != nil {
		taxOpts = append(taxOpts, taxonomy.WithLogger(logger))
	}
	tax, err := taxonomy.NewFileStore(cfg.Storage.CollectionsPath, taxOpts...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}

	svcIndex, err := index.NewBleveIndex(cfg.Storage.BleveIndexPath, store)
	if err != nil {
		tax.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}

	compiler := query.NewCompiler(taxonomy.NewResolver(tax), cfg.Search.DefaultRadiusMiles)
	ranker := ranking.NewRanker(ranking.NewScorer(&cfg.Ranking))
	engine, err := search.NewEngine(compiler, svcIndex, ranker, &cfg.Search, logger)
	if err != nil {
		_ = svcIndex.Close()
		tax.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	idxOpts := []indexer.Option{}
	if debug && logger != nil {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	idx := indexer.NewIndexer(store, svcIndex, tax, idxOpts...)

	return &Components{
		Storage:  store,
		Index:    svcIndex,
		Taxonomy: tax,
		Engine:   engine,
		Indexer:  idx,
	}, nil
}

func printUsage() {
	fmt.Println(`beacon - Community services directory search engine

Usage:
  beacon server [flags]            Start the HTTP API server
  beacon search [flags] [query]    Search services from the command line
  beacon seed [flags] <file>       Load services from a YAML seed file
  beacon status [flags]            Show storage and index status
  beacon version                   Show version
  beacon help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/beacon/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string     Config file path
  --category string   Category slugs, comma-separated
  --persona string    Persona slugs, comma-separated
  --type string       Service type filter
  --wait-time string  Maximum wait time (one_week, two_weeks, three_weeks, month, longer)
  --free              Only free services
  --lat, --lon float  Search origin coordinate
  --radius float      Search radius in miles (default 15 when a location is set)
  --order string      relevance or distance (default: relevance)
  --page, --per-page  Pagination

Examples:
  beacon server
  beacon search housing advice
  beacon search --category addiction --free
  beacon search --lat 51.5 --lon -0.12 --order distance
  beacon seed services.yaml
  beacon status`)
}
