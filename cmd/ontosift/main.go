// Package main is the ontosift CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/phenolab/ontosift/internal/agent"
	"github.com/phenolab/ontosift/internal/batch"
	"github.com/phenolab/ontosift/internal/cli"
	"github.com/phenolab/ontosift/internal/config"
	"github.com/phenolab/ontosift/internal/embedding"
	"github.com/phenolab/ontosift/internal/extract"
	"github.com/phenolab/ontosift/internal/funnel"
	"github.com/phenolab/ontosift/internal/history"
	"github.com/phenolab/ontosift/internal/index"
	"github.com/phenolab/ontosift/internal/models"
	"github.com/phenolab/ontosift/internal/ranking"
	"github.com/phenolab/ontosift/internal/server"
	"github.com/phenolab/ontosift/internal/vocab"
	"github.com/phenolab/ontosift/internal/watcher"
	"github.com/phenolab/ontosift/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ontosift/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory so running from the project dir
// uses the project's config.
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
	case "resolve":
		runResolve()
	case "batch":
		runBatch()
	case "term":
		runTerm()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("ontosift version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds the wired resolution stack.
type Components struct {
	Store    *vocab.Store
	History  *history.Store
	Index    *index.Client
	Embedder embedding.Embedder
	Funnel   *funnel.Funnel
}

// Close releases component resources.
func (c *Components) Close() {
	if c.History != nil {
		_ = c.History.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := vocab.NewStore(cfg.Vocabulary.SnapshotPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}

	hist, err := history.NewStore(cfg.History.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}

	var embedder embedding.Embedder
	if cfg.Embedding.ModelPath != "" {
		onnxEmbedder, embErr := embedding.NewONNXEmbedder(
			cfg.Embedding.ModelPath,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
			cfg.Embedding.CacheSize,
		)
		if embErr != nil {
			logger.Warn("local embedder unavailable, hybrid queries run keyword-only", zap.Error(embErr))
		} else {
			embedder = onnxEmbedder
		}
	}

	var indexClient *index.Client
	var indexTier funnel.Strategy
	if cfg.Index.Enabled {
		indexClient = index.NewClient(index.Config{
			URL:           cfg.Index.URL,
			APIKey:        cfg.Index.APIKey,
			IndexUID:      cfg.Index.IndexUID,
			EmbedderName:  cfg.Index.Embedder,
			SemanticRatio: cfg.Index.SemanticRatio,
		}, nil)
		indexTier = funnel.NewIndexStrategy(indexClient, embedder)
	}

	var agentTier funnel.Strategy
	if cfg.Agent.Enabled {
		if indexClient == nil {
			logger.Warn("agent enabled without index; extracted terms cannot be mapped, tier disabled")
		} else {
			resolver, agentErr := agent.NewResolver(agent.Config{
				BaseURL:        cfg.Agent.BaseURL,
				Model:          cfg.Agent.Model,
				APIKey:         cfg.Agent.APIKey,
				ResultsPerTerm: cfg.Agent.ResultsPerTerm,
			}, indexClient, embedder, logger)
			if agentErr != nil {
				logger.Warn("agent unavailable, tier disabled", zap.Error(agentErr))
			} else {
				agentTier = funnel.NewAgentStrategy(resolver)
			}
		}
	}

	var raritySource ranking.RaritySource
	switch cfg.Resolve.Rarity.Mode {
	case "tiers":
		raritySource = ranking.NewTierSource(cfg.Resolve.Rarity.Tiers)
	case "vocab":
		raritySource = ranking.NewVocabRarity(store.Snapshot().Concepts(), cfg.Resolve.Rarity.MaxBoost)
	}
	ranker := ranking.NewRanker(raritySource, cfg.Resolve.MustHave)

	f := funnel.New(
		agentTier,
		indexTier,
		funnel.NewScanStrategy(store),
		store,
		ranker,
		funnel.Config{
			AgentTimeout:    time.Duration(cfg.Agent.TimeoutSeconds) * time.Second,
			IndexTimeout:    time.Duration(cfg.Index.TimeoutSeconds) * time.Second,
			MergePolicy:     funnel.MergePolicy(cfg.Resolve.MergePolicy),
			SupplementIndex: cfg.Resolve.SupplementIndex,
		},
		logger,
	)

	return &Components{
		Store:    store,
		History:  hist,
		Index:    indexClient,
		Embedder: embedder,
		Funnel:   f,
	}, nil
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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Vocabulary.Watch {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		store := components.Store
		watchSvc := watcher.NewWatcher(cfg.Vocabulary.SnapshotPath, func() {
			if err := store.Reload(); err != nil {
				logger.Warn("snapshot reload failed", zap.Error(err))
			}
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start snapshot watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(
		components.Funnel,
		components.Store,
		components.History,
		components.Index,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
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

// buildQuery joins positional args with spaces so multi-word queries work the
// same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func parseOutputFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "text":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	case "compact":
		return cli.OutputCompact, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

func runResolve() {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = resolve in-process)")
	limit := fs.Int("limit", 0, "number of results (0 = config default)")
	runAll := fs.Bool("run-all", false, "attempt every tier and merge results")
	debug := fs.Bool("debug", false, "include the per-tier trace in output")
	notePath := fs.String("file", "", "read the query from a note file (.txt, .md, .pdf, .docx)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ontosift resolve [flags] <query>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	queryStr := buildQuery(fs.Args())
	if *notePath != "" {
		text, extractErr := extract.NewExtractor().Extract(*notePath)
		if extractErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to read note: %v\n", extractErr)
			os.Exit(1)
		}
		queryStr = strings.TrimSpace(text)
	}
	if queryStr == "" {
		fs.Usage()
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	opts := funnel.Options{Limit: *limit, RunAll: *runAll, Debug: *debug}

	var res *funnel.Resolution
	if *serverURL != "" {
		res, err = resolveViaHTTP(*serverURL, queryStr, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Resolve failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		logger, logErr := utils.NewLogger(cfg.Debug)
		if logErr != nil {
			fmt.Printf("Failed to create logger: %v\n", logErr)
			os.Exit(1)
		}
		defer logger.Sync()

		components, initErr := initializeComponents(cfg, logger)
		if initErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", initErr)
			os.Exit(1)
		}
		defer components.Close()
		res = components.Funnel.Run(context.Background(), queryStr, opts)
	}

	if err := cli.WriteResolution(os.Stdout, res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		os.Exit(1)
	}
}

func resolveViaHTTP(serverURL, query string, opts funnel.Options) (*funnel.Resolution, error) {
	payload, err := json.Marshal(models.ResolveRequest{
		Query:  query,
		Limit:  opts.Limit,
		RunAll: opts.RunAll,
		Debug:  opts.Debug,
	})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(
		strings.TrimRight(serverURL, "/")+"/api/v1/resolve",
		"application/json",
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var res funnel.Resolution
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("invalid server response: %w", err)
	}
	return &res, nil
}

func runBatch() {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outPath := fs.String("out", "", "output workbook path (default <input>_resolved.xlsx)")
	limit := fs.Int("limit", 0, "results per query (0 = config default)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ontosift batch [flags] <cases.xlsx>\n\n")
		fmt.Fprintf(fs.Output(), "Reads queries from the first column and writes outcome columns beside them.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	inPath := fs.Arg(0)
	target := *outPath
	if target == "" {
		ext := filepath.Ext(inPath)
		target = strings.TrimSuffix(inPath, ext) + "_resolved" + ext
	}

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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	n, err := batch.NewRunner(components.Funnel, logger).
		Process(context.Background(), inPath, target, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Batch failed after %d queries: %v\n", n, err)
		os.Exit(1)
	}
	fmt.Printf("Resolved %d queries -> %s\n", n, target)
}

func runTerm() {
	fs := flag.NewFlagSet("term", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ontosift term [flags] <concept-id>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	id := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	store, err := vocab.NewStore(cfg.Vocabulary.SnapshotPath, zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load vocabulary: %v\n", err)
		os.Exit(1)
	}
	concept, ok := store.Snapshot().Get(id)
	if !ok {
		fmt.Fprintf(os.Stderr, "Concept %s not found\n", id)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(concept)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(strings.TrimRight(*serverURL, "/") + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read response: %v\n", err)
		os.Exit(1)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}

func printUsage() {
	fmt.Println(`ontosift - tiered phenotype concept resolution

Usage:
  ontosift server [flags]              Start the HTTP server
  ontosift resolve [flags] <query>     Resolve a query or clinical note
  ontosift batch [flags] <cases.xlsx>  Resolve a workbook of queries
  ontosift term [flags] <concept-id>   Look up one vocabulary concept
  ontosift status [flags]              Show server status
  ontosift version                     Show version
  ontosift help                        Show this help

Run 'ontosift <command> -h' for command flags.`)
}
