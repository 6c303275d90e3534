// Package main is the Kaimono CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
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

	"github.com/hyperjump/kaimono/internal/answer"
	"github.com/hyperjump/kaimono/internal/cli"
	"github.com/hyperjump/kaimono/internal/config"
	"github.com/hyperjump/kaimono/internal/ingest"
	"github.com/hyperjump/kaimono/internal/insights"
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/search"
	"github.com/hyperjump/kaimono/internal/server"
	"github.com/hyperjump/kaimono/internal/store"
	"github.com/hyperjump/kaimono/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kaimono/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. When neither exists, built-in defaults apply. Returns the config
// and the path that was actually loaded ("" for built-in defaults).
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
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), "", nil
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
	case "ask":
		runAsk()
	case "upsert":
		runUpsert()
	case "status":
		runStatus()
	case "insights":
		runInsights()
	case "reset":
		runReset()
	case "version", "--version", "-v":
		fmt.Printf("kaimono version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging (per-question traces, store rebuilds, etc.)")
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
		zap.String("snapshot_path", cfg.Storage.SnapshotPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}

	srv := server.NewServer(
		components.Engine,
		components.Store,
		components.Ingestor,
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
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// askArgsReorder moves any flags (and their values) that appear after the
// question to the front of the slice so that flag.Parse() sees them. Go's
// flag package stops at the first non-flag argument, so
// "kaimono ask \"question\" -k 3" would otherwise leave -k unparsed.
func askArgsReorder(args []string) []string {
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

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kaimono ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "Question is all remaining arguments joined by spaces. Multi-word questions work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  kaimono ask where did i buy milk
  kaimono ask "how much did i spend yesterday"
  kaimono ask --k 3 what did i buy between 1 march and 5 march
  kaimono ask --output json "what did i buy on 2024-06-10"
`)
}

func runAsk() {
	askArgs := askArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the snapshot directly when server is not running)")
	k := fs.Int("k", 0, "number of candidate records (0 = config default)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		printAskUsage(fs)
		os.Exit(1)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	if *serverURL != "" {
		ans, matches, err := askViaHTTP(*serverURL, question, *k)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAnswer(os.Stdout, question, ans, matches, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct snapshot access (when server is not running).
	components, cfg := mustInitialize(*configPath)
	kk := *k
	if kk <= 0 {
		kk = cfg.Answer.DefaultK
	}
	ans, matches := components.Engine.Ask(context.Background(), question, kk)
	if err := cli.WriteAnswer(os.Stdout, question, ans, matches, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, question string, k int) (string, []models.Match, error) {
	endpoint := serverURL + "/api/v1/qa?q=" + url.QueryEscape(question)
	if k > 0 {
		endpoint += fmt.Sprintf("&k=%d", k)
	}
	resp, err := http.Get(endpoint)
	if err != nil {
		return "", nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Answer  string         `json:"answer"`
		Matches []models.Match `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Answer, out.Matches, nil
}

func runUpsert() {
	fs := flag.NewFlagSet("upsert", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the snapshot directly)")
	id := fs.String("id", "", "record ID (required)")
	merchant := fs.String("merchant", "", "merchant name")
	date := fs.String("date", "", "purchase date (e.g. 2024-06-10 or \"10 June 2024\")")
	price := fs.Float64("price", 0, "purchase price")
	_ = fs.Parse(os.Args[2:])

	if *id == "" || fs.NArg() < 1 {
		fmt.Println("Usage: kaimono upsert --id <id> [flags] <text>")
		os.Exit(1)
	}
	text := buildQuestion(fs.Args())

	input := models.UpsertInput{ID: *id, Text: text}
	if *merchant != "" {
		input.Merchant = merchant
	}
	if *date != "" {
		input.Date = date
	}
	if *price != 0 {
		input.Price = price
	}

	if *serverURL != "" {
		body, _ := json.Marshal(input)
		resp, err := http.Post(*serverURL+"/api/v1/records", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Upsert failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Stored: %s\n", *id)
		return
	}

	components, _ := mustInitialize(*configPath)
	if err := input.Validate(); err != nil {
		fmt.Printf("Invalid record: %v\n", err)
		os.Exit(1)
	}
	count, err := components.Store.Upsert(context.Background(), input.ID, input.ToMetadata())
	if err != nil {
		fmt.Printf("Upsert failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Stored: %s (%d records)\n", *id, count)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the snapshot directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	type statusResponse struct {
		Records       int   `json:"records"`
		SnapshotBytes int64 `json:"snapshot_bytes"`
	}

	var status statusResponse
	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components, _ := mustInitialize(*configPath)
		status.Records = components.Store.Count()
		status.SnapshotBytes = components.Store.SnapshotSizeBytes()
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("records:         %d   # count of stored purchase records\n", status.Records)
		fmt.Printf("snapshot_bytes:  %d   # snapshot file on disk\n", status.SnapshotBytes)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func runInsights() {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the snapshot directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := cli.OutputText
	if *outputFormat == "json" {
		format = cli.OutputJSON
	}

	var rep insights.Report
	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/insights")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Insights failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components, _ := mustInitialize(*configPath)
		rep = insights.Build(components.Store.Records())
	}

	if err := cli.WriteInsights(os.Stdout, rep, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runReset() {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the snapshot directly)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Post(*serverURL+"/api/v1/admin/reset", "application/json", nil)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Reset failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Println("Store reset.")
		return
	}

	components, _ := mustInitialize(*configPath)
	if err := components.Store.Reset(context.Background()); err != nil {
		fmt.Printf("Reset failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Store reset.")
}

// Components holds initialized services.
type Components struct {
	Store    *store.Store
	Engine   *search.Engine
	Ingestor *ingest.Ingestor
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	storeOpts := []store.Option{}
	if debug && logger != nil {
		storeOpts = append(storeOpts, store.WithLogger(logger))
	}
	st, err := store.Open(cfg.Storage.SnapshotPath, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	synth := answer.New(answer.WithThreshold(cfg.Answer.ConfidenceThreshold))

	engineOpts := []search.EngineOption{}
	ingestOpts := []ingest.Option{}
	if debug && logger != nil {
		engineOpts = append(engineOpts, search.WithLogger(logger))
		ingestOpts = append(ingestOpts, ingest.WithLogger(logger))
	}
	engine := search.NewEngine(st, synth, engineOpts...)
	ingestor := ingest.NewIngestor(st, ingestOpts...)

	return &Components{
		Store:    st,
		Engine:   engine,
		Ingestor: ingestor,
	}, nil
}

// mustInitialize loads config and builds components for direct-access
// subcommands, exiting on failure.
func mustInitialize(configPath string) (*Components, *config.Config) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components, cfg
}

func printUsage() {
	fmt.Println(`kaimono - Purchase record search and question answering

Usage:
  kaimono server [flags]            Start the HTTP server
  kaimono ask [flags] <question>    Ask a question about your purchases
  kaimono upsert [flags] <text>     Store or replace a purchase record
  kaimono status [flags]            Show store status
  kaimono insights [flags]          Show aggregated spending insights
  kaimono reset [flags]             Delete all records and the snapshot
  kaimono version                   Show version
  kaimono help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kaimono/config.yaml)
  --debug            Enable debug logging (per-question traces, store rebuilds, etc.)

Ask Flags:
  --config string    Config file path (for direct snapshot mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to open the snapshot directly.
  --k int            Number of candidate records (0 = config default)
  --output string    Output format: text or json (default: text)

Upsert Flags:
  --id string        Record ID (required)
  --merchant string  Merchant name
  --date string      Purchase date (ISO or prose, e.g. "10 June 2024")
  --price float      Purchase price

Examples:
  kaimono server
  kaimono ask where did i buy milk
  kaimono ask "how much did i spend yesterday"
  kaimono ask --output json "what did i buy on 2024-06-10"
  kaimono upsert --id r1 --merchant "Corner Grocer" --date 2024-06-10 --price 2.49 milk
  kaimono insights
  kaimono status --output json
  kaimono reset --server ""`)
}
