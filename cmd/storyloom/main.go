package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hearthwood/storyloom/internal/agent"
	"github.com/hearthwood/storyloom/internal/config"
	"github.com/hearthwood/storyloom/internal/llm"
	"github.com/hearthwood/storyloom/internal/pipeline"
	"github.com/hearthwood/storyloom/internal/store"
)

// CLI flags parsed from command line.
type cliFlags struct {
	File        string
	Content     string
	ContentType string
	ConfigDir   string
	StorePath   string
	Concurrency int64
	NoStore     bool

	Title   string
	Author  string
	Genre   string
	Premise string
	Themes  string
	Setting string

	Verbose bool
	Version bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("storyloom", flag.ContinueOnError)
	fs.StringVar(&flags.File, "file", "", "path to the manuscript file to analyze")
	fs.StringVar(&flags.Content, "content", "", "inline content to analyze (alternative to -file)")
	fs.StringVar(&flags.ContentType, "type", "", "explicit content type (outline, chapter, scene, character, dialogue, description, revision)")
	fs.StringVar(&flags.ConfigDir, "config", ".", "directory containing storyloom.yml")
	fs.StringVar(&flags.StorePath, "store", "", "sqlite database path (overrides config)")
	fs.Int64Var(&flags.Concurrency, "concurrency", 0, "max concurrent agent calls (overrides config)")
	fs.BoolVar(&flags.NoStore, "no-store", false, "skip persisting results")
	fs.StringVar(&flags.Title, "title", "", "project title")
	fs.StringVar(&flags.Author, "author", "", "project author")
	fs.StringVar(&flags.Genre, "genre", "", "project genre")
	fs.StringVar(&flags.Premise, "premise", "", "project premise")
	fs.StringVar(&flags.Themes, "themes", "", "comma-separated project themes")
	fs.StringVar(&flags.Setting, "setting", "", "project setting")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	// Local .env is optional.
	_ = godotenv.Load()

	level := slog.LevelWarn
	if flags.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, &flags)

	content := flags.Content
	if flags.File != "" {
		data, err := os.ReadFile(flags.File)
		if err != nil {
			return fmt.Errorf("read content file: %w", err)
		}
		content = string(data)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("nothing to analyze: pass -file or -content")
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	gw, closeStore, err := newGateway(cfg, &flags)
	if err != nil {
		return err
	}
	defer closeStore()

	coord := pipeline.New(client, gw, pipeline.Options{
		Concurrency:  cfg.Pipeline.Concurrency,
		AgentTimeout: time.Duration(cfg.Pipeline.TimeoutSeconds) * time.Second,
		Logger:       logger,
	})

	req := pipeline.Request{
		ProjectID:   cfg.Title,
		Content:     content,
		ContentType: flags.ContentType,
		// Running the CLI is an explicit request; the config toggle is for
		// embedding callers.
		Enabled: true,
		Project: agent.ProjectContext{
			Title:   cfg.Title,
			Author:  cfg.Author,
			Genre:   cfg.Genre,
			Premise: cfg.Premise,
			Themes:  strings.Join(cfg.Themes, ", "),
			Setting: cfg.Setting,
		},
	}

	events, err := coord.Analyze(context.Background(), req)
	if err != nil {
		return err
	}

	var report *pipeline.Report
	var runErr error
	for ev := range events {
		if flags.Verbose || ev.Type != pipeline.EventAgentResult {
			fmt.Println(pipeline.FormatEvent(ev))
		}
		switch ev.Type {
		case pipeline.EventAnalysisComplete:
			report = ev.Report
		case pipeline.EventAnalysisError:
			runErr = ev.Err
		}
	}

	if runErr != nil {
		return fmt.Errorf("analysis failed: %w", runErr)
	}
	if report != nil {
		fmt.Println()
		fmt.Println(pipeline.FormatReport(report))
	}
	return nil
}

// applyFlags folds command-line overrides into the loaded config.
func applyFlags(cfg *config.ProjectConfig, flags *cliFlags) {
	if flags.Title != "" {
		cfg.Title = flags.Title
	}
	if flags.Author != "" {
		cfg.Author = flags.Author
	}
	if flags.Genre != "" {
		cfg.Genre = flags.Genre
	}
	if flags.Premise != "" {
		cfg.Premise = flags.Premise
	}
	if flags.Themes != "" {
		cfg.Themes = splitList(flags.Themes)
	}
	if flags.Setting != "" {
		cfg.Setting = flags.Setting
	}
	if flags.StorePath != "" {
		cfg.Store.Path = flags.StorePath
	}
	if flags.Concurrency > 0 {
		cfg.Pipeline.Concurrency = flags.Concurrency
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// newClient builds the completion client named by the config, wrapped in the
// single-retry policy.
func newClient(cfg *config.ProjectConfig) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "mock":
		return llm.NewRetrying(llm.MockClient{}), nil
	case "openai", "":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("no API key: set STORYLOOM_API_KEY, OPENAI_API_KEY, or llm.apiKey in storyloom.yml")
		}
		c, err := llm.NewOpenAIClient(llm.Settings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return llm.NewRetrying(c), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// newGateway opens the sqlite store unless persistence is disabled.
func newGateway(cfg *config.ProjectConfig, flags *cliFlags) (pipeline.Gateway, func(), error) {
	if flags.NoStore {
		return pipeline.NopGateway{}, func() {}, nil
	}
	s, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return s, func() { _ = s.Close() }, nil
}
