// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/hindsight"
	"github.com/poiesic/hindsight/ai"
	"github.com/poiesic/hindsight/ai/ollama"
	"github.com/poiesic/hindsight/ai/openai"
	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/reembed"
	"github.com/poiesic/hindsight/search"
	"github.com/poiesic/hindsight/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	// Optional .env for local setups; absence is fine.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "hindsight",
		Usage: "Local-first decision journal with semantic recall",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "Record a new decision entry",
				Action: addCommand,
				Flags: append(journalFlags(),
					&cli.StringFlag{
						Name:     "problem",
						Usage:    "The decision or problem statement",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "situation",
						Usage: "Context at the time of the decision",
					},
					&cli.StringFlag{
						Name:  "resolution",
						Usage: "Outcome, if already known",
					},
					&cli.IntFlag{
						Name:  "confidence",
						Usage: "Confidence at decision time (1-10)",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag for the entry (repeatable)",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search past decisions",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: append(journalFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of results",
						Value: search.DefaultTopK,
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Restrict results to entries carrying a tag (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print intermediate search stages",
					},
				),
			},
			{
				Name:   "scan",
				Usage:  "Queue and generate embeddings for entries missing one",
				Action: scanCommand,
				Flags:  journalFlags(),
			},
			{
				Name:   "status",
				Usage:  "Show journal and embedding service status",
				Action: statusCommand,
				Flags:  journalFlags(),
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate stale embeddings after a model or template change",
				Action: reembedCommand,
				Flags: append(journalFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entries",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Regenerate every embedding, current or not",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// journalFlags are shared by every command that opens a journal.
func journalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to the journal database directory",
			Value:   "./journal_db",
			EnvVars: []string{"HINDSIGHT_DB"},
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434",
			EnvVars: []string{"HINDSIGHT_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "nomic-embed-text",
			EnvVars: []string{"HINDSIGHT_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "provider",
			Usage:   "Embedding provider (ollama, openai)",
			Value:   "ollama",
			EnvVars: []string{"HINDSIGHT_PROVIDER"},
		},
	}
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
}

func providerFromFlags(c *cli.Context) (ai.Provider, error) {
	config := aiConfigFromFlags(c)
	switch c.String("provider") {
	case "ollama":
		return ollama.NewProvider(config)
	case "openai":
		return openai.NewProvider(config)
	default:
		return nil, fmt.Errorf("unknown provider %q: must be ollama or openai", c.String("provider"))
	}
}

func openJournal(c *cli.Context) (*hindsight.Journal, error) {
	provider, err := providerFromFlags(c)
	if err != nil {
		return nil, err
	}

	journal, err := hindsight.NewJournal(c.String("db"), hindsight.WithProvider(provider))
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return journal, nil
}

func addCommand(c *cli.Context) error {
	journal, err := openJournal(c)
	if err != nil {
		return err
	}
	defer journal.Close()

	entry := &core.Entry{
		Problem:    c.String("problem"),
		Situation:  c.String("situation"),
		Resolution: c.String("resolution"),
		Confidence: c.Int("confidence"),
		Tags:       c.StringSlice("tag"),
	}

	saved, err := journal.SaveEntry(context.Background(), entry)
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}

	fmt.Printf("Saved entry %d\n", saved.Id)

	// Give the background generation a moment so the entry is searchable
	// as soon as the command returns.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := journal.EmbeddingRepository().GetEmbedding(context.Background(), saved.Id); err == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	fmt.Fprintln(os.Stderr, "Embedding still pending; it will be retried in the background")
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	journal, err := openJournal(c)
	if err != nil {
		return err
	}
	defer journal.Close()

	searcher, err := journal.NewSearcher()
	if err != nil {
		return err
	}

	opts := &search.Options{}
	if tags := c.StringSlice("tag"); len(tags) > 0 {
		opts.Filter = &core.Filter{Tags: tags}
	}
	if c.Bool("explain") {
		opts.Monitor = &printMonitor{out: os.Stderr}
	}

	results, err := searcher.SearchWithOptions(context.Background(), query, c.Int("top-k"), opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matching entries")
		return nil
	}

	for _, hit := range results {
		entry, err := journal.GetEntry(context.Background(), hit.EntryId)
		if err != nil {
			return err
		}
		fmt.Printf("%d. [%s score=%.3f] %s (%s)\n",
			hit.Rank, hit.MatchType, hit.Score, entry.Problem,
			entry.CreatedAt.Format("2006-01-02"))
		if entry.Resolution != "" {
			fmt.Printf("   outcome: %s\n", entry.Resolution)
		}
	}
	return nil
}

func scanCommand(c *cli.Context) error {
	journal, err := openJournal(c)
	if err != nil {
		return err
	}
	defer journal.Close()

	ctx := context.Background()
	reconciled, err := journal.Orchestrator().ScanForMissing(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if reconciled == 0 {
		fmt.Println("All entries have current embeddings")
		return nil
	}

	m := journal.Orchestrator().Metrics()
	fmt.Printf("Reconciled %d entries: %d generated, %d failed, %d queued for retry\n",
		reconciled, m.TotalGenerated, m.TotalFailed, m.QueueDepth)
	return nil
}

func statusCommand(c *cli.Context) error {
	journal, err := openJournal(c)
	if err != nil {
		return err
	}
	defer journal.Close()

	ctx := context.Background()
	entries, err := journal.GetEntries(ctx, nil)
	if err != nil {
		return err
	}
	embeddings, err := journal.EmbeddingRepository().GetAllEmbeddings(ctx)
	if err != nil {
		return err
	}

	prober := journal.Provider().Prober()
	model := journal.Provider().ModelName()
	serviceUp := prober.IsServiceAvailable(ctx)
	modelUp := serviceUp && prober.IsModelAvailable(ctx, model)

	fmt.Printf("Entries:     %d\n", len(entries))
	fmt.Printf("Embeddings:  %d\n", len(embeddings))
	fmt.Printf("Service:     %s (%v)\n", c.String("embedding-host"), upDown(serviceUp))
	fmt.Printf("Model:       %s (%v)\n", model, upDown(modelUp))

	m := journal.Orchestrator().Metrics()
	fmt.Printf("Queue depth: %d\n", m.QueueDepth)
	return nil
}

func upDown(up bool) string {
	if up {
		return "available"
	}
	return "unavailable"
}

func reembedCommand(c *cli.Context) error {
	dbPath := c.String("db")

	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	entryRepo, err := badger.NewEntryRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create entry repository: %w", err)
	}
	defer entryRepo.Close()

	embeddingRepo := badger.NewEmbeddingRepository(backend)

	provider, err := providerFromFlags(c)
	if err != nil {
		return err
	}
	defer provider.Close()

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Force:          c.Bool("force"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := reembed.NewReembedder(entryRepo, embeddingRepo,
		provider.Embedder(), provider.ModelName(), reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", provider.ModelName())
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// printMonitor writes each search stage to a writer for --explain.
type printMonitor struct {
	out *os.File
}

func (m *printMonitor) Start(query string) {
	fmt.Fprintf(m.out, "query: %q\n", query)
}

func (m *printMonitor) AfterQueryEmbedding(vector []float32) {
	fmt.Fprintf(m.out, "query embedded: %d dimensions\n", len(vector))
}

func (m *printMonitor) AfterSemanticPass(candidates []*core.SearchResult) {
	fmt.Fprintf(m.out, "semantic candidates: %d\n", len(candidates))
	for _, c := range candidates {
		fmt.Fprintf(m.out, "  entry %d similarity=%.3f boosted=%.3f\n",
			c.EntryId, c.Similarity, c.Score)
	}
}

func (m *printMonitor) AfterKeywordPass(ids []core.ID) {
	fmt.Fprintf(m.out, "keyword matches: %d\n", len(ids))
}

func (m *printMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(m.out, "final results: %d\n", len(results))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
