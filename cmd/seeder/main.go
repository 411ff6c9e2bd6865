package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/hindsight"
	"github.com/poiesic/hindsight/ai/mock"
	"github.com/poiesic/hindsight/core"
)

var samples = []core.Entry{
	{
		Problem:    "Should we migrate the billing service from REST to gRPC?",
		Situation:  "Latency between billing and checkout is the top complaint from the platform team. Both services are Go, so codegen is cheap.",
		Resolution: "Migrated. p99 dropped from 180ms to 40ms, but we spent two weeks on load balancer config we did not anticipate.",
		Confidence: 7,
		Tags:       []string{"architecture", "billing"},
	},
	{
		Problem:    "Pick a message broker for the notification pipeline.",
		Situation:  "Choosing between Kafka and RabbitMQ. Expected volume is about 2k messages per second with bursts to 20k during campaigns.",
		Resolution: "Went with Kafka for the replay capability. Operationally heavier than expected; a managed offering would have been the smarter call.",
		Confidence: 6,
		Tags:       []string{"infrastructure", "messaging"},
	},
	{
		Problem:    "Do we hire a dedicated SRE or keep on-call inside the product teams?",
		Situation:  "Three incidents last quarter were prolonged because nobody owned the runbooks. Headcount budget allows one senior hire.",
		Confidence: 5,
		Tags:       []string{"hiring", "operations"},
	},
	{
		Problem:    "Should the mobile app cache search results offline?",
		Situation:  "Field teams work in warehouses with spotty connectivity. Caching adds sync complexity and a stale-data risk.",
		Resolution: "Shipped a read-only cache with a visible staleness banner. Support tickets about blank screens dropped by half.",
		Confidence: 8,
		Tags:       []string{"mobile", "offline"},
	},
	{
		Problem:    "Adopt the new design system now or after the Q3 launch?",
		Situation:  "The design team wants a flag-day migration. Engineering estimates three sprints of churn right before the launch window.",
		Resolution: "Deferred to after launch. The right call; the launch slipped a week as it was.",
		Confidence: 9,
		Tags:       []string{"planning", "frontend"},
	},
	{
		Problem:    "Keep the monolith's cron jobs or move them to a workflow engine?",
		Situation:  "Nightly jobs occasionally overlap and double-bill customers. Temporal looks attractive but nobody on the team has run it.",
		Confidence: 4,
		Tags:       []string{"infrastructure", "billing"},
	},
	{
		Problem:    "Should we sunset the v1 public API this year?",
		Situation:  "About 12% of traffic is still on v1, concentrated in three large customers. Supporting both doubles our integration test matrix.",
		Resolution: "Gave the three customers a six month window with migration support. Two moved on time; one negotiated an extension.",
		Confidence: 7,
		Tags:       []string{"api", "deprecation"},
	},
	{
		Problem:    "Choose between Postgres and DynamoDB for the audit log.",
		Situation:  "Write volume is high and append-only, reads are rare and always by time range. The rest of our stack is Postgres.",
		Resolution: "Stayed on Postgres with monthly partitions. Boring won; nobody has touched it since.",
		Confidence: 8,
		Tags:       []string{"database", "architecture"},
	},
	{
		Problem:    "Do we enforce code review on infrastructure repositories?",
		Situation:  "Terraform changes currently merge without review. Last month an unreviewed change deleted a staging database.",
		Resolution: "Enforced review plus plan output in CI. Velocity dipped for two weeks, then recovered.",
		Confidence: 9,
		Tags:       []string{"process", "infrastructure"},
	},
	{
		Problem:    "Should the analytics team get direct read access to production replicas?",
		Situation:  "They currently wait a day for the warehouse sync. Direct access risks long queries degrading the replica.",
		Confidence: 5,
		Tags:       []string{"data", "access"},
	},
}

var (
	dbPath       = flag.String("db", "./journal_db", "path to the journal database")
	seedFileName = flag.String("src", "", "JSON lines file of seed entries")
	useMock      = flag.Bool("mock", false, "use a deterministic in-process embedder instead of Ollama")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// entriesFromFile returns an iterator over entries in a JSON lines file.
func entriesFromFile(filename string) (iter.Seq2[core.Entry, error], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(core.Entry, error) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var entry core.Entry
			if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
				yield(core.Entry{}, fmt.Errorf("bad seed line: %w", err))
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
	}, nil
}

// entriesFromSlice returns an iterator over the built-in samples.
func entriesFromSlice(entries []core.Entry) iter.Seq2[core.Entry, error] {
	return func(yield func(core.Entry, error) bool) {
		for _, entry := range entries {
			if !yield(entry, nil) {
				return
			}
		}
	}
}

func main() {
	opts := []hindsight.JournalOption{}
	if *useMock {
		opts = append(opts, hindsight.WithProvider(mock.NewMockProvider()))
	}

	journal, err := hindsight.NewJournal(*dbPath, opts...)
	if err != nil {
		panic(err)
	}
	defer journal.Close()

	ctx := context.Background()

	var source iter.Seq2[core.Entry, error]
	if *seedFileName != "" {
		source, err = entriesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = entriesFromSlice(samples)
	}

	count := 0
	for entry, err := range source {
		if err != nil {
			panic(err)
		}
		if _, err := journal.SaveEntry(ctx, &entry); err != nil {
			panic(err)
		}
		count++
	}
	slog.Info("seeded journal", "entries", count)

	// Embedding generation runs on a background pool; give it a chance
	// to finish before the process exits.
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		records, err := journal.EmbeddingRepository().GetAllEmbeddings(ctx)
		if err != nil {
			panic(err)
		}
		if len(records) >= count {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}
	slog.Info("seeding complete")
}
