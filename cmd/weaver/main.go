// Copyright 2025 Tomasz Trela
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	threadweaver "github.com/tomasz-trela/backend-thread-weaver"
	"github.com/tomasz-trela/backend-thread-weaver/ai"
	"github.com/tomasz-trela/backend-thread-weaver/ai/openai"
	"github.com/tomasz-trela/backend-thread-weaver/align"
	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/ingestion"
	"github.com/tomasz-trela/backend-thread-weaver/reembed"
	"github.com/tomasz-trela/backend-thread-weaver/search"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
	"github.com/tomasz-trela/backend-thread-weaver/storage/badger"
)

// importSegmentCap bounds how many segments one interactive import embeds,
// matching the bulk ingest path's historical limit.
const importSegmentCap = 50

func main() {
	app := &cli.App{
		Name:  "weaver",
		Usage: "Conversation ingestion and hybrid search over speaker-attributed transcripts",
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
				Name:   "worker",
				Usage:  "Run the background poller that ingests pending conversations",
				Action: workerCommand,
				Flags: append(aiFlags(),
					dbFlag(),
					&cli.StringFlag{
						Name:  "downloads",
						Usage: "Directory for downloaded audio",
						Value: "downloads",
					},
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Polling interval",
						Value: ingestion.DefaultPollInterval,
					},
				),
			},
			{
				Name:   "add",
				Usage:  "Register a conversation for background ingestion",
				Action: addCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Conversation title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Usage:    "Media URL (e.g. a YouTube link)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Conversation description",
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "Conversation date (YYYY-MM-DD)",
					},
					&cli.Uint64SliceFlag{
						Name:  "speakers",
						Usage: "Speaker IDs in diarization label order",
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Import pre-computed diarization and transcription JSON files",
				Action: importCommand,
				Flags: append(aiFlags(),
					dbFlag(),
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Conversation title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "speaker-file",
						Usage:    "Diarization JSON ([[start, end, label], ...])",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "whisper-file",
						Usage:    "Transcription JSON ({\"segments\": [{start, end, text}, ...]})",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Conversation description",
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "Conversation date (YYYY-MM-DD)",
					},
					&cli.Uint64SliceFlag{
						Name:  "speakers",
						Usage: "Speaker IDs in diarization label order",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of segments to import",
						Value: importSegmentCap,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search stored utterances",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(aiFlags(),
					dbFlag(),
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Search mode (hybrid, lexical, semantic)",
						Value: "hybrid",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.IntFlag{
						Name:  "rrf-k",
						Usage: "Reciprocal rank fusion smoothing constant",
						Value: search.DefaultRRFK,
					},
					&cli.Uint64Flag{
						Name:  "speaker",
						Usage: "Restrict results to one speaker ID",
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "Only conversations on or after this date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Only conversations before this date (YYYY-MM-DD)",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print per-stage candidate counts",
					},
				),
			},
			{
				Name:  "speakers",
				Usage: "Manage speakers",
				Subcommands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Add a speaker",
						Action: speakersAddCommand,
						Flags: []cli.Flag{
							dbFlag(),
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Speaker name",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "surname",
								Usage:    "Speaker surname",
								Required: true,
							},
						},
					},
					{
						Name:   "list",
						Usage:  "List all speakers",
						Action: speakersListCommand,
						Flags:  []cli.Flag{dbFlag()},
					},
					{
						Name:   "reassign",
						Usage:  "Re-attribute a conversation's utterances to another speaker",
						Action: speakersReassignCommand,
						Flags: []cli.Flag{
							dbFlag(),
							&cli.Uint64Flag{
								Name:     "conversation",
								Usage:    "Conversation ID",
								Required: true,
							},
							&cli.Uint64Flag{
								Name:     "from",
								Usage:    "Current speaker ID",
								Required: true,
							},
							&cli.Uint64Flag{
								Name:     "to",
								Usage:    "New speaker ID",
								Required: true,
							},
						},
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List conversations",
				Action: listCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (pending, processing, completed)",
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Align diarization and transcription files and write SRT",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "speaker-file",
						Usage:    "Diarization JSON ([[start, end, label], ...])",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "whisper-file",
						Usage:    "Transcription JSON ({\"segments\": [{start, end, text}, ...]})",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				},
			},
			{
				Name:   "delete",
				Usage:  "Delete a conversation and its utterances",
				Action: deleteCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.Uint64Flag{
						Name:     "id",
						Usage:    "Conversation ID",
						Required: true,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all utterances with new embeddings",
				Action: reembedCommand,
				Flags: append(aiFlags(),
					dbFlag(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of utterances to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N utterances",
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
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory",
		Value:   "./weaver_db",
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "speech-host",
			Usage: "Speech service host URL (transcription and diarization)",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "transcription-model",
			Usage: "Transcription model name",
		},
	}
}

// aiConfigFromFlags builds an AI config from flags, leaving defaults for
// anything not set.
func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	var opts []ai.ConfigOption
	if host := c.String("embedding-host"); host != "" {
		opts = append(opts, ai.WithEmbeddingHost(host))
	}
	if host := c.String("speech-host"); host != "" {
		opts = append(opts, ai.WithSpeechHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("transcription-model"); model != "" {
		opts = append(opts, ai.WithTranscriptionModel(model))
	}

	config := ai.NewConfig(opts...)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

// openRepositories opens the backend and all three repositories, returning a
// cleanup function that closes them in reverse order.
func openRepositories(dbPath string) (storage.ConversationRepository, storage.SpeakerRepository, storage.UtteranceRepository, func(), error) {
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	conversationRepo, err := badger.NewConversationRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, nil, err
	}

	speakerRepo, err := badger.NewSpeakerRepository(backend)
	if err != nil {
		conversationRepo.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	utteranceRepo, err := badger.NewUtteranceRepository(backend)
	if err != nil {
		speakerRepo.Close()
		conversationRepo.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		utteranceRepo.Close()
		speakerRepo.Close()
		conversationRepo.Close()
		backend.Close()
	}
	return conversationRepo, speakerRepo, utteranceRepo, cleanup, nil
}

func parseDateFlag(c *cli.Context, name string) (time.Time, error) {
	value := c.String(name)
	if value == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q: expected YYYY-MM-DD", name, value)
	}
	return date, nil
}

func speakerIdsFlag(c *cli.Context) []core.ID {
	values := c.Uint64Slice("speakers")
	ids := make([]core.ID, len(values))
	for i, v := range values {
		ids[i] = core.ID(v)
	}
	return ids
}

func workerCommand(c *cli.Context) error {
	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := threadweaver.NewDatabase(c.String("db"),
		threadweaver.WithAIConfig(aiConfig),
		threadweaver.WithDownloadDir(c.String("downloads")))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	poller, err := db.NewPoller(ingestion.WithPollerConfig(ingestion.PollerConfig{
		Interval: c.Duration("interval"),
	}))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func addCommand(c *cli.Context) error {
	date, err := parseDateFlag(c, "date")
	if err != nil {
		return err
	}

	conversationRepo, _, _, cleanup, err := openRepositories(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	added, err := conversationRepo.AddConversations(context.Background(), &core.Conversation{
		Title:            c.String("title"),
		Description:      c.String("description"),
		MediaURL:         c.String("url"),
		ConversationDate: date,
		SpeakerIds:       speakerIdsFlag(c),
	})
	if err != nil {
		return fmt.Errorf("failed to add conversation: %w", err)
	}

	fmt.Printf("Added conversation %d (%s), pending ingestion\n", added[0].Id, added[0].Title)
	return nil
}

func importCommand(c *cli.Context) error {
	ctx := context.Background()

	turns, transcription, err := loadAlignmentInputs(c.String("speaker-file"), c.String("whisper-file"))
	if err != nil {
		return err
	}

	date, err := parseDateFlag(c, "date")
	if err != nil {
		return err
	}

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	conversationRepo, speakerRepo, utteranceRepo, cleanup, err := openRepositories(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	aligner := align.New(align.DefaultConfig())
	segments, unknown := aligner.Align(turns, transcription)
	if len(segments) == 0 {
		return fmt.Errorf("no aligned segments in input files")
	}
	fmt.Fprintf(os.Stderr, "Aligned %d segments (%d without speaker)\n", len(segments), unknown)

	added, err := conversationRepo.AddConversations(ctx, &core.Conversation{
		Title:            c.String("title"),
		Description:      c.String("description"),
		ConversationDate: date,
		SpeakerIds:       speakerIdsFlag(c),
	})
	if err != nil {
		return fmt.Errorf("failed to add conversation: %w", err)
	}
	conversation := added[0]

	speakerIds, err := resolveImportSpeakers(ctx, speakerRepo, conversation, segments)
	if err != nil {
		return err
	}

	// Interactive import is strict: a single embedding failure aborts the
	// whole batch instead of storing half-embedded utterances.
	processor, err := ingestion.NewBatchProcessor(embedder, ingestion.BatchConfig{
		Policy:      ingestion.FailFast,
		MaxSegments: c.Int("limit"),
	}, slog.Default())
	if err != nil {
		return err
	}
	defer processor.Release()

	utterances, err := processor.Process(ctx, conversation.Id, segments, func(label string) core.ID {
		return speakerIds[label]
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if _, err := utteranceRepo.AddUtterances(ctx, utterances...); err != nil {
		return fmt.Errorf("failed to store utterances: %w", err)
	}

	conversation.Status = core.StatusCompleted
	if _, err := conversationRepo.UpdateConversations(ctx, conversation); err != nil {
		return fmt.Errorf("failed to mark conversation completed: %w", err)
	}

	fmt.Printf("Imported conversation %d with %d utterances\n", conversation.Id, len(utterances))
	return nil
}

// resolveImportSpeakers mirrors the background pipeline's label resolution:
// explicit speaker IDs by index order, implicit speaker records for the rest.
func resolveImportSpeakers(ctx context.Context, speakerRepo storage.SpeakerRepository, conversation *core.Conversation, segments []core.AlignedSegment) (map[string]core.ID, error) {
	index := align.BuildIndex(segments)

	resolved := make(map[string]core.ID, index.Len())
	for _, label := range index.Labels() {
		if id := align.Resolve(index.Of(label), conversation.SpeakerIds); id != 0 {
			resolved[label] = id
			continue
		}
		speaker, err := speakerRepo.GetOrCreateSpeaker(ctx, label, ingestion.ImplicitSpeakerSurname)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve speaker %q: %w", label, err)
		}
		resolved[label] = speaker.Id
	}
	return resolved, nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	queryText := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if queryText == "" {
		return fmt.Errorf("query is required")
	}

	from, err := parseDateFlag(c, "from")
	if err != nil {
		return err
	}
	to, err := parseDateFlag(c, "to")
	if err != nil {
		return err
	}

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}
	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	_, _, utteranceRepo, cleanup, err := openRepositories(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	searcher, err := search.NewSearcher(utteranceRepo, provider,
		search.WithConfig(search.Config{K: c.Int("rrf-k")}))
	if err != nil {
		return err
	}

	query := search.Query{
		Text:      queryText,
		Limit:     c.Int("limit"),
		SpeakerId: core.ID(c.Uint64("speaker")),
		DateFrom:  from,
		DateTo:    to,
	}

	var results []*core.SearchResult
	switch c.String("mode") {
	case "lexical":
		results, err = searcher.Lexical(ctx, query)
	case "semantic":
		results, err = searcher.Semantic(ctx, query)
	case "hybrid":
		var monitor search.SearchMonitor
		if c.Bool("verbose") {
			monitor = &printMonitor{w: os.Stderr}
		}
		results, err = searcher.HybridWithMonitor(ctx, query, monitor)
	default:
		return fmt.Errorf("invalid mode %q: must be one of hybrid, lexical, semantic", c.String("mode"))
	}
	if err != nil {
		return err
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: [%s - %s] (conversation %d, speaker %d) [%.3f]\n   %s\n",
			i+1,
			align.FormatTimestamp(hit.Utterance.StartTime),
			align.FormatTimestamp(hit.Utterance.EndTime),
			hit.Utterance.ConversationId,
			hit.Utterance.SpeakerId,
			hit.Score,
			hit.Utterance.Text,
		)
	}
	return nil
}

func speakersAddCommand(c *cli.Context) error {
	_, speakerRepo, _, cleanup, err := openRepositories(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	speaker, err := speakerRepo.GetOrCreateSpeaker(context.Background(), c.String("name"), c.String("surname"))
	if err != nil {
		return fmt.Errorf("failed to add speaker: %w", err)
	}

	fmt.Printf("Speaker %d: %s %s\n", speaker.Id, speaker.Name, speaker.Surname)
	return nil
}

func speakersListCommand(c *cli.Context) error {
	_, speakerRepo, _, cleanup, err := openRepositories(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	speakers, err := speakerRepo.GetAllSpeakers(context.Background())
	if err != nil {
		return err
	}

	for _, speaker := range speakers {
		fmt.Printf("%d: %s %s\n", speaker.Id, speaker.Name, speaker.Surname)
	}
	return nil
}

func speakersReassignCommand(c *cli.Context) error {
	_, _, utteranceRepo, cleanup, err := openRepositories(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	changed, err := utteranceRepo.ReassignSpeaker(context.Background(),
		core.ID(c.Uint64("conversation")),
		core.ID(c.Uint64("from")),
		core.ID(c.Uint64("to")))
	if err != nil {
		return fmt.Errorf("failed to reassign speaker: %w", err)
	}

	fmt.Printf("Reassigned %d utterances\n", changed)
	return nil
}

func listCommand(c *cli.Context) error {
	conversationRepo, _, _, cleanup, err := openRepositories(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()

	var conversations []*core.Conversation
	switch status := c.String("status"); status {
	case "":
		conversations, err = conversationRepo.GetAllConversations(ctx)
	case "pending":
		conversations, err = conversationRepo.GetConversationsByStatus(ctx, core.StatusPending)
	case "processing":
		conversations, err = conversationRepo.GetConversationsByStatus(ctx, core.StatusProcessing)
	case "completed":
		conversations, err = conversationRepo.GetConversationsByStatus(ctx, core.StatusCompleted)
	default:
		return fmt.Errorf("invalid status %q: must be one of pending, processing, completed", status)
	}
	if err != nil {
		return err
	}

	for _, conversation := range conversations {
		date := ""
		if !conversation.ConversationDate.IsZero() {
			date = conversation.ConversationDate.Format("2006-01-02")
		}
		fmt.Printf("%d: %s [%s] %s %s\n",
			conversation.Id, conversation.Title, conversation.Status, date, conversation.MediaURL)
	}
	return nil
}

func exportCommand(c *cli.Context) error {
	turns, transcription, err := loadAlignmentInputs(c.String("speaker-file"), c.String("whisper-file"))
	if err != nil {
		return err
	}

	aligner := align.New(align.DefaultConfig())
	segments, unknown := aligner.Align(turns, transcription)
	fmt.Fprintf(os.Stderr, "Aligned %d segments (%d without speaker)\n", len(segments), unknown)

	out := os.Stdout
	if path := c.String("output"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	return align.WriteSRT(out, segments)
}

func deleteCommand(c *cli.Context) error {
	conversationRepo, _, utteranceRepo, cleanup, err := openRepositories(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	id := core.ID(c.Uint64("id"))

	// Utterances first so a partial failure never leaves orphaned rows.
	deleted, err := utteranceRepo.DeleteUtterancesByConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete utterances: %w", err)
	}
	if err := conversationRepo.DeleteConversations(ctx, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	fmt.Printf("Deleted conversation %d and %d utterances\n", id, deleted)
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	_, _, utteranceRepo, cleanup, err := openRepositories(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
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

	reembedder := reembed.NewReembedder(utteranceRepo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n\n", aiConfig.EmbeddingModel)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// loadAlignmentInputs parses the two JSON files the diarization and
// transcription tooling produces: a list of [start, end, label] triples, and
// a whisper-style object with a segments array.
func loadAlignmentInputs(speakerPath, whisperPath string) ([]core.SpeakerTurn, *core.Transcription, error) {
	speakerData, err := os.ReadFile(speakerPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read speaker file: %w", err)
	}
	whisperData, err := os.ReadFile(whisperPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read whisper file: %w", err)
	}

	var rawTurns [][]any
	if err := json.Unmarshal(speakerData, &rawTurns); err != nil {
		return nil, nil, fmt.Errorf("failed to parse speaker file: %w", err)
	}

	turns := make([]core.SpeakerTurn, 0, len(rawTurns))
	for i, raw := range rawTurns {
		if len(raw) != 3 {
			return nil, nil, fmt.Errorf("speaker file entry %d: expected [start, end, label]", i)
		}
		start, startOk := raw[0].(float64)
		end, endOk := raw[1].(float64)
		label, labelOk := raw[2].(string)
		if !startOk || !endOk || !labelOk {
			return nil, nil, fmt.Errorf("speaker file entry %d: expected [number, number, string]", i)
		}
		turns = append(turns, core.SpeakerTurn{Start: start, End: end, Label: label})
	}

	var whisper struct {
		Language string `json:"language"`
		Segments []struct {
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Text  string  `json:"text"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(whisperData, &whisper); err != nil {
		return nil, nil, fmt.Errorf("failed to parse whisper file: %w", err)
	}

	transcription := &core.Transcription{Language: whisper.Language}
	for _, segment := range whisper.Segments {
		transcription.Segments = append(transcription.Segments, core.TranscriptSegment{
			Start: segment.Start,
			End:   segment.End,
			Text:  segment.Text,
		})
	}

	return turns, transcription, nil
}

// printMonitor writes per-stage candidate counts for the search verbose mode.
type printMonitor struct {
	w *os.File
}

func (m *printMonitor) Start(query string) {
	fmt.Fprintf(m.w, "hybrid search: %q\n", query)
}

func (m *printMonitor) AfterLexicalSearch(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "lexical candidates: %d\n", len(results))
}

func (m *printMonitor) AfterSemanticSearch(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "semantic candidates: %d\n", len(results))
}

func (m *printMonitor) AfterFusion(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "fused candidates: %d\n", len(results))
}

func (m *printMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "returning %d results\n", len(results))
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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
