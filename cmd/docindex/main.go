package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/chroma"
	"github.com/fwojciec/docindex/crawl"
	"github.com/fwojciec/docindex/fs"
	"github.com/fwojciec/docindex/gemini"
	"github.com/fwojciec/docindex/goquery"
	"github.com/fwojciec/docindex/htmltomarkdown"
	dochttp "github.com/fwojciec/docindex/http"
	"github.com/fwojciec/docindex/postgres"
	docprom "github.com/fwojciec/docindex/prometheus"
	docslog "github.com/fwojciec/docindex/slog"
	"github.com/fwojciec/docindex/sqlite"
	"github.com/fwojciec/docindex/store"
	"github.com/fwojciec/docindex/xxhash"
	prom "github.com/prometheus/client_golang/prometheus"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config overrides file and environment configuration. Set before calling Run().
	Config *Config

	// Services for end-to-end testing. Nil fields are built from Config.
	Backend  docindex.VectorBackend
	Embedder docindex.Embedder
	Fetcher      docindex.Fetcher
	Asker        docindex.Asker
	TokenCounter docindex.TokenCounter

	// Registry collects metrics for the run.
	Registry *prom.Registry

	store  *store.Store
	client *genai.Client
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Registry: prom.NewRegistry()}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	// Create Kong parser with dependency binding
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docindex"),
		kong.Description("Crawl documentation sites into a semantic search index"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docindex --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	// Parse arguments first to know which command and its flags
	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	if m.Config == nil {
		cfg, err := LoadConfig(cli.Config)
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", docindex.ErrorMessage(err))
			return err
		}
		m.Config = cfg
	}
	deps.Config = m.Config

	metrics := docprom.NewMetrics(m.Registry)

	// probe needs the crawl services only
	if cmd != "probe" {
		if err := m.openStore(ctx, logger, metrics); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", docindex.ErrorMessage(err))
			return err
		}
		defer m.Close()
		deps.Store = docslog.NewLoggingStore(docprom.NewStore(m.store, metrics), logger)
	}

	// Wire crawl services
	fetcher := m.Fetcher
	if fetcher == nil {
		f := dochttp.NewFetcher(dochttp.WithLogger(logger))
		defer f.Close()
		fetcher = f
	}
	deps.Fetcher = docslog.NewLoggingFetcher(docprom.NewFetcher(fetcher, metrics), logger)
	deps.Detector = docslog.NewLoggingDetector(goquery.NewDetector(), logger)
	deps.Extract = docslog.NewLoggingExtractor(goquery.NewExtractor(htmltomarkdown.NewConverter()), logger)

	if deps.Store != nil {
		deps.Pipeline = &crawl.Pipeline{
			Crawler: &crawl.Crawler{
				Fetcher:   deps.Fetcher,
				Extractor: deps.Extract,
				Logger:    logger,
			},
			Store:  deps.Store,
			Logger: logger,
		}
		if cmd == "crawl" || cmd == "add" {
			deps.Pipeline.TokenCounter = m.tokenCounter(logger)
		}
	}

	if cmd == "ask" {
		if err := m.openAsker(ctx, deps); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", docindex.ErrorMessage(err))
			return err
		}
	}

	runErr := kongCtx.Run(deps)

	if err := docprom.WriteTextfile(m.Config.MetricsFile, m.Registry); err != nil {
		logger.Warn("write metrics failed", "path", m.Config.MetricsFile, "error", err)
	}
	return runErr
}

// openStore builds the store gateway over the configured backend and embedder.
func (m *Main) openStore(ctx context.Context, logger *slog.Logger, metrics *docprom.Metrics) error {
	backend := m.Backend
	if backend == nil {
		b, err := openBackend(ctx, m.Config, logger)
		if err != nil {
			return err
		}
		backend = b
	}

	embedder := m.Embedder
	if embedder == nil {
		e, err := m.openEmbedder(ctx)
		if err != nil {
			_ = backend.Close()
			return err
		}
		embedder = e
	}
	embedder = docslog.NewLoggingEmbedder(docprom.NewEmbedder(embedder, metrics), logger)

	m.store = store.New(backend, embedder,
		store.WithCollection(m.Config.Collection),
		store.WithLogger(logger),
	)
	return nil
}

// openBackend builds the vector backend named in cfg. Connection failures
// are left to the store gateway, which degrades instead of failing the command.
func openBackend(ctx context.Context, cfg *Config, logger *slog.Logger) (docindex.VectorBackend, error) {
	switch cfg.Backend {
	case BackendChroma:
		client, err := chroma.NewClient(chroma.Config{
			URL:      cfg.Chroma.URL,
			APIKey:   cfg.Chroma.APIKey,
			Tenant:   cfg.Chroma.Tenant,
			Database: cfg.Chroma.Database,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case BackendPostgres:
		backend, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		if err := ensureDir(cfg.DB); err != nil {
			logger.Warn("create database directory failed (set DOCINDEX_DB to use a different path)", "path", cfg.DB, "error", err)
		}
		return sqlite.NewBackend(sqlite.NewDB(cfg.DB)), nil
	}
}

// openEmbedder builds the configured embedder.
func (m *Main) openEmbedder(ctx context.Context) (docindex.Embedder, error) {
	if m.Config.Embedder == EmbedderGemini {
		client, err := m.genaiClient(ctx)
		if err != nil {
			return nil, err
		}
		return gemini.NewEmbedder(client, m.Config.EmbeddingDims), nil
	}
	return xxhash.NewEmbedder(m.Config.EmbeddingDims), nil
}

// openAsker wires the question answering service over the store.
func (m *Main) openAsker(ctx context.Context, deps *Dependencies) error {
	if m.Asker != nil {
		deps.Asker = m.Asker
		return nil
	}
	if m.Config.GeminiAPIKey == "" {
		return docindex.Errorf(docindex.EINVALID, "GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
	}
	client, err := m.genaiClient(ctx)
	if err != nil {
		return err
	}
	deps.Asker = gemini.NewAsker(client, deps.Store)
	return nil
}

// tokenCounter returns the configured token counter. Token counting is best
// effort; a tokenizer that cannot be loaded disables it.
func (m *Main) tokenCounter(logger *slog.Logger) docindex.TokenCounter {
	if m.TokenCounter != nil {
		return m.TokenCounter
	}
	tc, err := gemini.NewTokenCounter(gemini.DefaultTokenizerModel)
	if err != nil {
		logger.Debug("token counting disabled", "error", err)
		return nil
	}
	return tc
}

func (m *Main) genaiClient(ctx context.Context) (*genai.Client, error) {
	if m.client != nil {
		return m.client, nil
	}
	client, err := gemini.NewClient(ctx, m.Config.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	m.client = client
	return client, nil
}

// newPageWriter returns a markdown page writer for dir, or nil when dir is empty.
func newPageWriter(dir string) docindex.PageWriter {
	if dir == "" {
		return nil
	}
	return fs.NewWriter(dir)
}
