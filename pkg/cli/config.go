package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/adapter"
	"github.com/nhh/miniassistant/pkg/interfaces"
	"github.com/nhh/miniassistant/pkg/llm"
	"github.com/nhh/miniassistant/pkg/memory"
	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/repository"
	"github.com/nhh/miniassistant/pkg/service/launcher"
	"github.com/nhh/miniassistant/pkg/tool"
	"github.com/nhh/miniassistant/pkg/tool/action"
	"github.com/nhh/miniassistant/pkg/tool/retrieval"
	"github.com/nhh/miniassistant/pkg/usecase/chat"
	"github.com/nhh/miniassistant/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel  string
	logOutput string

	// Google Cloud
	project  string
	database string

	// Model
	backend         string
	geminiAPIKey    string
	geminiProject   string
	geminiLocation  string
	geminiModel     string
	embeddingModel  string
	anthropicAPIKey string
	claudeModel     string

	// Retrieval
	chunkIndex      string
	chunkCollection string
	bigqueryTable   string

	// Memory
	memory       string
	memoryBucket string
	session      string

	// Actions
	launcher  string
	mcpConfig string

	timeout time.Duration

	gemini    *adapter.GeminiClient
	firestore *repository.Firestore
	closers   []func()
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars("MINIASSISTANT_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output (stderr, stdout or file path)",
			Value:       "stderr",
			Sources:     cli.EnvVars("MINIASSISTANT_LOG_OUTPUT"),
			Destination: &cfg.logOutput,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
	}
}

// memoryFlags returns flags for conversation memory with destination config
func memoryFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "memory",
			Usage:       "Memory persistence (none, gcs, firestore)",
			Value:       "none",
			Sources:     cli.EnvVars("MINIASSISTANT_MEMORY"),
			Destination: &cfg.memory,
		},
		&cli.StringFlag{
			Name:        "memory-bucket",
			Usage:       "Cloud Storage bucket for memory snapshots",
			Sources:     cli.EnvVars("MINIASSISTANT_MEMORY_BUCKET"),
			Destination: &cfg.memoryBucket,
		},
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID whose memory is used",
			Value:       "default",
			Sources:     cli.EnvVars("MINIASSISTANT_SESSION"),
			Destination: &cfg.session,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Aliases:     []string{"b"},
			Usage:       "Model backend (gemini, claude)",
			Value:       "gemini",
			Sources:     cli.EnvVars("MINIASSISTANT_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini generative model",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Gemini embedding model",
			Sources:     cli.EnvVars("GEMINI_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "claude-model",
			Usage:       "Claude model",
			Sources:     cli.EnvVars("CLAUDE_MODEL"),
			Destination: &cfg.claudeModel,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Time limit of one answer (0 for none)",
			Value:       2 * time.Minute,
			Sources:     cli.EnvVars("MINIASSISTANT_TIMEOUT"),
			Destination: &cfg.timeout,
		},
	}
}

// toolFlags returns flags for tool backends with destination config
func toolFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "chunk-index",
			Usage:       "Document chunk index (firestore, bigquery, none)",
			Value:       "none",
			Sources:     cli.EnvVars("MINIASSISTANT_CHUNK_INDEX"),
			Destination: &cfg.chunkIndex,
		},
		&cli.StringFlag{
			Name:        "chunk-collection",
			Usage:       "Firestore collection holding document chunks",
			Value:       "chunks",
			Sources:     cli.EnvVars("MINIASSISTANT_CHUNK_COLLECTION"),
			Destination: &cfg.chunkCollection,
		},
		&cli.StringFlag{
			Name:        "bigquery-table",
			Usage:       "BigQuery table holding document chunks (project.dataset.table)",
			Sources:     cli.EnvVars("MINIASSISTANT_BIGQUERY_TABLE"),
			Destination: &cfg.bigqueryTable,
		},
		&cli.StringFlag{
			Name:        "launcher",
			Usage:       "Action launcher (log, mcp)",
			Value:       "log",
			Sources:     cli.EnvVars("MINIASSISTANT_LAUNCHER"),
			Destination: &cfg.launcher,
		},
		&cli.StringFlag{
			Name:        "mcp-config",
			Usage:       "Path to MCP launcher configuration file (YAML)",
			Sources:     cli.EnvVars("MINIASSISTANT_MCP_CONFIG"),
			Destination: &cfg.mcpConfig,
		},
	}
}

// setupLogger attaches the configured logger to ctx
func (cfg *config) setupLogger(ctx context.Context) (context.Context, error) {
	logger, closer, err := logging.Open(cfg.logLevel, cfg.logOutput)
	if err != nil {
		return nil, err
	}
	cfg.closers = append(cfg.closers, func() { _ = closer.Close() })
	logging.SetDefault(logger)

	return logging.With(ctx, logger.With(slog.String("session", cfg.session))), nil
}

// close releases every client created by the builders
func (cfg *config) close() {
	for i := len(cfg.closers) - 1; i >= 0; i-- {
		cfg.closers[i]()
	}
	cfg.closers = nil
}

// newGemini creates a Gemini adapter with the API key, or with Vertex AI
// when only a project is given
func (cfg *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	if cfg.gemini != nil {
		return cfg.gemini, nil
	}

	opts := []adapter.GeminiOption{
		adapter.WithGenerativeModel(cfg.geminiModel),
		adapter.WithEmbeddingModel(cfg.embeddingModel),
	}

	var (
		client *adapter.GeminiClient
		err    error
	)
	switch {
	case cfg.geminiAPIKey != "":
		client, err = adapter.NewGemini(ctx, cfg.geminiAPIKey, opts...)
	case cfg.geminiProject != "":
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		client, err = adapter.NewVertexGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
	default:
		return nil, goerr.New("gemini-api-key or gemini-project is required")
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}

	cfg.gemini = client
	return client, nil
}

// newClaude creates a new Claude adapter instance
func (cfg *config) newClaude() (adapter.Claude, error) {
	if cfg.anthropicAPIKey == "" {
		return nil, goerr.New("anthropic-api-key is required")
	}
	return adapter.NewClaude(cfg.anthropicAPIKey), nil
}

// newFirestore creates the Firestore repository once and shares it
func (cfg *config) newFirestore(ctx context.Context) (*repository.Firestore, error) {
	if cfg.firestore != nil {
		return cfg.firestore, nil
	}
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database,
		repository.WithChunkCollection(cfg.chunkCollection),
		repository.WithSession(cfg.session),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	cfg.closers = append(cfg.closers, func() { _ = repo.Close() })

	cfg.firestore = repo
	return repo, nil
}

// newMemory creates the memory store and loads persisted turns
func (cfg *config) newMemory(ctx context.Context) (*memory.Store, error) {
	var opts []memory.Option

	switch cfg.memory {
	case "", "none":
	case "gcs":
		if cfg.memoryBucket == "" {
			return nil, goerr.New("memory-bucket is required for gcs memory")
		}
		storage, err := adapter.NewStorage(ctx, cfg.memoryBucket)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage")
		}
		opts = append(opts, memory.WithBackend(memory.NewGCSBackend(storage, cfg.session)))
	case "firestore":
		repo, err := cfg.newFirestore(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, memory.WithBackend(repo))
	default:
		return nil, goerr.New("unsupported memory", goerr.V("memory", cfg.memory))
	}

	store := memory.New(opts...)
	if err := store.Load(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to load memory")
	}
	return store, nil
}

// emptyIndex is used when no document store is configured
type emptyIndex struct{}

func (emptyIndex) Count(ctx context.Context) (int, error) { return 0, nil }

func (emptyIndex) Query(ctx context.Context, vector []float32, k int) ([]model.RetrievedChunk, error) {
	return nil, nil
}

// newRetriever creates the ragRetriever tool over the configured chunk index
func (cfg *config) newRetriever(ctx context.Context, notifier interfaces.Notifier) (*retrieval.Retriever, error) {
	switch cfg.chunkIndex {
	case "", "none":
		return retrieval.New(nil, emptyIndex{}, notifier), nil
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "embedding requires gemini")
	}
	embedder := llm.NewGeminiEmbedder(gemini)

	switch cfg.chunkIndex {
	case "firestore":
		repo, err := cfg.newFirestore(ctx)
		if err != nil {
			return nil, err
		}
		return retrieval.New(embedder, repo, notifier), nil

	case "bigquery":
		if cfg.project == "" {
			return nil, goerr.New("project is required for bigquery chunk index")
		}
		bq, err := adapter.NewBigQuery(ctx, cfg.project, cfg.bigqueryTable)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create bigquery chunk index")
		}
		cfg.closers = append(cfg.closers, func() { _ = bq.Close() })
		return retrieval.New(embedder, bq, notifier), nil

	default:
		return nil, goerr.New("unsupported chunk index", goerr.V("chunk_index", cfg.chunkIndex))
	}
}

// newLauncher creates the launcher performing external actions
func (cfg *config) newLauncher(ctx context.Context) (interfaces.Launcher, error) {
	switch cfg.launcher {
	case "", "log":
		return launcher.NewLogger(), nil
	case "mcp":
		if cfg.mcpConfig == "" {
			return nil, goerr.New("mcp-config is required for mcp launcher")
		}
		mcpCfg, err := launcher.LoadConfig(cfg.mcpConfig)
		if err != nil {
			return nil, err
		}
		l, err := launcher.NewMCP(ctx, mcpCfg.Server)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to start mcp launcher")
		}
		cfg.closers = append(cfg.closers, func() { _ = l.Close() })
		return l, nil
	default:
		return nil, goerr.New("unsupported launcher", goerr.V("launcher", cfg.launcher))
	}
}

// newRegistry creates the tool registry with all assistant tools
func (cfg *config) newRegistry(ctx context.Context, notifier interfaces.Notifier) (*tool.Registry, error) {
	retriever, err := cfg.newRetriever(ctx, notifier)
	if err != nil {
		return nil, err
	}

	l, err := cfg.newLauncher(ctx)
	if err != nil {
		return nil, err
	}

	tools := append([]tool.Tool{retriever}, action.New(l).Tools()...)
	registry, err := tool.New(tools...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create tool registry")
	}
	return registry, nil
}

// newModel creates the model of the configured backend
func (cfg *config) newModel(ctx context.Context, decls []*model.ToolDeclaration) (interfaces.Model, error) {
	switch cfg.backend {
	case "", "gemini":
		gemini, err := cfg.newGemini(ctx)
		if err != nil {
			return nil, err
		}
		return llm.NewGemini(gemini, decls)

	case "claude":
		claude, err := cfg.newClaude()
		if err != nil {
			return nil, err
		}
		return llm.NewClaude(claude, cfg.claudeModel, decls)

	default:
		return nil, goerr.New("unsupported backend", goerr.V("backend", cfg.backend))
	}
}

// checkCredentials fails when the selected backend has no credentials
func (cfg *config) checkCredentials() error {
	switch cfg.backend {
	case "", "gemini":
		if cfg.geminiAPIKey == "" && cfg.geminiProject == "" {
			return goerr.New("gemini-api-key or gemini-project is required")
		}
	case "claude":
		if cfg.anthropicAPIKey == "" {
			return goerr.New("anthropic-api-key is required")
		}
	default:
		return goerr.New("unsupported backend", goerr.V("backend", cfg.backend))
	}
	return nil
}

// newSession wires a chat session. Missing credentials are reported before
// any other client is created.
func (cfg *config) newSession(ctx context.Context, notifier interfaces.Notifier) (*chat.Session, error) {
	if err := cfg.checkCredentials(); err != nil {
		return nil, err
	}

	registry, err := cfg.newRegistry(ctx, notifier)
	if err != nil {
		return nil, err
	}

	m, err := cfg.newModel(ctx, registry.Declarations())
	if err != nil {
		return nil, err
	}

	store, err := cfg.newMemory(ctx)
	if err != nil {
		return nil, err
	}

	session, err := chat.New(chat.NewInput{
		Model:   m,
		Tools:   registry,
		Memory:  store,
		Timeout: cfg.timeout,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat session")
	}
	return session, nil
}
