// Package app assembles the application: database pool, Genkit provider,
// vector index, tool registry, generation loop and HTTP-facing RAG system.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/lectern/lectern/db"
	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/generator"
	"github.com/lectern/lectern/internal/index"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
	"github.com/lectern/lectern/internal/session"
	"github.com/lectern/lectern/internal/tools"
)

// Default provider rate limit: requests per second and burst.
const (
	defaultRateLimit = 10
	defaultRateBurst = 30
)

// App holds the assembled application and its cleanup state.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Pool     *pgxpool.Pool
	Store    *index.Store
	Sessions *session.Manager
	System   *rag.System
	Ingestor *rag.Ingestor

	dbCleanup func()
}

// Setup initializes everything in dependency order. On failure everything
// already initialized is released.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	pool, cleanup, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = cleanup
	a.Pool = pool

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, fmt.Errorf("initializing genkit with googleai provider")
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	store, err := index.New(index.NewPGQuerier(pool), embedder, logger, cfg.MinCourseSimilarity)
	if err != nil {
		return nil, fmt.Errorf("creating index store: %w", err)
	}
	a.Store = store

	searchTool, err := tools.NewSearchTool(store, cfg.MaxResults, logger)
	if err != nil {
		return nil, fmt.Errorf("creating search tool: %w", err)
	}
	outlineTool, err := tools.NewOutlineTool(store, logger)
	if err != nil {
		return nil, fmt.Errorf("creating outline tool: %w", err)
	}
	registry := tools.NewRegistry(logger)
	for _, tool := range []tools.Tool{searchTool, outlineTool} {
		if err := registry.Add(tool); err != nil {
			return nil, fmt.Errorf("registering tool %s: %w", tool.Name(), err)
		}
	}
	defined, err := tools.Register(g, searchTool, outlineTool)
	if err != nil {
		return nil, fmt.Errorf("defining tools: %w", err)
	}
	toolRefs := make([]ai.ToolRef, len(defined))
	for i, tool := range defined {
		toolRefs[i] = tool
	}

	model, err := generator.NewGenkitModel(g, cfg.ModelName)
	if err != nil {
		return nil, fmt.Errorf("creating model: %w", err)
	}
	gen, err := generator.New(model, registry, toolRefs, generator.Config{
		MaxToolRounds: cfg.MaxToolRounds,
		CallTimeout:   cfg.ProviderTimeout,
		RateLimiter:   rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	a.Sessions = session.NewManager(cfg.MaxHistory)

	system, err := rag.New(gen, a.Sessions, store, logger)
	if err != nil {
		return nil, fmt.Errorf("creating rag system: %w", err)
	}
	a.System = system

	chunker, err := course.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("creating chunker: %w", err)
	}
	ingestor, err := rag.NewIngestor(store, chunker, logger)
	if err != nil {
		return nil, fmt.Errorf("creating ingestor: %w", err)
	}
	a.Ingestor = ingestor

	return a, nil
}

// Close releases everything Setup acquired.
func (a *App) Close() {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
}

// provideDBPool runs migrations and creates the connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}
