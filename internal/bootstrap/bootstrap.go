// Package bootstrap builds the shared object graph used by cmd/api and
// cmd/matchctl from a loaded config.
package bootstrap

import (
	"context"
	"fmt"

	"swiftjobs-backend/config"
	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/negotiation"
	"swiftjobs-backend/internal/notify"
	"swiftjobs-backend/internal/repository/memory"
	"swiftjobs-backend/internal/repository/postgres"
	"swiftjobs-backend/internal/scoring"
	"swiftjobs-backend/internal/usecase"
	"swiftjobs-backend/pkg/database"
	"swiftjobs-backend/pkg/llm"
	"swiftjobs-backend/pkg/llm/gemini"
	"swiftjobs-backend/pkg/metrics"
	pkgredis "swiftjobs-backend/pkg/redis"
	"swiftjobs-backend/pkg/resilience"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Repositories is one consistent set of stores.
type Repositories struct {
	Profiles     domain.ProfileRepository
	Jobs         domain.JobRepository
	Swipes       domain.SwipeRepository
	Matches      domain.MatchRepository
	Negotiations domain.NegotiationRepository
}

// App holds everything the entrypoints need. Close releases connections.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Metrics *metrics.Collector

	DB    *pgxpool.Pool
	Redis *goredis.Client
	Repos Repositories

	Scorer *scoring.Scorer
	Engine *negotiation.Engine

	ProfileUC     domain.ProfileUsecase
	JobUC         domain.JobUsecase
	SwipeUC       domain.SwipeUsecase
	MatchUC       domain.MatchUsecase
	NegotiationUC domain.NegotiationUsecase
	HealthUC      usecase.HealthUsecase
}

// New connects to the configured backends and wires the usecases. Without
// DATABASE_URL the in-memory store is used; without REDIS_URL match
// notifications are only logged.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Log: log, Metrics: metrics.NewCollector("swiftjobs")}
	checks := map[string]usecase.HealthCheck{}

	if cfg.DBUrl != "" {
		pool, err := database.NewPostgresConnection(ctx, cfg.DBUrl, log)
		if err != nil {
			return nil, err
		}
		app.DB = pool
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		checks["database"] = pool.Ping
		app.Repos = Repositories{
			Profiles:     postgres.NewProfileRepository(pool),
			Jobs:         postgres.NewJobRepository(pool),
			Swipes:       postgres.NewSwipeRepository(pool),
			Matches:      postgres.NewMatchRepository(pool),
			Negotiations: postgres.NewNegotiationRepository(pool),
		}
	} else {
		store := memory.NewStore()
		app.Repos = Repositories{
			Profiles:     store.Profiles(),
			Jobs:         store.Jobs(),
			Swipes:       store.Swipes(),
			Matches:      store.Matches(),
			Negotiations: store.Negotiations(),
		}
	}

	var notifier domain.MatchNotifier = notify.NewLogNotifier(log)
	if cfg.RedisURL != "" {
		rdb, err := pkgredis.NewClient(ctx, pkgredis.Config{URL: cfg.RedisURL})
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Redis = rdb
		checks["redis"] = func(ctx context.Context) error { return pkgredis.HealthCheck(ctx, rdb) }
		notifier = notify.NewRedisNotifier(rdb, cfg.NotifyChannel, log)
	}

	generator, embedder, err := newModels(ctx, cfg, log, app.Metrics)
	if err != nil {
		app.Close()
		return nil, err
	}

	scorer, err := scoring.NewScorer(scoring.Weights{Embedding: cfg.ScoreEmbeddingWeight, Skills: cfg.ScoreSkillWeight})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("scorer: %w", err)
	}
	engine, err := negotiation.NewEngine(generator, negotiation.Config{
		MaxTurns:      cfg.NegotiationMaxTurns,
		HireThreshold: cfg.NegotiationHireThreshold,
		FitWeight:     cfg.NegotiationFitWeight,
		SalaryWeight:  cfg.NegotiationSalaryWeight,
		CandidateFlex: cfg.NegotiationCandidateFlex,
		SalaryDecay:   cfg.NegotiationSalaryDecay,
	}, log.Named("negotiation"))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("negotiation engine: %w", err)
	}
	app.Scorer, app.Engine = scorer, engine

	r := app.Repos
	app.ProfileUC = usecase.NewProfileUsecase(r.Profiles, embedder, log)
	app.JobUC = usecase.NewJobUsecase(r.Jobs, r.Profiles, scorer, embedder, log)
	app.SwipeUC = usecase.NewSwipeUsecase(usecase.SwipeDeps{
		Swipes:   r.Swipes,
		Matches:  r.Matches,
		Jobs:     r.Jobs,
		Profiles: r.Profiles,
		Scorer:   scorer,
		Notifier: notifier,
		Recorder: app.Metrics,
		Log:      log,
	})
	app.MatchUC = usecase.NewMatchUsecase(r.Profiles, r.Jobs, scorer, embedder, generator, log)
	app.NegotiationUC = usecase.NewNegotiationUsecase(usecase.NegotiationDeps{
		Sessions: r.Negotiations,
		Profiles: r.Profiles,
		Jobs:     r.Jobs,
		Scorer:   scorer,
		Engine:   engine,
		Recorder: app.Metrics,
		Log:      log,
	})
	app.HealthUC = usecase.NewHealthUsecase(checks)

	return app, nil
}

// newModels returns the guarded Gemini collaborators, or stand-ins that fail
// every call when no API key is configured.
func newModels(ctx context.Context, cfg *config.Config, log *zap.Logger, observer resilience.Observer) (llm.Generator, llm.Embedder, error) {
	if cfg.GeminiAPIKey == "" {
		return llm.Unavailable{}, llm.Unavailable{}, nil
	}
	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEmbeddingModel)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini: %w", err)
	}

	policy := resilience.Policy{
		Timeout:        cfg.ExternalTimeout,
		MaxAttempts:    cfg.ExternalMaxAttempts,
		InitialBackoff: cfg.ExternalBackoffInitial,
		MaxBackoff:     cfg.ExternalBackoffMax,
		Concurrency:    cfg.ExternalConcurrency,
		BreakerOpenFor: resilience.DefaultPolicy().BreakerOpenFor,
	}
	log.Info("gemini configured", zap.String("model", client.Model()))
	generator := llm.Guard(client, resilience.NewGuard("text_generation", policy, log, observer))
	embedder := llm.GuardEmbedder(client, resilience.NewGuard("embedding", policy, log, observer))
	return generator, embedder, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
