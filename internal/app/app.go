package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"NewsCurator/internal/config"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/feed"
	"NewsCurator/internal/infrastructure/feeds"
	"NewsCurator/internal/infrastructure/httpapi"
	"NewsCurator/internal/infrastructure/llm"
	"NewsCurator/internal/infrastructure/scheduler"
	"NewsCurator/internal/infrastructure/storage"
	"NewsCurator/internal/logging"
	"NewsCurator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *sql.DB
	engine  *gin.Engine
	trigger *usecase.DailyTrigger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := storage.NewPostgresRepository(db)

	registry := feed.NewRegistry()
	registry.Register(feeds.NewRSSFetcher(nil))
	source := feeds.NewStrategySource(registry, cfg.Sources, logging.Component(baseLogger, "source"))

	chat := llm.NewChatClient(cfg.Evaluator)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Cycles:    repo,
		Posts:     repo,
		Ratings:   repo,
		Groups:    repo,
		Articles:  repo,
		Evaluator: llm.NewEvaluator(chat),
		Clusterer: llm.NewClusterer(chat),
		Generator: llm.NewGenerator(chat),
		Criteria:  toDomainCriteria(cfg.Criteria),
		Workers:   cfg.Rating.Workers,
		Retries:   cfg.Rating.RetryAttempts,
		Logger:    logging.Component(baseLogger, "pipeline"),
	})

	cycles := usecase.NewCycles(repo, cfg.Selection.DefaultTopCount, logging.Component(baseLogger, "cycles"))
	editorial := usecase.NewEditorial(repo, repo, logging.Component(baseLogger, "editorial"))

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	trigger := usecase.NewDailyTrigger(driver, cycles, pipeline, logging.Component(baseLogger, "trigger"))

	engine := gin.New()
	engine.Use(gin.Recovery())
	handler := httpapi.NewHandler(cycles, editorial, pipeline, repo, logging.Component(baseLogger, "httpapi"))
	httpapi.SetupRoutes(engine, handler)

	return &Application{
		cfg:     cfg,
		logger:  baseLogger,
		db:      db,
		engine:  engine,
		trigger: trigger,
	}, nil
}

// Run starts the daily trigger and the HTTP listener, and blocks until the
// context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.trigger.Start(ctx); err != nil {
		return fmt.Errorf("start trigger: %w", err)
	}

	server := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: a.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http api listening", "addr", a.cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.trigger.Stop(shutdownCtx); err != nil {
		a.logger.Warn("trigger stop", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return a.db.Close()
}

func toDomainCriteria(cfg config.CriteriaConfig) domain.CriteriaConfig {
	criteria := domain.CriteriaConfig{
		MinScore: cfg.MinScore,
		MaxScore: cfg.MaxScore,
	}
	for _, item := range cfg.Items {
		criteria.Criteria = append(criteria.Criteria, domain.Criterion{
			Name:    item.Name,
			Weight:  item.Weight,
			Enabled: item.Enabled,
		})
	}
	return criteria
}
