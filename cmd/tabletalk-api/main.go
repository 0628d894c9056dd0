package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tabletalk/tabletalk/internal/api"
	"github.com/tabletalk/tabletalk/internal/auth"
	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/dataset"
	"github.com/tabletalk/tabletalk/internal/genai"
	"github.com/tabletalk/tabletalk/internal/history"
	historypostgres "github.com/tabletalk/tabletalk/internal/history/postgres"
	"github.com/tabletalk/tabletalk/internal/nl2sql"
	"github.com/tabletalk/tabletalk/internal/observability"
	duckdbengine "github.com/tabletalk/tabletalk/internal/query/duckdb"
	s3store "github.com/tabletalk/tabletalk/internal/storage/s3"
	"github.com/tabletalk/tabletalk/internal/viz"
)

func main() {
	cfg, err := config.LoadFromEnv("tabletalk-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	datasets := dataset.NewStore()
	defer datasets.Close()
	queryEngine := duckdbengine.NewEngine()

	deps := api.Dependencies{
		Logger:            logger,
		Datasets:          datasets,
		QueryEngine:       queryEngine,
		MaxUploadBytes:    cfg.Ingest.MaxUploadBytes,
		PreviewRows:       cfg.Ingest.PreviewRows,
		HistoryLimit:      50,
		DependencyTimeout: time.Second,
	}

	readiness := []api.ReadinessCheck{
		api.CheckTranslationConfig(cfg),
		api.CheckArchiveConfig(cfg),
	}

	if cfg.AI.TranslateEnabled {
		completions, err := genai.NewClient(genai.Config{
			BaseURL: cfg.AI.BaseURL,
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize completion client", slog.Any("error", err))
			os.Exit(1)
		}
		translator, err := nl2sql.NewChatTranslator(completions, cfg.AI.Model, cfg.AI.MaxTokens, logger)
		if err != nil {
			logger.Error("failed to initialize query translator", slog.Any("error", err))
			os.Exit(1)
		}
		suggester, err := viz.NewSuggester(completions, logger)
		if err != nil {
			logger.Error("failed to initialize chart suggester", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Translator = translator
		deps.Advisor = suggester
	}

	if cfg.History.DSN != "" {
		historyDB, err := historypostgres.Open(context.Background(), historypostgres.DBConfig{
			DSN:             cfg.History.DSN,
			MaxOpenConns:    cfg.History.MaxOpenConns,
			MaxIdleConns:    cfg.History.MaxIdleConns,
			ConnMaxIdleTime: cfg.History.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.History.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = historyDB.Close() }()

		historyRepo := historypostgres.NewRepository(historyDB)
		deps.History = historyRepo
		readiness = append(readiness, historyRepo.HealthCheck)
	}

	if cfg.Archive.Enabled {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Uploads = objectStore
		if deps.History != nil {
			deps.Archiver = &history.Archiver{
				Repo:   deps.History,
				Store:  objectStore,
				Logger: logger,
			}
		}
	}

	deps.Readiness = api.CombineReadinessChecks(readiness...)

	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
