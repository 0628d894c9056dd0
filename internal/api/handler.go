package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tabletalk/tabletalk/internal/auth"
	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/dataset"
	"github.com/tabletalk/tabletalk/internal/history"
	"github.com/tabletalk/tabletalk/internal/nl2sql"
	"github.com/tabletalk/tabletalk/internal/observability"
	"github.com/tabletalk/tabletalk/internal/query"
	"github.com/tabletalk/tabletalk/internal/schema"
	"github.com/tabletalk/tabletalk/internal/storage"
	"github.com/tabletalk/tabletalk/internal/viz"
)

type ReadinessCheck func(ctx context.Context) error

// ChartAdvisor is the chart-suggestion surface consumed by the handlers,
// implemented by viz.Suggester.
type ChartAdvisor interface {
	Suggest(ctx context.Context, descriptor schema.Descriptor) ([]viz.Suggestion, error)
	Recognize(ctx context.Context, request string) ([]viz.PlotType, error)
}

type HistoryArchiver interface {
	ArchiveSession(ctx context.Context, sessionID string, limit int) (history.ArchiveResult, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Datasets          *dataset.Store
	QueryEngine       query.Engine
	Translator        nl2sql.Translator
	Advisor           ChartAdvisor
	History           history.Repository
	Archiver          HistoryArchiver
	Uploads           storage.ObjectStore
	MaxUploadBytes    int64
	PreviewRows       int
	HistoryLimit      int
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/ingest", func(w http.ResponseWriter, r *http.Request) {
		handleIngest(deps, w, r)
	})
	protected.HandleFunc("GET /v1/schema", func(w http.ResponseWriter, r *http.Request) {
		handleSchema(deps, w, r)
	})
	protected.HandleFunc("POST /v1/query/translate", func(w http.ResponseWriter, r *http.Request) {
		handleTranslate(deps, w, r)
	})
	protected.HandleFunc("POST /v1/query", func(w http.ResponseWriter, r *http.Request) {
		handleQuery(deps, w, r)
	})
	protected.HandleFunc("POST /v1/viz/suggest", func(w http.ResponseWriter, r *http.Request) {
		handleVizSuggest(deps, w, r)
	})
	protected.HandleFunc("POST /v1/viz/recognize", func(w http.ResponseWriter, r *http.Request) {
		handleVizRecognize(deps, w, r)
	})
	protected.HandleFunc("GET /v1/history", func(w http.ResponseWriter, r *http.Request) {
		handleHistoryList(deps, w, r)
	})
	protected.HandleFunc("POST /v1/history/archive", func(w http.ResponseWriter, r *http.Request) {
		handleHistoryArchive(deps, w, r)
	})

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("POST /v1/ingest", protectedHandler)
	mux.Handle("GET /v1/schema", protectedHandler)
	mux.Handle("POST /v1/query/translate", protectedHandler)
	mux.Handle("POST /v1/query", protectedHandler)
	mux.Handle("POST /v1/viz/suggest", protectedHandler)
	mux.Handle("POST /v1/viz/recognize", protectedHandler)
	mux.Handle("GET /v1/history", protectedHandler)
	mux.Handle("POST /v1/history/archive", protectedHandler)

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func CheckTranslationConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if !cfg.AI.TranslateEnabled {
			return nil
		}
		if cfg.AI.BaseURL == "" {
			return errors.New("translation base url is not configured")
		}
		if cfg.AI.APIKey == "" {
			return errors.New("translation api key is not configured")
		}
		return nil
	}
}

func CheckArchiveConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if !cfg.Archive.Enabled {
			return nil
		}
		if cfg.Archive.Endpoint == "" {
			return errors.New("archive endpoint is not configured")
		}
		if cfg.Archive.Bucket == "" {
			return errors.New("archive bucket is not configured")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}

var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

// sessionFromRequest reads the caller's session from the X-Session-ID
// header. Callers that never set the header share the "default" session.
func sessionFromRequest(r *http.Request) (string, error) {
	sessionID := strings.TrimSpace(r.Header.Get("X-Session-ID"))
	if sessionID == "" {
		return "default", nil
	}
	if !sessionIDPattern.MatchString(sessionID) {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return sessionID, nil
}

func requireRole(r *http.Request, role string) error {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	if identity.HasRole(role) {
		return nil
	}
	return fmt.Errorf("missing required role %q", role)
}
