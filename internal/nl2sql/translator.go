package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tabletalk/tabletalk/internal/genai"
	"github.com/tabletalk/tabletalk/internal/observability"
	"github.com/tabletalk/tabletalk/internal/schema"
)

type Request struct {
	Schema   schema.Descriptor `json:"schema"`
	Question string            `json:"question"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}

// Completer is the completion transport consumed by the translator,
// implemented by genai.Client.
type Completer interface {
	Complete(ctx context.Context, req genai.Request) (string, error)
}

// Generation constraints. Temperature is pinned to zero and generation stops
// at the first statement terminator or blank line, so the model can never
// append trailing commentary. These are contract, not tuning knobs.
const (
	translationTemperature = 0.0
	defaultMaxTokens       = 200
	providerName           = "openai-compatible"
)

var translationStop = []string{";", "\n\n"}

// ChatTranslator maps a question plus schema descriptor into one DuckDB SQL
// string via a chat completion endpoint. It holds no mutable state across
// calls and is safe for concurrent use.
type ChatTranslator struct {
	completer Completer
	model     string
	maxTokens int
	logger    *slog.Logger
}

func NewChatTranslator(completer Completer, model string, maxTokens int, logger *slog.Logger) (*ChatTranslator, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatTranslator{
		completer: completer,
		model:     strings.TrimSpace(model),
		maxTokens: maxTokens,
		logger:    logger,
	}, nil
}

// Translate performs a single translation attempt. Every call produces
// exactly one log record carrying the outcome kind; no retries happen here.
func (t *ChatTranslator) Translate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	prompt, err := Compile(req.Schema, req.Question)
	if err != nil {
		var translationErr *Error
		errors.As(err, &translationErr)
		return Result{}, t.fail(ctx, start, translationErr)
	}

	text, err := t.completer.Complete(ctx, genai.Request{
		System:      prompt.System,
		User:        prompt.User,
		MaxTokens:   t.maxTokens,
		Temperature: translationTemperature,
		Stop:        translationStop,
	})
	if err != nil {
		return Result{}, t.fail(ctx, start, classify(err))
	}

	sql := strings.TrimSpace(stripMarkdownSQL(text))
	if sql == "" {
		return Result{}, t.fail(ctx, start, newError(KindTranslationEmpty, "completion contained no query text", nil))
	}

	t.logger.InfoContext(ctx, "translation succeeded",
		slog.String("model", t.model),
		slog.Duration("elapsed", time.Since(start)),
	)
	observability.ObserveTranslation("success", time.Since(start))
	return Result{SQL: sql, Provider: providerName, Model: t.model}, nil
}

func (t *ChatTranslator) fail(ctx context.Context, start time.Time, err *Error) *Error {
	attrs := []any{
		slog.String("kind", string(err.Kind)),
		slog.String("detail", err.Detail),
		slog.String("model", t.model),
		slog.Duration("elapsed", time.Since(start)),
	}
	var serviceErr *genai.ServiceError
	if errors.As(err, &serviceErr) {
		attrs = append(attrs, slog.Int("status", serviceErr.Status), slog.String("body", serviceErr.Body))
	}
	t.logger.ErrorContext(ctx, "translation failed", attrs...)
	observability.ObserveTranslation(string(err.Kind), time.Since(start))
	return err
}

// classify maps transport-layer errors onto the closed failure kind set.
func classify(err error) *Error {
	if errors.Is(err, genai.ErrEmptyCompletion) {
		return newError(KindTranslationEmpty, "completion endpoint returned no text", err)
	}
	var serviceErr *genai.ServiceError
	if errors.As(err, &serviceErr) {
		return newError(KindServiceError, serviceErr.Error(), err)
	}
	return newError(KindUnknown, err.Error(), err)
}

// stripMarkdownSQL removes code fencing a model may emit despite the rules.
func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return strings.Trim(trimmed, "`")
}
