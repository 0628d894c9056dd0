package nl2sql

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/tabletalk/tabletalk/internal/genai"
)

type fakeCompleter struct {
	mu       sync.Mutex
	requests []genai.Request
	text     string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, req genai.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type countingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *countingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}
func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler      { return h }

func newTestTranslator(t *testing.T, completer Completer) (*ChatTranslator, *countingHandler) {
	t.Helper()
	handler := &countingHandler{}
	translator, err := NewChatTranslator(completer, "test-model", 0, slog.New(handler))
	if err != nil {
		t.Fatalf("NewChatTranslator() error = %v", err)
	}
	return translator, handler
}

func TestTranslateEnforcesGenerationConstraints(t *testing.T) {
	completer := &fakeCompleter{text: "SELECT region, SUM(price) FROM product_sales GROUP BY region"}
	translator, _ := newTestTranslator(t, completer)

	result, err := translator.Translate(context.Background(), Request{
		Schema:   productSalesSchema(),
		Question: "total price per region",
	})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if result.SQL != completer.text {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Model != "test-model" {
		t.Fatalf("Model = %q", result.Model)
	}

	if len(completer.requests) != 1 {
		t.Fatalf("requests = %d", len(completer.requests))
	}
	sent := completer.requests[0]
	if sent.Temperature != 0 {
		t.Fatalf("Temperature = %v, must be pinned to zero", sent.Temperature)
	}
	if sent.MaxTokens != defaultMaxTokens {
		t.Fatalf("MaxTokens = %d", sent.MaxTokens)
	}
	if len(sent.Stop) != 2 || sent.Stop[0] != ";" || sent.Stop[1] != "\n\n" {
		t.Fatalf("Stop = %#v", sent.Stop)
	}
}

func TestTranslateStripsCodeFences(t *testing.T) {
	completer := &fakeCompleter{text: "```sql\nSELECT 1\n```"}
	translator, _ := newTestTranslator(t, completer)

	result, err := translator.Translate(context.Background(), Request{
		Schema:   productSalesSchema(),
		Question: "select one",
	})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if strings.Contains(result.SQL, "`") {
		t.Fatalf("SQL contains fence characters: %q", result.SQL)
	}
	if result.SQL != "SELECT 1" {
		t.Fatalf("SQL = %q", result.SQL)
	}
}

func TestTranslateServiceFailureLogsOnce(t *testing.T) {
	completer := &fakeCompleter{err: &genai.ServiceError{Status: 500, Body: "upstream overloaded"}}
	translator, handler := newTestTranslator(t, completer)

	_, err := translator.Translate(context.Background(), Request{
		Schema:   productSalesSchema(),
		Question: "total price per region",
	})
	if KindOf(err) != KindServiceError {
		t.Fatalf("KindOf(err) = %q, want %q", KindOf(err), KindServiceError)
	}
	if len(handler.records) != 1 {
		t.Fatalf("log records = %d, want exactly 1", len(handler.records))
	}

	var status int64
	var body string
	handler.records[0].Attrs(func(attr slog.Attr) bool {
		switch attr.Key {
		case "status":
			status = attr.Value.Int64()
		case "body":
			body = attr.Value.String()
		}
		return true
	})
	if status != 500 {
		t.Fatalf("logged status = %d", status)
	}
	if body != "upstream overloaded" {
		t.Fatalf("logged body = %q", body)
	}
}

func TestTranslateEmptyCompletionIsNotServiceError(t *testing.T) {
	completer := &fakeCompleter{err: genai.ErrEmptyCompletion}
	translator, _ := newTestTranslator(t, completer)

	_, err := translator.Translate(context.Background(), Request{
		Schema:   productSalesSchema(),
		Question: "total price per region",
	})
	if KindOf(err) != KindTranslationEmpty {
		t.Fatalf("KindOf(err) = %q, want %q", KindOf(err), KindTranslationEmpty)
	}
}

func TestTranslateBlankTextAfterTrimIsTranslationEmpty(t *testing.T) {
	completer := &fakeCompleter{text: "``````"}
	translator, _ := newTestTranslator(t, completer)

	_, err := translator.Translate(context.Background(), Request{
		Schema:   productSalesSchema(),
		Question: "total price per region",
	})
	if KindOf(err) != KindTranslationEmpty {
		t.Fatalf("KindOf(err) = %q, want %q", KindOf(err), KindTranslationEmpty)
	}
}

func TestTranslateInputErrorsSkipNetworkCall(t *testing.T) {
	completer := &fakeCompleter{text: "SELECT 1"}
	translator, _ := newTestTranslator(t, completer)

	_, err := translator.Translate(context.Background(), Request{
		Schema:   productSalesSchema(),
		Question: "  ",
	})
	if KindOf(err) != KindEmptyQuestion {
		t.Fatalf("KindOf(err) = %q, want %q", KindOf(err), KindEmptyQuestion)
	}
	if len(completer.requests) != 0 {
		t.Fatalf("requests = %d, input errors must fail before any network call", len(completer.requests))
	}
}

func TestTranslateUnexpectedErrorIsUnknown(t *testing.T) {
	completer := &fakeCompleter{err: context.DeadlineExceeded}
	translator, _ := newTestTranslator(t, completer)

	_, err := translator.Translate(context.Background(), Request{
		Schema:   productSalesSchema(),
		Question: "total price per region",
	})
	if KindOf(err) != KindUnknown {
		t.Fatalf("KindOf(err) = %q, want %q", KindOf(err), KindUnknown)
	}
}
