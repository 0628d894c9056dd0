package viz

import (
	"context"
	"testing"

	"github.com/tabletalk/tabletalk/internal/genai"
	"github.com/tabletalk/tabletalk/internal/schema"
)

type fakeCompleter struct {
	requests []genai.Request
	text     string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, req genai.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func salesSchema() schema.Descriptor {
	return schema.Descriptor{
		TableName: "product_sales",
		Columns: []schema.Column{
			{Name: "region", DataType: "VARCHAR"},
			{Name: "price", DataType: "DOUBLE"},
		},
	}
}

func TestSuggestFiltersAndCapsReply(t *testing.T) {
	completer := &fakeCompleter{text: "BAR_CHART, 'PIE_CHART', WORD_CLOUD, BAR_CHART, HISTOGRAM, LINE_CHART, BOX_PLOT"}
	suggester, err := NewSuggester(completer, nil)
	if err != nil {
		t.Fatalf("NewSuggester() error = %v", err)
	}

	suggestions, err := suggester.Suggest(context.Background(), salesSchema())
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(suggestions) != maxSuggestions {
		t.Fatalf("suggestions = %d, want cap of %d", len(suggestions), maxSuggestions)
	}
	if suggestions[0].Type != BarChart {
		t.Fatalf("first suggestion = %q", suggestions[0].Type)
	}
	for _, suggestion := range suggestions {
		if !isSupported(suggestion.Type) {
			t.Fatalf("unsupported type %q leaked through", suggestion.Type)
		}
	}

	if len(completer.requests) != 1 {
		t.Fatalf("requests = %d", len(completer.requests))
	}
	if completer.requests[0].Temperature != 0 {
		t.Fatalf("Temperature = %v", completer.requests[0].Temperature)
	}
}

func TestSuggestRejectsInvalidSchema(t *testing.T) {
	completer := &fakeCompleter{text: "BAR_CHART"}
	suggester, _ := NewSuggester(completer, nil)

	if _, err := suggester.Suggest(context.Background(), schema.Descriptor{}); err == nil {
		t.Fatal("expected error for invalid schema")
	}
	if len(completer.requests) != 0 {
		t.Fatal("invalid schema must not reach the completion endpoint")
	}
}

func TestRecognizeNormalizesRequest(t *testing.T) {
	completer := &fakeCompleter{text: "PIE_CHART"}
	suggester, _ := NewSuggester(completer, nil)

	types, err := suggester.Recognize(context.Background(), "can I get a pie graph of regions")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if len(types) != 1 || types[0] != PieChart {
		t.Fatalf("types = %#v", types)
	}
}

func TestRecognizeUnknownReplyFails(t *testing.T) {
	completer := &fakeCompleter{text: "TREEMAP"}
	suggester, _ := NewSuggester(completer, nil)

	if _, err := suggester.Recognize(context.Background(), "show a treemap"); err == nil {
		t.Fatal("expected error when nothing supported is recognized")
	}
}

func TestParsePlotTypesDeduplicates(t *testing.T) {
	types := parsePlotTypes(`BAR_CHART, "BAR_CHART", HISTOGRAM`)
	if len(types) != 2 {
		t.Fatalf("types = %#v", types)
	}
}
