package viz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tabletalk/tabletalk/internal/genai"
	"github.com/tabletalk/tabletalk/internal/observability"
	"github.com/tabletalk/tabletalk/internal/schema"
)

type PlotType string

const (
	BarChart    PlotType = "BAR_CHART"
	LineChart   PlotType = "LINE_CHART"
	ScatterPlot PlotType = "SCATTER_PLOT"
	Histogram   PlotType = "HISTOGRAM"
	BoxPlot     PlotType = "BOX_PLOT"
	PieChart    PlotType = "PIE_CHART"
)

var supportedPlotTypes = []PlotType{BarChart, LineChart, ScatterPlot, Histogram, BoxPlot, PieChart}

type Suggestion struct {
	Type   PlotType `json:"type"`
	Reason string   `json:"reason"`
}

type Completer interface {
	Complete(ctx context.Context, req genai.Request) (string, error)
}

const maxSuggestions = 4

// Suggester asks the completion endpoint which chart types fit a schema, and
// normalises free-text chart requests to the supported set. Replies are
// constrained to a bare comma-separated list so they parse without a second
// call.
type Suggester struct {
	completer Completer
	logger    *slog.Logger
}

func NewSuggester(completer Completer, logger *slog.Logger) (*Suggester, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Suggester{completer: completer, logger: logger}, nil
}

func (s *Suggester) Suggest(ctx context.Context, descriptor schema.Descriptor) ([]Suggestion, error) {
	if err := descriptor.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	system := "You are an expert data visualization assistant. Analyze the database table schema " +
		"below and suggest up to " + fmt.Sprint(maxSuggestions) + " relevant visualization types " +
		"based only on the column types it contains.\n\n" +
		descriptor.Render() +
		"\nThe possible visualization types are:\n" + plotTypeList() +
		"\nRules:\n" +
		"1. Respond with a comma-separated list of the suggested type names, verbatim.\n" +
		"2. Do not include any other text, explanations, markdown, or backticks.\n" +
		"3. Suggest at most " + fmt.Sprint(maxSuggestions) + " types and at least one.\n" +
		"Example output: BAR_CHART, LINE_CHART, HISTOGRAM, SCATTER_PLOT\n"

	text, err := s.completer.Complete(ctx, genai.Request{
		System:      system,
		User:        "Suggest visualizations for the schema above.",
		MaxTokens:   200,
		Temperature: 0,
		Stop:        []string{"\n\n", "\n"},
	})
	if err != nil {
		observability.ObserveChartSuggestion("error")
		s.logger.ErrorContext(ctx, "chart suggestion failed", slog.Any("error", err))
		return nil, fmt.Errorf("suggest visualizations: %w", err)
	}

	types := parsePlotTypes(text)
	if len(types) > maxSuggestions {
		types = types[:maxSuggestions]
	}
	suggestions := make([]Suggestion, 0, len(types))
	for _, plotType := range types {
		suggestions = append(suggestions, Suggestion{Type: plotType, Reason: "suggested from the table schema"})
	}
	observability.ObserveChartSuggestion("success")
	s.logger.InfoContext(ctx, "chart suggestion succeeded", slog.Int("count", len(suggestions)))
	return suggestions, nil
}

// Recognize maps a free-text chart request ("draw me a pie graph") onto the
// supported plot types.
func (s *Suggester) Recognize(ctx context.Context, request string) ([]PlotType, error) {
	if strings.TrimSpace(request) == "" {
		return nil, fmt.Errorf("visualization request is empty")
	}

	system := "You recognize which data visualization types a user is asking for.\n" +
		"The possible visualization types are:\n" + plotTypeList() +
		"\nRules:\n" +
		"1. Respond only with the verbatim type names from the list above, comma-separated.\n" +
		"2. Do not include any other text, explanations, markdown, or backticks.\n"

	text, err := s.completer.Complete(ctx, genai.Request{
		System:      system,
		User:        "Recognize the visualization types requested here: " + request,
		MaxTokens:   60,
		Temperature: 0,
		Stop:        []string{"\n\n", "\n"},
	})
	if err != nil {
		observability.ObserveChartSuggestion("error")
		return nil, fmt.Errorf("recognize visualization request: %w", err)
	}

	types := parsePlotTypes(text)
	if len(types) == 0 {
		return nil, fmt.Errorf("no supported visualization type recognized in %q", request)
	}
	observability.ObserveChartSuggestion("success")
	return types, nil
}

// parsePlotTypes splits a comma-separated reply, strips stray quoting, and
// keeps only known types, first occurrence wins.
func parsePlotTypes(text string) []PlotType {
	seen := map[PlotType]struct{}{}
	types := make([]PlotType, 0, maxSuggestions)
	for _, part := range strings.Split(text, ",") {
		candidate := PlotType(strings.Trim(strings.TrimSpace(part), `'"`))
		if !isSupported(candidate) {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		types = append(types, candidate)
	}
	return types
}

func isSupported(candidate PlotType) bool {
	for _, plotType := range supportedPlotTypes {
		if candidate == plotType {
			return true
		}
	}
	return false
}

func plotTypeList() string {
	var b strings.Builder
	for _, plotType := range supportedPlotTypes {
		b.WriteString(" - ")
		b.WriteString(string(plotType))
		b.WriteString("\n")
	}
	return b.String()
}
