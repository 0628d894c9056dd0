package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tabletalk/tabletalk/internal/dataset"
	"github.com/tabletalk/tabletalk/internal/history"
	"github.com/tabletalk/tabletalk/internal/nl2sql"
	"github.com/tabletalk/tabletalk/internal/observability"
	"github.com/tabletalk/tabletalk/internal/query"
)

type translateRequest struct {
	Question string `json:"question"`
}

type queryRequest struct {
	Question string `json:"question"`
	RowLimit int    `json:"row_limit"`
}

type queryResponse struct {
	SQL     string         `json:"sql"`
	Columns []string       `json:"columns"`
	Rows    [][]any        `json:"rows"`
	Stats   map[string]any `json:"stats"`
}

func handleTranslate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Translator == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TRANSLATE_NOT_CONFIGURED", "query translation is not configured", false, nil)
		return
	}

	sessionID, ds, ok := sessionDataset(deps, w, r)
	if !ok {
		return
	}

	var req translateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid translation request body", false, map[string]any{"details": err.Error()})
		return
	}

	result, err := deps.Translator.Translate(r.Context(), nl2sql.Request{
		Schema:   ds.Descriptor,
		Question: req.Question,
	})
	if err != nil {
		recordTranslation(deps, r.Context(), sessionID, ds, req.Question, "", err)
		writeTranslationError(r.Context(), w, err)
		return
	}
	recordTranslation(deps, r.Context(), sessionID, ds, req.Question, result.SQL, nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"sql":      result.SQL,
		"provider": result.Provider,
		"model":    result.Model,
	})
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Translator == nil || deps.QueryEngine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query dependencies are not configured", false, nil)
		return
	}

	sessionID, ds, ok := sessionDataset(deps, w, r)
	if !ok {
		return
	}

	var req queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}

	translated, err := deps.Translator.Translate(r.Context(), nl2sql.Request{
		Schema:   ds.Descriptor,
		Question: req.Question,
	})
	if err != nil {
		recordTranslation(deps, r.Context(), sessionID, ds, req.Question, "", err)
		writeTranslationError(r.Context(), w, err)
		return
	}
	recordTranslation(deps, r.Context(), sessionID, ds, req.Question, translated.SQL, nil)

	// Only SQL produced by this call is executed; nothing is replayed from
	// history or prior requests.
	result, err := deps.QueryEngine.Execute(r.Context(), ds, query.Request{
		SQL:      translated.SQL,
		RowLimit: req.RowLimit,
	})
	if err != nil {
		observability.ObserveQueryExecution("error")
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "query execution failed", false, map[string]any{
			"sql":     translated.SQL,
			"details": err.Error(),
		})
		return
	}
	observability.ObserveQueryExecution("success")

	writeJSON(w, http.StatusOK, queryResponse{
		SQL:     translated.SQL,
		Columns: result.Columns,
		Rows:    result.Rows,
		Stats: map[string]any{
			"duration_ms": result.Duration.Milliseconds(),
			"row_count":   len(result.Rows),
		},
	})
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	_, ds, ok := sessionDataset(deps, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table_name":  ds.Descriptor.TableName,
		"columns":     ds.Descriptor.Columns,
		"row_count":   ds.RowCount,
		"ingested_at": ds.IngestedAt,
	})
}

func sessionDataset(deps Dependencies, w http.ResponseWriter, r *http.Request) (string, *dataset.Dataset, bool) {
	if deps.Datasets == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "DATASET_NOT_CONFIGURED", "dataset store is not configured", false, nil)
		return "", nil, false
	}
	sessionID, err := sessionFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SESSION", err.Error(), false, nil)
		return "", nil, false
	}
	if err := requireRole(r, "reader"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return "", nil, false
	}
	ds, err := deps.Datasets.Get(sessionID)
	if err != nil {
		writeError(r.Context(), w, http.StatusNotFound, "DATASET_NOT_FOUND", "no dataset has been ingested for this session", false, map[string]any{"session": sessionID})
		return "", nil, false
	}
	return sessionID, ds, true
}

// writeTranslationError maps the closed set of translation failure kinds to
// HTTP statuses. Upstream faults are retryable; empty completions and bad
// input are not.
func writeTranslationError(ctx context.Context, w http.ResponseWriter, err error) {
	switch nl2sql.KindOf(err) {
	case nl2sql.KindInvalidSchema:
		writeError(ctx, w, http.StatusBadRequest, "INVALID_SCHEMA", err.Error(), false, nil)
	case nl2sql.KindEmptyQuestion:
		writeError(ctx, w, http.StatusBadRequest, "QUESTION_REQUIRED", err.Error(), false, nil)
	case nl2sql.KindTranslationEmpty:
		writeError(ctx, w, http.StatusUnprocessableEntity, "TRANSLATE_EMPTY", "translation produced no sql", false, nil)
	default:
		writeError(ctx, w, http.StatusBadGateway, "TRANSLATE_UNAVAILABLE", "translation service unavailable", true, nil)
	}
}

func recordTranslation(deps Dependencies, ctx context.Context, sessionID string, ds *dataset.Dataset, question, sqlText string, translateErr error) {
	if deps.History == nil {
		return
	}
	outcome := "success"
	detail := ""
	if translateErr != nil {
		outcome = string(nl2sql.KindOf(translateErr))
		detail = translateErr.Error()
	}
	_, err := deps.History.InsertRecord(ctx, history.InsertRecordInput{
		SessionID: sessionID,
		TableName: ds.Descriptor.TableName,
		Question:  strings.TrimSpace(question),
		SQLText:   sqlText,
		Outcome:   outcome,
		Detail:    detail,
	})
	if err != nil && deps.Logger != nil {
		deps.Logger.Warn("history insert failed", "session", sessionID, "error", err)
	}
}
