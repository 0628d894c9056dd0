package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

type recognizeRequest struct {
	Request string `json:"request"`
}

func handleVizSuggest(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Advisor == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "VIZ_NOT_CONFIGURED", "chart suggestions are not configured", false, nil)
		return
	}
	_, ds, ok := sessionDataset(deps, w, r)
	if !ok {
		return
	}

	suggestions, err := deps.Advisor.Suggest(r.Context(), ds.Descriptor)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "VIZ_SUGGEST_FAILED", "failed to suggest charts", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table_name":  ds.Descriptor.TableName,
		"suggestions": suggestions,
	})
}

func handleVizRecognize(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Advisor == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "VIZ_NOT_CONFIGURED", "chart suggestions are not configured", false, nil)
		return
	}
	if err := requireRole(r, "reader"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var req recognizeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid recognize request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(req.Request) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "REQUEST_REQUIRED", "request text is required", false, nil)
		return
	}

	plotTypes, err := deps.Advisor.Recognize(r.Context(), req.Request)
	if err != nil {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "VIZ_NOT_RECOGNIZED", "no supported chart type matched the request", false, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plot_types": plotTypes})
}
