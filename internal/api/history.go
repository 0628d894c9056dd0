package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/tabletalk/tabletalk/internal/history"
)

func handleHistoryList(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.History == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "translation history is not configured", false, nil)
		return
	}

	sessionID, err := sessionFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SESSION", err.Error(), false, nil)
		return
	}
	if err := requireRole(r, "reader"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	limit := deps.HistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", false, nil)
			return
		}
		limit = parsed
	}

	records, err := deps.History.ListRecent(r.Context(), sessionID, limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_ERROR", "failed to list history", true, map[string]any{"details": err.Error()})
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": sessionID,
		"records": records,
	})
}

func handleHistoryArchive(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Archiver == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ARCHIVE_NOT_CONFIGURED", "history archival is not configured", false, nil)
		return
	}

	sessionID, err := sessionFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SESSION", err.Error(), false, nil)
		return
	}
	if err := requireRole(r, "reader"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	result, err := deps.Archiver.ArchiveSession(r.Context(), sessionID, deps.HistoryLimit)
	if err != nil {
		if errors.Is(err, history.ErrNothingToArchive) {
			writeError(r.Context(), w, http.StatusNotFound, "NOTHING_TO_ARCHIVE", "no history records to archive for this session", false, map[string]any{"session": sessionID})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "ARCHIVE_FAILED", "failed to archive history", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}
