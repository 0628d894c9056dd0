package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tabletalk/tabletalk/internal/ingest"
	"github.com/tabletalk/tabletalk/internal/observability"
	"github.com/tabletalk/tabletalk/internal/query"
	"github.com/tabletalk/tabletalk/internal/schema"
	"github.com/tabletalk/tabletalk/internal/storage"
	"github.com/tabletalk/tabletalk/internal/viz"
)

type ingestResponse struct {
	TableName   string           `json:"table_name"`
	Columns     []schema.Column  `json:"columns"`
	RowCount    int64            `json:"row_count"`
	Preview     *previewPayload  `json:"preview,omitempty"`
	Suggestions []viz.Suggestion `json:"suggestions,omitempty"`
	ArchivedKey string           `json:"archived_key,omitempty"`
}

type previewPayload struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func handleIngest(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Datasets == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "INGEST_NOT_CONFIGURED", "ingest dependencies are not configured", false, nil)
		return
	}

	sessionID, err := sessionFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SESSION", err.Error(), false, nil)
		return
	}
	if err := requireRole(r, "uploader"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	maxBytes := deps.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		status := http.StatusBadRequest
		code := "INVALID_MULTIPART"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
			code = "UPLOAD_TOO_LARGE"
		}
		writeError(r.Context(), w, status, code, "failed to parse multipart upload", false, map[string]any{"details": err.Error()})
		return
	}

	tableName := strings.TrimSpace(r.FormValue("table_name"))
	if tableName == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "TABLE_NAME_REQUIRED", "table_name form field is required", false, nil)
		return
	}

	startLine := 1
	if raw := strings.TrimSpace(r.FormValue("data_start_line")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_START_LINE", "data_start_line must be a positive integer", false, nil)
			return
		}
		startLine = parsed
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "FILE_REQUIRED", "file form field is required", false, map[string]any{"details": err.Error()})
		return
	}
	defer func() { _ = file.Close() }()

	// Buffer the raw upload only when it will also be archived.
	var reader io.Reader = file
	var archiveBuffer *bytes.Buffer
	if deps.Uploads != nil {
		archiveBuffer = &bytes.Buffer{}
		reader = io.TeeReader(file, archiveBuffer)
	}

	ds, err := ingest.LoadCSV(r.Context(), reader, ingest.Options{
		TableName: tableName,
		StartLine: startLine,
	})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INGEST_FAILED", "failed to load csv upload", false, map[string]any{"details": err.Error()})
		return
	}
	deps.Datasets.Put(sessionID, ds)
	observability.ObserveIngest(ds.RowCount)

	response := ingestResponse{
		TableName: ds.Descriptor.TableName,
		Columns:   ds.Descriptor.Columns,
		RowCount:  ds.RowCount,
	}

	if deps.QueryEngine != nil {
		previewRows := deps.PreviewRows
		if previewRows <= 0 {
			previewRows = 100
		}
		result, err := deps.QueryEngine.Execute(r.Context(), ds, query.Request{
			SQL:      "SELECT * FROM " + quoteIdent(ds.Descriptor.TableName),
			RowLimit: previewRows,
		})
		if err == nil {
			response.Preview = &previewPayload{Columns: result.Columns, Rows: result.Rows}
		} else if deps.Logger != nil {
			deps.Logger.Warn("ingest preview failed", "session", sessionID, "error", err)
		}
	}

	if deps.Advisor != nil {
		suggestions, err := deps.Advisor.Suggest(r.Context(), ds.Descriptor)
		if err == nil {
			response.Suggestions = suggestions
		} else if deps.Logger != nil {
			deps.Logger.Warn("chart suggestion failed", "session", sessionID, "error", err)
		}
	}

	if deps.Uploads != nil {
		key, err := storage.BuildUploadArchivePath(sessionID, ds.Descriptor.TableName, time.Now().UTC())
		if err == nil {
			_, err = deps.Uploads.Put(r.Context(), key, bytes.NewReader(archiveBuffer.Bytes()), int64(archiveBuffer.Len()), storage.PutOptions{ContentType: "text/csv"})
		}
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.Warn("upload archive failed", "session", sessionID, "error", err)
			}
		} else {
			response.ArchivedKey = key
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
