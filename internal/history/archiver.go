package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tabletalk/tabletalk/internal/storage"
)

// ErrNothingToArchive is returned when a session has no recorded
// translations to flush.
var ErrNothingToArchive = errors.New("no history records to archive")

// ArchiveResult describes a completed flush of session history to the
// object store.
type ArchiveResult struct {
	ObjectKey    string     `json:"object_key"`
	RecordCount  int64      `json:"record_count"`
	SizeBytes    int64      `json:"size_bytes"`
	MinCreatedAt *time.Time `json:"min_created_at,omitempty"`
	MaxCreatedAt *time.Time `json:"max_created_at,omitempty"`
}

// Archiver encodes recent session history as Parquet and writes it to
// the object store for long-term retention.
type Archiver struct {
	Repo   Repository
	Store  storage.ObjectStore
	Logger *slog.Logger
}

func (a *Archiver) ArchiveSession(ctx context.Context, sessionID string, limit int) (ArchiveResult, error) {
	records, err := a.Repo.ListRecent(ctx, sessionID, limit)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("list history: %w", err)
	}
	if len(records) == 0 {
		return ArchiveResult{}, ErrNothingToArchive
	}

	encoded, err := EncodeRecordsToParquet(records)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("encode history: %w", err)
	}

	archivedAt := time.Now().UTC()
	key, err := storage.BuildHistoryArchivePath(sessionID, archivedAt)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("build archive path: %w", err)
	}

	info, err := a.Store.Put(ctx, key, bytes.NewReader(encoded.Data), int64(len(encoded.Data)), storage.PutOptions{
		ContentType: "application/vnd.apache.parquet",
	})
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("put archive object: %w", err)
	}

	if a.Logger != nil {
		a.Logger.Info("history archived",
			slog.String("session", sessionID),
			slog.String("object_key", key),
			slog.Int64("records", encoded.RecordCount),
			slog.Int64("size_bytes", info.Size),
		)
	}

	return ArchiveResult{
		ObjectKey:    key,
		RecordCount:  encoded.RecordCount,
		SizeBytes:    info.Size,
		MinCreatedAt: encoded.MinCreatedAt,
		MaxCreatedAt: encoded.MaxCreatedAt,
	}, nil
}
