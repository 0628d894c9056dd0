package history

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/tabletalk/tabletalk/internal/storage"
)

type fakeRepository struct {
	records []Record
	err     error
}

func (f *fakeRepository) InsertRecord(ctx context.Context, in InsertRecordInput) (Record, error) {
	return Record{}, nil
}

func (f *fakeRepository) ListRecent(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeObjectStore struct {
	lastKey  string
	lastSize int64
	lastType string
	body     []byte
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.lastKey = key
	f.lastSize = size
	f.lastType = opts.ContentType
	f.body = data
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.body)), nil
}

func (f *fakeObjectStore) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{Key: key, Size: int64(len(f.body))}, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	return nil
}

func TestArchiveSessionWritesParquetObject(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	repo := &fakeRepository{records: []Record{
		{RecordID: 2, SessionID: "default", TableName: "product_sales", Question: "total revenue?", SQLText: "SELECT SUM(revenue) FROM product_sales", Outcome: "success", CreatedAt: now},
		{RecordID: 1, SessionID: "default", TableName: "product_sales", Question: "how many rows?", SQLText: "SELECT COUNT(*) FROM product_sales", Outcome: "success", CreatedAt: now.Add(-time.Minute)},
	}}
	store := &fakeObjectStore{}
	archiver := &Archiver{Repo: repo, Store: store, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	result, err := archiver.ArchiveSession(context.Background(), "default", 50)
	if err != nil {
		t.Fatalf("archive session: %v", err)
	}
	if result.RecordCount != 2 {
		t.Fatalf("expected 2 records archived, got %d", result.RecordCount)
	}
	if !strings.HasPrefix(store.lastKey, "default/history/records-") || !strings.HasSuffix(store.lastKey, ".parquet") {
		t.Fatalf("unexpected object key %q", store.lastKey)
	}
	if store.lastType != "application/vnd.apache.parquet" {
		t.Fatalf("unexpected content type %q", store.lastType)
	}
	if len(store.body) == 0 {
		t.Fatal("expected parquet payload to be written")
	}
	if result.ObjectKey != store.lastKey {
		t.Fatalf("result key %q does not match stored key %q", result.ObjectKey, store.lastKey)
	}
	if result.MinCreatedAt == nil || result.MaxCreatedAt == nil {
		t.Fatal("expected created-at bounds in archive result")
	}
	if result.MinCreatedAt.After(*result.MaxCreatedAt) {
		t.Fatalf("min created %v after max created %v", result.MinCreatedAt, result.MaxCreatedAt)
	}
}

func TestArchiveSessionEmptyHistory(t *testing.T) {
	archiver := &Archiver{Repo: &fakeRepository{}, Store: &fakeObjectStore{}}

	_, err := archiver.ArchiveSession(context.Background(), "default", 50)
	if err != ErrNothingToArchive {
		t.Fatalf("expected ErrNothingToArchive, got %v", err)
	}
}
