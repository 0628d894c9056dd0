package storage

import (
	"testing"
	"time"
)

func TestBuildUploadArchivePath(t *testing.T) {
	uploadedAt := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)

	path, err := BuildUploadArchivePath("default", "product_sales", uploadedAt)
	if err != nil {
		t.Fatalf("build upload archive path: %v", err)
	}
	want := "default/product_sales/uploads/upload-1785578400000.csv"
	if path != want {
		t.Fatalf("unexpected path: got %q want %q", path, want)
	}
}

func TestBuildHistoryArchivePath(t *testing.T) {
	archivedAt := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)

	path, err := BuildHistoryArchivePath("default", archivedAt)
	if err != nil {
		t.Fatalf("build history archive path: %v", err)
	}
	want := "default/history/records-1785578400000.parquet"
	if path != want {
		t.Fatalf("unexpected path: got %q want %q", path, want)
	}
}

func TestPathComponentsAreValidated(t *testing.T) {
	now := time.Now().UTC()

	if _, err := BuildUploadArchivePath("../escape", "table", now); err == nil {
		t.Fatal("expected error for traversal in session id")
	}
	if _, err := BuildUploadArchivePath("session", "bad/table", now); err == nil {
		t.Fatal("expected error for slash in table name")
	}
	if _, err := BuildHistoryArchivePath("", now); err == nil {
		t.Fatal("expected error for empty session id")
	}
}
