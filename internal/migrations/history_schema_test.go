package migrations

import (
	"strings"
	"testing"
)

func TestHistoryMigrationContainsRequiredObjects(t *testing.T) {
	body, err := embeddedFS.ReadFile("sql/000001_translation_history.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	sql := string(body)
	requiredSnippets := []string{
		"CREATE TABLE IF NOT EXISTS translation_history",
		"record_id BIGSERIAL PRIMARY KEY",
		"session_id TEXT NOT NULL",
		"question TEXT NOT NULL",
		"sql_text TEXT NOT NULL",
		"outcome TEXT NOT NULL",
		"created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
		"CREATE INDEX IF NOT EXISTS translation_history_session_idx",
	}

	for _, snippet := range requiredSnippets {
		if !strings.Contains(sql, snippet) {
			t.Fatalf("migration missing required snippet: %s", snippet)
		}
	}
}
