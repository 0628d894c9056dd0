package history

import (
	"context"
	"time"
)

// Record is one audited translation attempt: the question asked, the SQL
// produced (empty on failure), and the outcome kind.
type Record struct {
	RecordID  int64     `json:"record_id"`
	SessionID string    `json:"session_id"`
	TableName string    `json:"table_name"`
	Question  string    `json:"question"`
	SQLText   string    `json:"sql"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type InsertRecordInput struct {
	SessionID string
	TableName string
	Question  string
	SQLText   string
	Outcome   string
	Detail    string
}

type Repository interface {
	InsertRecord(ctx context.Context, in InsertRecordInput) (Record, error)
	ListRecent(ctx context.Context, sessionID string, limit int) ([]Record, error)
}
