package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/tabletalk/tabletalk/internal/history"
)

func newSQLMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestInsertRecord(t *testing.T) {
	repo, mock := newSQLMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
INSERT INTO translation_history (session_id, table_name, question, sql_text, outcome, detail)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING record_id, created_at`)).
		WithArgs("default", "product_sales", "total price per region", "SELECT region, SUM(price) FROM product_sales GROUP BY region", "success", "").
		WillReturnRows(sqlmock.NewRows([]string{"record_id", "created_at"}).AddRow(int64(7), now))

	record, err := repo.InsertRecord(context.Background(), history.InsertRecordInput{
		SessionID: "default",
		TableName: "product_sales",
		Question:  "total price per region",
		SQLText:   "SELECT region, SUM(price) FROM product_sales GROUP BY region",
		Outcome:   "success",
	})
	if err != nil {
		t.Fatalf("InsertRecord() error = %v", err)
	}
	if record.RecordID != 7 {
		t.Fatalf("RecordID = %d", record.RecordID)
	}
	if !record.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v", record.CreatedAt)
	}
	assertSQLMock(t, mock)
}

func TestListRecentDefaultsLimit(t *testing.T) {
	repo, mock := newSQLMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT record_id, session_id, table_name, question, sql_text, outcome, detail, created_at
FROM translation_history
WHERE session_id = $1
ORDER BY record_id DESC
LIMIT $2`)).
		WithArgs("default", 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"record_id", "session_id", "table_name", "question", "sql_text", "outcome", "detail", "created_at",
		}).AddRow(int64(2), "default", "product_sales", "q2", "SELECT 2", "success", "", now).
			AddRow(int64(1), "default", "product_sales", "q1", "", "service_error", "status=500", now))

	records, err := repo.ListRecent(context.Background(), "default", 0)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}
	if records[1].Outcome != "service_error" {
		t.Fatalf("Outcome = %q", records[1].Outcome)
	}
	assertSQLMock(t, mock)
}
