package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tabletalk/tabletalk/internal/history"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (r *Repository) InsertRecord(ctx context.Context, in history.InsertRecordInput) (history.Record, error) {
	query := `
INSERT INTO translation_history (session_id, table_name, question, sql_text, outcome, detail)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING record_id, created_at`

	record := history.Record{
		SessionID: in.SessionID,
		TableName: in.TableName,
		Question:  in.Question,
		SQLText:   in.SQLText,
		Outcome:   in.Outcome,
		Detail:    in.Detail,
	}
	if err := r.db.QueryRowContext(ctx, query,
		in.SessionID, in.TableName, in.Question, in.SQLText, in.Outcome, in.Detail,
	).Scan(&record.RecordID, &record.CreatedAt); err != nil {
		return history.Record{}, fmt.Errorf("insert history record: %w", err)
	}
	return record, nil
}

func (r *Repository) ListRecent(ctx context.Context, sessionID string, limit int) ([]history.Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT record_id, session_id, table_name, question, sql_text, outcome, detail, created_at
FROM translation_history
WHERE session_id = $1
ORDER BY record_id DESC
LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]history.Record, 0)
	for rows.Next() {
		var record history.Record
		if err := rows.Scan(
			&record.RecordID,
			&record.SessionID,
			&record.TableName,
			&record.Question,
			&record.SQLText,
			&record.Outcome,
			&record.Detail,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return records, nil
}
