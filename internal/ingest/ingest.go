package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/tabletalk/tabletalk/internal/dataset"
	"github.com/tabletalk/tabletalk/internal/schema"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,127}$`)

type Options struct {
	TableName string
	// StartLine is the 1-based line number where data begins; lines before
	// it are skipped by the CSV reader.
	StartLine int
}

// LoadCSV streams an uploaded CSV into a fresh in-memory DuckDB database,
// lets DuckDB infer per-column types, and returns the dataset together with
// the descriptor read back from information_schema. The caller owns the
// returned dataset's handle.
func LoadCSV(ctx context.Context, r io.Reader, opts Options) (*dataset.Dataset, error) {
	if !tableNamePattern.MatchString(opts.TableName) {
		return nil, fmt.Errorf("invalid table name %q", opts.TableName)
	}
	if opts.StartLine < 1 {
		return nil, fmt.Errorf("data start line must be 1 or greater")
	}

	workDir, err := os.MkdirTemp("", "tabletalk-ingest-")
	if err != nil {
		return nil, fmt.Errorf("create ingest temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	localPath := filepath.Join(workDir, "upload.csv")
	if err := writeFile(localPath, r); err != nil {
		return nil, fmt.Errorf("write local csv file: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	loadSQL := fmt.Sprintf(
		`CREATE TABLE %s AS SELECT * FROM read_csv_auto(%s, skip=%d)`,
		quoteIdent(opts.TableName), quoteStringLiteral(localPath), opts.StartLine-1,
	)
	if _, err := db.ExecContext(ctx, loadSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load csv into table %q: %w", opts.TableName, err)
	}

	var rowCount int64
	if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(opts.TableName))).Scan(&rowCount); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("count ingested rows: %w", err)
	}

	descriptor, err := readDescriptor(ctx, db, opts.TableName)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &dataset.Dataset{
		DB:         db,
		Descriptor: descriptor,
		RowCount:   rowCount,
		IngestedAt: time.Now().UTC(),
	}, nil
}

func readDescriptor(ctx context.Context, db *sql.DB, tableName string) (schema.Descriptor, error) {
	rows, err := db.QueryContext(ctx, `
SELECT column_name, data_type
FROM information_schema.columns
WHERE table_name = ?
ORDER BY ordinal_position`, tableName)
	if err != nil {
		return schema.Descriptor{}, fmt.Errorf("read schema for table %q: %w", tableName, err)
	}
	defer func() { _ = rows.Close() }()

	descriptor := schema.Descriptor{TableName: tableName}
	for rows.Next() {
		var column schema.Column
		if err := rows.Scan(&column.Name, &column.DataType); err != nil {
			return schema.Descriptor{}, fmt.Errorf("scan schema row: %w", err)
		}
		descriptor.Columns = append(descriptor.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return schema.Descriptor{}, fmt.Errorf("iterate schema rows: %w", err)
	}
	if err := descriptor.Validate(); err != nil {
		return schema.Descriptor{}, fmt.Errorf("inferred schema is invalid: %w", err)
	}
	return descriptor, nil
}

func writeFile(path string, reader io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, reader); err != nil {
		return err
	}
	return nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteStringLiteral(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
