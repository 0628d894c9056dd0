package history

import (
	"bytes"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
)

type ParquetEncodeResult struct {
	Data         []byte
	RecordCount  int64
	MinCreatedAt *time.Time
	MaxCreatedAt *time.Time
}

type parquetRecord struct {
	RecordID        int64  `parquet:"record_id"`
	SessionID       string `parquet:"session_id"`
	TableName       string `parquet:"table_name"`
	Question        string `parquet:"question"`
	SQLText         string `parquet:"sql_text"`
	Outcome         string `parquet:"outcome"`
	Detail          string `parquet:"detail"`
	CreatedAtUnixMs int64  `parquet:"created_at_unix_ms"`
}

// EncodeRecordsToParquet serialises history records for cold archival in the
// object store.
func EncodeRecordsToParquet(records []Record) (ParquetEncodeResult, error) {
	if len(records) == 0 {
		return ParquetEncodeResult{}, fmt.Errorf("records are required")
	}

	rows := make([]parquetRecord, 0, len(records))
	var minTime *time.Time
	var maxTime *time.Time

	for _, record := range records {
		rows = append(rows, parquetRecord{
			RecordID:        record.RecordID,
			SessionID:       record.SessionID,
			TableName:       record.TableName,
			Question:        record.Question,
			SQLText:         record.SQLText,
			Outcome:         record.Outcome,
			Detail:          record.Detail,
			CreatedAtUnixMs: record.CreatedAt.UTC().UnixMilli(),
		})

		createdAt := record.CreatedAt.UTC()
		if minTime == nil || createdAt.Before(*minTime) {
			copy := createdAt
			minTime = &copy
		}
		if maxTime == nil || createdAt.After(*maxTime) {
			copy := createdAt
			maxTime = &copy
		}
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetRecord](buf)
	if _, err := writer.Write(rows); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}

	return ParquetEncodeResult{
		Data:         buf.Bytes(),
		RecordCount:  int64(len(rows)),
		MinCreatedAt: minTime,
		MaxCreatedAt: maxTime,
	}, nil
}
