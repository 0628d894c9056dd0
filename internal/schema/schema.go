package schema

import (
	"fmt"
	"strings"
)

// Column is one column of the ingested table, carrying the DuckDB type name
// reported by information_schema.
type Column struct {
	Name     string `json:"column_name"`
	DataType string `json:"data_type"`
}

// Descriptor describes the single ingested table. It is produced once per
// ingestion, never mutated afterwards, and replaced wholesale when a new
// dataset is ingested.
type Descriptor struct {
	TableName string   `json:"table_name"`
	Columns   []Column `json:"columns"`
}

func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.TableName) == "" {
		return fmt.Errorf("table name is required")
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("at least one column is required")
	}
	seen := make(map[string]struct{}, len(d.Columns))
	for _, column := range d.Columns {
		if strings.TrimSpace(column.Name) == "" {
			return fmt.Errorf("column name is required")
		}
		if _, ok := seen[column.Name]; ok {
			return fmt.Errorf("duplicate column name %q", column.Name)
		}
		seen[column.Name] = struct{}{}
	}
	return nil
}

// Render produces the schema block embedded in generation prompts. It carries
// names and types only, never data values.
func (d Descriptor) Render() string {
	var b strings.Builder
	b.WriteString("Table: ")
	b.WriteString(d.TableName)
	b.WriteString("\nColumns:\n")
	for _, column := range d.Columns {
		b.WriteString(" - ")
		b.WriteString(column.Name)
		b.WriteString(" (")
		b.WriteString(column.DataType)
		b.WriteString(")\n")
	}
	return b.String()
}
