package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildUploadArchivePath places a raw uploaded file under its session and
// table so a dataset can be re-ingested later.
func BuildUploadArchivePath(sessionID, tableName string, uploadedAt time.Time) (string, error) {
	if err := validatePathComponent(sessionID, "session id"); err != nil {
		return "", err
	}
	if err := validatePathComponent(tableName, "table name"); err != nil {
		return "", err
	}
	return path.Join(
		sessionID,
		tableName,
		"uploads",
		fmt.Sprintf("upload-%d.csv", uploadedAt.UTC().UnixMilli()),
	), nil
}

// BuildHistoryArchivePath names a parquet flush of a session's translation
// history.
func BuildHistoryArchivePath(sessionID string, archivedAt time.Time) (string, error) {
	if err := validatePathComponent(sessionID, "session id"); err != nil {
		return "", err
	}
	return path.Join(
		sessionID,
		"history",
		fmt.Sprintf("records-%d.parquet", archivedAt.UTC().UnixMilli()),
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
