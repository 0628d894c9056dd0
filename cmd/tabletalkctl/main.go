package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tabletalk/tabletalk/internal/cli/tabletalkctl"
)

func main() {
	timeout := parseDurationWithDefault(strings.TrimSpace(os.Getenv("TABLETALK_CLI_TIMEOUT")), 10*time.Second)
	options := tabletalkctl.Options{
		BaseURL:   envOr("TABLETALK_API_URL", "http://localhost:8080"),
		APIKey:    strings.TrimSpace(os.Getenv("TABLETALK_API_KEY")),
		SessionID: strings.TrimSpace(os.Getenv("TABLETALK_SESSION_ID")),
		Timeout:   timeout,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}

	code := tabletalkctl.Run(context.Background(), os.Args[1:], options)
	os.Exit(code)
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseDurationWithDefault(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid TABLETALK_CLI_TIMEOUT %q; using %s\n", raw, fallback)
		return fallback
	}
	return parsed
}
