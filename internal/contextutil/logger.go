// Package contextutil carries the request-scoped slog logger through
// context so handlers, the retrieval engine and the ingestion pipeline all
// log with the same request attributes.
package contextutil

import (
	"context"
	"log/slog"
)

type contextKey string

const loggerKey contextKey = "logger"

// LoggerFromContext returns the logger stored in ctx, or slog.Default()
// when none was injected (CLI runs, tests).
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if v := ctx.Value(loggerKey); v != nil {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// LoggerKey returns the context key under which the HTTP middleware stores
// the request logger.
func LoggerKey() contextKey {
	return loggerKey
}
