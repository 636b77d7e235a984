// Package snsctx carries request scoped settings of the command line tools
// (verbosity, logger) down to the drivers.
package snsctx

import (
	"context"
	"log/slog"
)

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
	ctxIndexLogger
)

func IsVerbose(ctx context.Context) bool {
	val := ctx.Value(ctxIndexVerbose)
	if val == nil {
		return false
	}
	return val.(bool)
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// WithLogger attaches logger to ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxIndexLogger, logger)
}

// Logger returns the logger attached to ctx or the default one.
func Logger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxIndexLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
