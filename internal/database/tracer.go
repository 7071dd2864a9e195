package database

import (
	"context"
	"time"

	"github.com/anonchat/anonchat/internal/metrics"
	"github.com/jackc/pgx/v5"
)

type queryStartKey struct{}

// latencyTracer feeds per-query latency into the Postgres histogram. Installed
// on the pool config, so every query from every repository is observed.
type latencyTracer struct{}

func (latencyTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (latencyTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryEndData) {
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		metrics.PostgresLatency.Observe(time.Since(start).Seconds())
	}
}
