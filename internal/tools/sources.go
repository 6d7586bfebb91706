package tools

import (
	"context"
	"sync"
)

// SourceCollector receives the sources of the most recent source-producing
// tool call within one request. Each call replaces the previous set, so
// after an answer turn the collector holds exactly the sources of the last
// material a tool actually returned, or nothing if that call came back
// empty.
//
// A collector is created per request and travels through the context, so
// concurrent queries never see each other's attribution.
type SourceCollector struct {
	mu      sync.Mutex
	sources []Source
}

// Replace overwrites the collected sources.
func (c *SourceCollector) Replace(sources []Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = sources
}

// Sources returns a copy of the collected sources.
func (c *SourceCollector) Sources() []Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sources) == 0 {
		return nil
	}
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

type collectorCtxKey struct{}

// WithSourceCollector derives a context carrying a fresh collector and
// returns both. Tools invoked under the returned context report their
// sources into it.
func WithSourceCollector(ctx context.Context) (context.Context, *SourceCollector) {
	c := &SourceCollector{}
	return context.WithValue(ctx, collectorCtxKey{}, c), c
}

// SourceCollectorFrom returns the collector carried by the context, or nil
// when there is none.
func SourceCollectorFrom(ctx context.Context) *SourceCollector {
	c, _ := ctx.Value(collectorCtxKey{}).(*SourceCollector)
	return c
}

// recordSources reports a tool call's sources into the request's collector.
// Without a collector in the context the call is a no-op, so tools also work
// when invoked outside the answer pipeline.
func recordSources(ctx context.Context, sources []Source) {
	if c := SourceCollectorFrom(ctx); c != nil {
		c.Replace(sources)
	}
}
