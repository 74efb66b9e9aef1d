package rag

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// IngestStats summarises one ingestion run.
type IngestStats struct {
	Sources   int
	Documents int
	Chunks    int
}

// Pipeline wires loading, splitting and indexing together.
type Pipeline struct {
	Loader   *Loader
	Splitter *Splitter
	Index    *Index
}

// Ingest loads all sources concurrently, then splits and indexes them in
// source order.
func (p *Pipeline) Ingest(ctx context.Context, sources ...string) (IngestStats, error) {
	loaded := make([][]Document, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, src := range sources {
		g.Go(func() error {
			docs, err := p.Loader.Load(gctx, src)
			if err != nil {
				return err
			}
			slog.Info("Loaded source", "source", src, "documents", len(docs))
			loaded[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return IngestStats{}, err
	}

	stats := IngestStats{Sources: len(sources)}
	for i, docs := range loaded {
		chunks, err := p.Splitter.Split(docs)
		if err != nil {
			return stats, err
		}
		n, err := p.Index.Ingest(ctx, chunks)
		stats.Documents += len(docs)
		stats.Chunks += n
		if err != nil {
			return stats, fmt.Errorf("ingest %s: %w", sources[i], err)
		}
	}
	return stats, nil
}
