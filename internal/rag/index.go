package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/crystaldolphin/miniagents/internal/schema"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "ai_history"

// Index is a chromem-go collection of embedded chunks.
type Index struct {
	db        *chromem.DB
	name      string
	embedder  schema.Embedder
	batchSize int

	mu  sync.RWMutex
	col *chromem.Collection
}

// OpenIndex opens the collection name inside persistDir, creating both if
// needed. An empty persistDir keeps the index in memory.
func OpenIndex(persistDir, name string, embedder schema.Embedder, batchSize int) (*Index, error) {
	if name == "" {
		name = DefaultCollection
	}
	if batchSize <= 0 {
		batchSize = 64
	}

	var (
		db  *chromem.DB
		err error
	)
	if persistDir == "" {
		db = chromem.NewDB()
	} else if db, err = chromem.NewPersistentDB(persistDir, false); err != nil {
		return nil, fmt.Errorf("open vector db %s: %w", persistDir, err)
	}

	ix := &Index{db: db, name: name, embedder: embedder, batchSize: batchSize}
	if err := ix.openCollection(); err != nil {
		return nil, err
	}
	return ix, nil
}

func (ix *Index) openCollection() error {
	col, err := ix.db.GetOrCreateCollection(ix.name, nil, ix.embedOne)
	if err != nil {
		return fmt.Errorf("open collection %s: %w", ix.name, err)
	}
	ix.col = col
	return nil
}

// embedOne adapts the batch Embedder to chromem's per-text embedding func.
func (ix *Index) embedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := ix.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errors.New("embedder returned no vector")
	}
	return vecs[0], nil
}

// chunkID is stable per source, page and position, so re-ingesting a source
// overwrites its chunks instead of duplicating them.
func chunkID(c Chunk) string {
	sum := sha256.Sum256([]byte(c.Source))
	return hex.EncodeToString(sum[:6]) + "-" + strconv.Itoa(c.Page) + "-" + strconv.Itoa(c.Index)
}

// Ingest embeds chunks batch by batch and stores them. It returns the number
// of chunks added.
func (ix *Index) Ingest(ctx context.Context, chunks []Chunk) (int, error) {
	ix.mu.RLock()
	col := ix.col
	ix.mu.RUnlock()

	added := 0
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vecs, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return added, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if len(vecs) != len(batch) {
			return added, fmt.Errorf("embed chunks %d-%d: got %d vectors", start, end, len(vecs))
		}

		docs := make([]chromem.Document, len(batch))
		for i, c := range batch {
			docs[i] = chromem.Document{
				ID:        chunkID(c),
				Content:   c.Content,
				Embedding: vecs[i],
				Metadata: map[string]string{
					"source": c.Source,
					"page":   strconv.Itoa(c.Page),
				},
			}
		}
		if err := col.AddDocuments(ctx, docs, 1); err != nil {
			return added, fmt.Errorf("store chunks %d-%d: %w", start, end, err)
		}
		added += len(batch)
		slog.Debug("Indexed batch", "from", start, "to", end, "total", len(chunks))
	}
	return added, nil
}

// Search returns the contents of the k chunks most similar to query, best
// first. k is clamped to the collection size.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]string, error) {
	ix.mu.RLock()
	col := ix.col
	ix.mu.RUnlock()

	n := min(k, col.Count())
	if n <= 0 {
		return nil, nil
	}

	vec, err := ix.embedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := col.QueryEmbedding(ctx, vec, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Content
	}
	return out, nil
}

// Count returns the number of stored chunks.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.col.Count()
}

// Reset drops every chunk by recreating the collection.
func (ix *Index) Reset() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.db.DeleteCollection(ix.name); err != nil {
		return fmt.Errorf("delete collection %s: %w", ix.name, err)
	}
	return ix.openCollection()
}
