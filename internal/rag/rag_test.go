package rag

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crystaldolphin/miniagents/internal/shared/llmtest"
)

const sampleArticle = `<!DOCTYPE html>
<html><head><title>History of AI</title></head>
<body>
<nav>Home | About</nav>
<article>
<h1>History of AI</h1>
<p>The Dartmouth workshop of 1956 is widely considered the founding event of artificial intelligence as a field.
Researchers gathered for a summer to study how machines could use language and form abstractions.</p>
<p>Alan Turing proposed the imitation game in 1950, now known as the Turing test, as a way to consider whether machines can think.</p>
</article>
</body></html>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_TextFile(t *testing.T) {
	path := writeFile(t, "notes.md", "# Notes\n\nExpert systems flourished in the 1980s.")
	docs, err := NewLoader(0, "").Load(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if !strings.Contains(docs[0].Content, "Expert systems") || docs[0].Source != path {
		t.Errorf("unexpected document %+v", docs[0])
	}
}

func TestLoader_HTMLFile(t *testing.T) {
	path := writeFile(t, "ai.html", sampleArticle)
	docs, err := NewLoader(0, "").Load(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || !strings.Contains(docs[0].Content, "Dartmouth workshop") {
		t.Fatalf("unexpected documents %+v", docs)
	}
}

func TestLoader_URL(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(sampleArticle))
	}))
	defer srv.Close()

	docs, err := NewLoader(0, "RagBot/1.0").Load(context.Background(), srv.URL+"/ai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || !strings.Contains(docs[0].Content, "Turing test") {
		t.Fatalf("unexpected documents %+v", docs)
	}
	if ua != "RagBot/1.0" {
		t.Errorf("expected user agent, got %q", ua)
	}
}

func TestLoader_URLStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	if _, err := NewLoader(0, "").Load(context.Background(), srv.URL); err == nil {
		t.Error("expected error for 404")
	}
}

func TestLoader_MissingFile(t *testing.T) {
	if _, err := NewLoader(0, "").Load(context.Background(), filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSplitter_Overlap(t *testing.T) {
	words := make([]string, 0, 400)
	for i := 0; i < 400; i++ {
		words = append(words, "token")
	}
	doc := Document{Content: strings.Join(words, " "), Source: "s", Page: 3}

	chunks, err := NewSplitter(100, 20).Split([]Document{doc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c.Content)) > 100 {
			t.Errorf("chunk %d exceeds size: %d", i, len(c.Content))
		}
		if c.Index != i || c.Page != 3 || c.Source != "s" {
			t.Errorf("unexpected chunk metadata %+v", c)
		}
	}
}

func TestNewSplitter_InvalidOverlap(t *testing.T) {
	s := NewSplitter(50, 80)
	if _, err := s.Split([]Document{{Content: strings.Repeat("a b ", 100)}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func newTestIndex(t *testing.T, dir string) *Index {
	t.Helper()
	ix, err := OpenIndex(dir, "test", llmtest.Embedder{Dim: 128}, 2)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	return ix
}

var corpus = []Chunk{
	{Content: "The Dartmouth workshop in 1956 founded the field of artificial intelligence.", Source: "a", Index: 0},
	{Content: "Alan Turing proposed the imitation game, known as the Turing test.", Source: "a", Index: 1},
	{Content: "Expert systems were popular commercial products in the 1980s.", Source: "a", Index: 2},
	{Content: "Deep learning revived neural networks after 2012.", Source: "a", Index: 3},
	{Content: "The AI winter saw funding cuts and reduced interest.", Source: "a", Index: 4},
}

func TestIndex_IngestAndSearch(t *testing.T) {
	ix := newTestIndex(t, "")
	ctx := context.Background()

	n, err := ix.Ingest(ctx, corpus)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if n != len(corpus) || ix.Count() != len(corpus) {
		t.Fatalf("expected %d chunks, got n=%d count=%d", len(corpus), n, ix.Count())
	}

	hits, err := ix.Search(ctx, "Turing test imitation game", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if !strings.Contains(hits[0], "Turing") {
		t.Errorf("expected Turing chunk first, got %q", hits[0])
	}
}

func TestIndex_SearchClampsK(t *testing.T) {
	ix := newTestIndex(t, "")
	ctx := context.Background()

	hits, err := ix.Search(ctx, "anything", 5)
	if err != nil || hits != nil {
		t.Fatalf("expected no hits on empty index, got %v, %v", hits, err)
	}

	if _, err := ix.Ingest(ctx, corpus[:2]); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	hits, err = ix.Search(ctx, "workshop", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected k clamped to 2, got %d", len(hits))
	}
}

func TestIndex_ReingestOverwrites(t *testing.T) {
	ix := newTestIndex(t, "")
	ctx := context.Background()
	for range 2 {
		if _, err := ix.Ingest(ctx, corpus); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}
	if ix.Count() != len(corpus) {
		t.Errorf("expected %d chunks after re-ingest, got %d", len(corpus), ix.Count())
	}
}

func TestIndex_ResetAndPersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	ix := newTestIndex(t, dir)
	if _, err := ix.Ingest(ctx, corpus); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	reopened := newTestIndex(t, dir)
	if reopened.Count() != len(corpus) {
		t.Fatalf("expected %d persisted chunks, got %d", len(corpus), reopened.Count())
	}

	if err := reopened.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reopened.Count() != 0 {
		t.Errorf("expected empty collection after reset, got %d", reopened.Count())
	}
}

func TestPipeline_Ingest(t *testing.T) {
	a := writeFile(t, "a.txt", "Neural networks learn representations from data. "+strings.Repeat("More text here. ", 20))
	b := writeFile(t, "b.html", sampleArticle)

	p := &Pipeline{
		Loader:   NewLoader(0, ""),
		Splitter: NewSplitter(200, 40),
		Index:    newTestIndex(t, ""),
	}
	stats, err := p.Ingest(context.Background(), a, b)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if stats.Sources != 2 || stats.Documents != 2 || stats.Chunks == 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if p.Index.Count() != stats.Chunks {
		t.Errorf("expected index count %d, got %d", stats.Chunks, p.Index.Count())
	}
}

func TestPipeline_LoadError(t *testing.T) {
	p := &Pipeline{Loader: NewLoader(0, ""), Splitter: NewSplitter(0, 0), Index: newTestIndex(t, "")}
	if _, err := p.Ingest(context.Background(), filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected load error")
	}
}
