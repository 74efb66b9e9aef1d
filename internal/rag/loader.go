// Package rag loads source documents, splits them into overlapping chunks
// and keeps their embeddings in a persistent vector collection.
package rag

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/tmc/langchaingo/documentloaders"
	lcschema "github.com/tmc/langchaingo/schema"
)

// Document is one loaded unit of text: a PDF page, a web article or a file.
type Document struct {
	Content string
	Source  string
	Page    int
}

// Loader reads documents from local files or http(s) URLs.
type Loader struct {
	httpClient *http.Client
	userAgent  string
}

// NewLoader returns a Loader whose URL fetches time out after timeout
// (default 30s).
func NewLoader(timeout time.Duration, userAgent string) *Loader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// Load dispatches on the source: URLs and .html files go through
// readability, .pdf files yield one document per page, everything else is
// read as plain text.
func (l *Loader) Load(ctx context.Context, source string) ([]Document, error) {
	switch {
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return l.loadURL(ctx, source)
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".pdf":
		return loadPDF(ctx, source)
	case ".html", ".htm":
		return loadHTMLFile(source)
	default:
		return loadText(ctx, source)
	}
}

func loadPDF(ctx context.Context, path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}

	pages, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pdf %s: %w", path, err)
	}
	return fromLangchain(pages, path), nil
}

func loadText(ctx context.Context, path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	docs, err := documentloaders.NewText(f).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return fromLangchain(docs, path), nil
}

func loadHTMLFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	abs, _ := filepath.Abs(path)
	article, err := readability.FromReader(f, &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return articleDocs(article, path), nil
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) ([]Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: %s", rawURL, resp.Status)
	}

	article, err := readability.FromReader(resp.Body, u)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", rawURL, err)
	}
	return articleDocs(article, rawURL), nil
}

func articleDocs(article readability.Article, source string) []Document {
	text := strings.TrimSpace(article.TextContent)
	if article.Title != "" {
		text = article.Title + "\n\n" + text
	}
	if text == "" {
		return nil
	}
	return []Document{{Content: text, Source: source, Page: 0}}
}

func fromLangchain(docs []lcschema.Document, source string) []Document {
	out := make([]Document, 0, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.PageContent) == "" {
			continue
		}
		page := i
		if p, ok := d.Metadata["page"].(int); ok {
			page = p
		}
		out = append(out, Document{Content: d.PageContent, Source: source, Page: page})
	}
	return out
}
