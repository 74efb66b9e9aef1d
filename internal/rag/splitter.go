package rag

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// Chunk is one piece of a Document, the unit that gets embedded.
type Chunk struct {
	Content string
	Source  string
	Page    int
	Index   int
}

// Splitter cuts documents into overlapping chunks with a recursive
// character splitter.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

// NewSplitter returns a splitter; non-positive values select 900/200.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = min(200, chunkSize/2)
	}
	return &Splitter{inner: textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)}
}

// Split returns the chunks of every document, numbered per document.
func (s *Splitter) Split(docs []Document) ([]Chunk, error) {
	var out []Chunk
	for _, d := range docs {
		parts, err := s.inner.SplitText(d.Content)
		if err != nil {
			return nil, fmt.Errorf("split %s page %d: %w", d.Source, d.Page, err)
		}
		for i, p := range parts {
			out = append(out, Chunk{Content: p, Source: d.Source, Page: d.Page, Index: i})
		}
	}
	return out, nil
}
