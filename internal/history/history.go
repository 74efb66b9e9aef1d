// Package history stores a chatbot conversation as a JSON file of
// {"type": "human"|"ai", "content": ...} entries.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/crystaldolphin/miniagents/internal/schema"
)

// DefaultFile is the history file used when none is configured.
const DefaultFile = "chat_history.json"

// Entry types on disk.
const (
	TypeHuman = "human"
	TypeAI    = "ai"
)

// Entry is one persisted message.
type Entry struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Store reads and writes one history file.
type Store struct {
	path string
}

// NewStore returns a Store for path; an empty path selects DefaultFile.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultFile
	}
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load returns the stored conversation. A missing file is an empty history.
func (s *Store) Load() (schema.Messages, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return schema.NewMessages(), nil
	}
	if err != nil {
		return schema.Messages{}, fmt.Errorf("read history %s: %w", s.path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return schema.Messages{}, fmt.Errorf("parse history %s: %w", s.path, err)
	}

	msgs := schema.NewMessages()
	for _, e := range entries {
		switch e.Type {
		case TypeHuman:
			msgs.AddUser(e.Content)
		case TypeAI:
			msgs.AddAssistant(e.Content, nil)
		default:
			slog.Warn("skipping history entry with unknown type", "type", e.Type, "path", s.path)
		}
	}
	return msgs, nil
}

// Save atomically replaces the file with the user and assistant messages of msgs.
func (s *Store) Save(msgs schema.Messages) error {
	entries := make([]Entry, 0, len(msgs.Messages))
	for _, m := range msgs.Messages {
		switch m.Role {
		case schema.RoleUser:
			entries = append(entries, Entry{Type: TypeHuman, Content: m.Content})
		case schema.RoleAssistant:
			if m.HasToolCalls() && m.Content == "" {
				continue
			}
			entries = append(entries, Entry{Type: TypeAI, Content: m.Content})
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}
	if err := atomic.WriteFile(s.path, &buf); err != nil {
		return fmt.Errorf("write history %s: %w", s.path, err)
	}
	return nil
}
