// Package store persists editor conversations, their messages and the
// single document attached to each conversation in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a conversation or document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyTitle is returned when a title update is blank.
	ErrEmptyTitle = errors.New("title is required")
)

// DefaultTitle names conversations created without a title.
const DefaultTitle = "New Chat"

// Message roles stored in the messages table.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is one editor chat. Messages and Document are filled only by
// the queries that load them.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages,omitempty"`
	Document  *Document `json:"document,omitempty"`
}

// Message is one chat turn.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Document is the editor text owned by a conversation.
type Document struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Store is the SQLite-backed conversation store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the database at path and applies migrations.
func New(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (Conversation, error) {
	var (
		c                Conversation
		created, updated string
	)
	if err := row.Scan(&c.ID, &c.Title, &created, &updated); err != nil {
		return Conversation{}, err
	}
	c.CreatedAt, c.UpdatedAt = parseTime(created), parseTime(updated)
	return c, nil
}

func scanMessage(row rowScanner) (Message, error) {
	var (
		m       Message
		created string
	)
	if err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &created); err != nil {
		return Message{}, err
	}
	m.CreatedAt = parseTime(created)
	return m, nil
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		d                Document
		created, updated string
	)
	if err := row.Scan(&d.ID, &d.ConversationID, &d.Text, &created, &updated); err != nil {
		return Document{}, err
	}
	d.CreatedAt, d.UpdatedAt = parseTime(created), parseTime(updated)
	return d, nil
}

// ---------------------------------------------------------------------------
// Conversations
// ---------------------------------------------------------------------------

// CreateConversation inserts a conversation; a blank title becomes "New Chat".
func (s *Store) CreateConversation(ctx context.Context, title string) (Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	ts := s.timestamp()
	c := Conversation{ID: uuid.NewString(), Title: title, CreatedAt: parseTime(ts), UpdatedAt: parseTime(ts)}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Title, ts, ts); err != nil {
		return Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

// ListConversations returns every conversation, newest first, each carrying
// its latest message (if any) in Messages.
func (s *Store) ListConversations(ctx context.Context) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	var convs []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		convs = append(convs, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range convs {
		latest, err := s.RecentMessages(ctx, convs[i].ID, 1)
		if err != nil {
			return nil, err
		}
		convs[i].Messages = latest
	}
	return convs, nil
}

// GetConversation returns a conversation with its messages in chronological
// order and its document, if one exists.
func (s *Store) GetConversation(ctx context.Context, id string) (Conversation, error) {
	c, err := s.conversation(ctx, id)
	if err != nil {
		return Conversation{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return Conversation{}, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return Conversation{}, err
		}
		c.Messages = append(c.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return Conversation{}, err
	}
	rows.Close()

	doc, err := s.GetDocument(ctx, id)
	switch {
	case err == nil:
		c.Document = &doc
	case !errors.Is(err, ErrNotFound):
		return Conversation{}, err
	}
	return c, nil
}

func (s *Store) conversation(ctx context.Context, id string) (Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?`, id)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	return c, nil
}

// UpdateTitle renames a conversation. The title is trimmed; a blank title
// yields ErrEmptyTitle.
func (s *Store) UpdateTitle(ctx context.Context, id, title string) (Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Conversation{}, ErrEmptyTitle
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`, title, s.timestamp(), id)
	if err != nil {
		return Conversation{}, fmt.Errorf("update title: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Conversation{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return s.conversation(ctx, id)
}

// DeleteConversation removes a conversation together with its messages and
// document.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

// AddMessage appends a message to a conversation and touches its updated_at.
func (s *Store) AddMessage(ctx context.Context, conversationID, role, content string) (Message, error) {
	if role != RoleUser && role != RoleAssistant {
		return Message{}, fmt.Errorf("invalid role %q", role)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, err
	}
	defer func() { _ = tx.Rollback() }()

	ts := s.timestamp()
	res, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, ts, conversationID)
	if err != nil {
		return Message{}, fmt.Errorf("touch conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Message{}, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}

	m := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      parseTime(ts),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.Role, m.Content, ts); err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// RecentMessages returns the last n messages of a conversation in
// chronological order.
func (s *Store) RecentMessages(ctx context.Context, conversationID string, n int) ([]Message, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at FROM (
			SELECT seq, id, conversation_id, role, content, created_at
			FROM messages WHERE conversation_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, conversationID, n)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountMessages returns the number of messages in a conversation.
func (s *Store) CountMessages(ctx context.Context, conversationID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM messages WHERE conversation_id = ?`, conversationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// GetDocument returns the document of a conversation, or ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, conversationID string) (Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, text, created_at, updated_at FROM documents WHERE conversation_id = ?`, conversationID)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document for %s: %w", conversationID, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("load document: %w", err)
	}
	return d, nil
}

// UpsertDocument creates or replaces the text of a conversation's document.
func (s *Store) UpsertDocument(ctx context.Context, conversationID, text string) (Document, error) {
	if _, err := s.conversation(ctx, conversationID); err != nil {
		return Document{}, err
	}
	ts := s.timestamp()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, conversation_id, text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET text = excluded.text, updated_at = excluded.updated_at`,
		uuid.NewString(), conversationID, text, ts, ts); err != nil {
		return Document{}, fmt.Errorf("upsert document: %w", err)
	}
	return s.GetDocument(ctx, conversationID)
}
