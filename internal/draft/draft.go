// Package draft holds the state of one collaborative drafting session: the
// current text, its version counter and the feedback that produced each
// revision.
package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
)

// ErrNoDraft is returned when refining or saving before a draft exists.
var ErrNoDraft = errors.New("no draft exists yet")

// isoLocal is an ISO-8601 local timestamp with microseconds and no zone.
const isoLocal = "2006-01-02T15:04:05.000000"

const createSystemPrompt = `You are a professional writing assistant.
Create clear, well-structured drafts based on the user's request.

GUIDELINES:
- Be concise but complete
- Match the tone requested (formal, casual, professional, etc.)
- Use proper formatting and structure
- Make it ready to use with minimal edits

Generate ONLY the draft content, no explanations or meta-commentary.`

const refineSystemPrompt = `You are a professional writing assistant.
Refine an existing draft based on specific feedback.

GUIDELINES:
- Keep the parts that work well
- Apply the feedback precisely
- Maintain coherent structure
- Preserve the original intent unless feedback changes it

Respond with ONLY the updated draft, no explanations.`

// Feedback is one refinement request, tagged with the version it applied to.
type Feedback struct {
	Version   int    `json:"version"`
	Feedback  string `json:"feedback"`
	Timestamp string `json:"timestamp"`
}

// Record is the JSON document written by Save.
type Record struct {
	FinalDraft      string     `json:"final_draft"`
	FinalVersion    int        `json:"final_version"`
	FeedbackHistory []Feedback `json:"feedback_history"`
	CreatedAt       string     `json:"created_at"`
	Status          string     `json:"status"`
}

// Session is the mutable drafting state shared by the draft tools.
type Session struct {
	provider  schema.LLMProvider
	opts      schema.ChatOptions
	outputDir string

	// OnUpdate, when set, observes every new draft version.
	OnUpdate func(version int, text string)
	now      func() time.Time

	mu              sync.Mutex
	currentDraft    string
	version         int
	feedbackHistory []Feedback
	lastSaved       string
}

// NewSession creates an empty session. Saved files land in outputDir.
func NewSession(provider schema.LLMProvider, opts schema.ChatOptions, outputDir string) *Session {
	return &Session{
		provider:  provider,
		opts:      opts,
		outputDir: outputDir,
		now:       time.Now,
	}
}

// Create asks the model for a first draft of topic and starts at version 1.
func (s *Session) Create(ctx context.Context, topic string) (string, error) {
	text, err := s.generate(ctx, createSystemPrompt, "Create a draft for: "+topic)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.currentDraft = text
	s.version = 1
	s.feedbackHistory = nil
	s.mu.Unlock()

	s.notify(1, text)
	return text, nil
}

// Refine rewrites the current draft according to feedback and bumps the
// version by exactly one.
func (s *Session) Refine(ctx context.Context, feedback string) (string, error) {
	s.mu.Lock()
	current, version := s.currentDraft, s.version
	s.mu.Unlock()
	if current == "" {
		return "", ErrNoDraft
	}

	entry := Feedback{
		Version:   version,
		Feedback:  feedback,
		Timestamp: s.now().Format(isoLocal),
	}
	user := fmt.Sprintf("Here is the current draft:\n---\n%s\n---\n\nUser feedback: %s\n\nPlease update the draft based on this feedback.",
		current, feedback)

	text, err := s.generate(ctx, refineSystemPrompt, user)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.currentDraft = text
	s.version = version + 1
	s.feedbackHistory = append(s.feedbackHistory, entry)
	newVersion := s.version
	s.mu.Unlock()

	s.notify(newVersion, text)
	return text, nil
}

// Save writes the approved draft as a Record and returns the file path.
func (s *Session) Save(filename string) (string, error) {
	s.mu.Lock()
	rec := Record{
		FinalDraft:      s.currentDraft,
		FinalVersion:    s.version,
		FeedbackHistory: append([]Feedback{}, s.feedbackHistory...),
		CreatedAt:       s.now().Format(isoLocal),
		Status:          "approved",
	}
	s.mu.Unlock()
	if rec.FinalDraft == "" {
		return "", ErrNoDraft
	}

	name := ResolveFilename(filename, s.now())
	path := name
	if s.outputDir != "" && s.outputDir != "." && !filepath.IsAbs(name) {
		path = filepath.Join(s.outputDir, name)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return "", fmt.Errorf("encode draft: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	s.mu.Lock()
	s.lastSaved = path
	s.mu.Unlock()
	return path, nil
}

// Version returns the current draft version; 0 means no draft yet.
func (s *Session) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// HasDraft reports whether a draft exists.
func (s *Session) HasDraft() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentDraft != ""
}

// Current returns the current draft text.
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentDraft
}

// LastSaved returns the path of the most recent Save, if any.
func (s *Session) LastSaved() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// FeedbackHistory returns a copy of the recorded feedback.
func (s *Session) FeedbackHistory() []Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Feedback{}, s.feedbackHistory...)
}

func (s *Session) generate(ctx context.Context, system, user string) (string, error) {
	msgs := schema.NewMessages(schema.NewSystemMessage(system), schema.NewUserMessage(user))
	resp, err := s.provider.Chat(ctx, msgs, nil, s.opts)
	if err != nil {
		return "", fmt.Errorf("generate draft: %w", err)
	}
	return llmutils.StripThink(resp.Content), nil
}

func (s *Session) notify(version int, text string) {
	if s.OnUpdate != nil {
		s.OnUpdate(version, text)
	}
}

// ResolveFilename appends ".json" when missing; a bare ".json" (or an empty
// name) becomes draft_YYYYMMDD_HHMMSS.json.
func ResolveFilename(name string, now time.Time) string {
	name = strings.TrimSpace(name)
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	if name == ".json" {
		name = "draft_" + now.Format("20060102_150405") + ".json"
	}
	return name
}
