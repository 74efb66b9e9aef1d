// Package llmutils has small helpers for model output and tool arguments.
package llmutils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	reThink     = regexp.MustCompile(`(?s)<think>.*?</think>`)
	reCodeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// Truncate cuts s to n runes for log lines, marking the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// StripThink removes <think>…</think> blocks that some models embed.
func StripThink(s string) string {
	return strings.TrimSpace(reThink.ReplaceAllString(s, ""))
}

// StripCodeFence unwraps a reply the model wrapped in a ``` fenced block.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := reCodeFence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// StringOrDefault returns def when s is empty.
func StringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// StringArg reads a string parameter from tool-call arguments.
func StringArg(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

// IntArg reads an integer parameter from tool-call arguments, which arrive
// as float64 after JSON decoding.
func IntArg(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return def
}
