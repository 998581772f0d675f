package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Source identifies the input channel a log entry came from.
type Source string

const (
	SourceCLI          Source = "cli"
	SourceAPI          Source = "api"
	SourceTelegram     Source = "telegram"
	SourceGitHubCommit Source = "github_commit"
	SourceGitHubPR     Source = "github_pr"
)

// actionFallbackLen bounds the rawText prefix substituted when the action
// is missing or inference fails.
const actionFallbackLen = 50

// ValidSource reports whether s is one of the known input channels.
func ValidSource(s Source) bool {
	switch s {
	case SourceCLI, SourceAPI, SourceTelegram, SourceGitHubCommit, SourceGitHubPR:
		return true
	}
	return false
}

// LogEntry is the canonical normalized activity record. Entries are
// immutable after creation; the store assigns ID on insert.
type LogEntry struct {
	ID              int64             `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	Source          Source            `json:"source"`
	RawText         string            `json:"raw_text"`
	Action          string            `json:"action"`
	Project         string            `json:"project,omitempty"`
	DurationMinutes *float64          `json:"duration_minutes,omitempty"` // nil means unknown, not zero
	Tags            []string          `json:"tags,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"` // stable source identifiers (commit sha, PR number)
	CreatedAt       time.Time         `json:"created_at"`
}

// NewLogEntry builds a LogEntry with validated invariants. A timestamp of
// zero means "now". An empty action falls back to a bounded prefix of
// rawText; if rawText is empty too, the entry is rejected.
func NewLogEntry(source Source, rawText, action, project string, duration *float64, tags []string, metadata map[string]string, timestamp time.Time) (*LogEntry, error) {
	if !ValidSource(source) {
		return nil, fmt.Errorf("log entry: unknown source %q: %w", source, ErrInvalid)
	}

	action = strings.TrimSpace(action)
	if action == "" {
		action = ActionFallback(rawText)
	}
	if action == "" {
		return nil, fmt.Errorf("log entry: action is required: %w", ErrInvalid)
	}

	if duration != nil && *duration < 0 {
		return nil, fmt.Errorf("log entry: duration must be >= 0, got %v: %w", *duration, ErrInvalid)
	}

	now := time.Now().UTC()
	if timestamp.IsZero() {
		timestamp = now
	}

	return &LogEntry{
		Timestamp:       timestamp,
		Source:          source,
		RawText:         rawText,
		Action:          action,
		Project:         project,
		DurationMinutes: duration,
		Tags:            tags,
		Metadata:        metadata,
		CreatedAt:       now,
	}, nil
}

// ActionFallback returns a trimmed prefix of rawText suitable as an action
// description when no explicit action is available.
func ActionFallback(rawText string) string {
	s := strings.TrimSpace(rawText)
	if utf8.RuneCountInString(s) <= actionFallbackLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:actionFallbackLen])
}

// DedupKey returns a stable identifier for re-sync deduplication, or ""
// when the entry carries no source identifier (manual and chat entries).
func (e *LogEntry) DedupKey() string {
	if sha, ok := e.Metadata["sha"]; ok {
		return fmt.Sprintf("%s:%s", e.Source, sha)
	}
	if num, ok := e.Metadata["number"]; ok {
		return fmt.Sprintf("%s:%s:%s", e.Source, e.Metadata["repo"], num)
	}
	return ""
}

// LogFilter narrows List queries. Zero values mean "no constraint", except
// Limit where zero means the store default and negative means unlimited.
type LogFilter struct {
	Source Source
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}

// LogRepository is the persistence contract for log entries. Entries are
// append-only; nothing in the core updates or deletes them.
type LogRepository interface {
	// Create inserts the entry and fills in its store-assigned ID.
	Create(ctx context.Context, e *LogEntry) error
	// List returns entries matching the filter, newest first.
	List(ctx context.Context, f LogFilter) ([]*LogEntry, error)
}
