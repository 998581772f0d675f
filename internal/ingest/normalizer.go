package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/daylog-io/daylog/internal/domain"
	"github.com/daylog-io/daylog/internal/oracle"
	"github.com/daylog-io/daylog/internal/timespan"
)

const inferSystemPrompt = "You are a helpful assistant that parses natural language into structured JSON. Always return valid JSON only."

const inferPromptTemplate = `Parse the following natural language log entry into structured JSON format.
Extract:
- action: A brief action description (e.g., "Coding", "Reading", "Meeting", "Exercise")
- project: Project name if mentioned (optional)
- duration: Duration in minutes if mentioned (extract from phrases like "2 hours", "30 minutes", "45m")
- tags: Relevant tags as a list (e.g., ["work", "backend", "bugfix"])

Input: %q

Return ONLY a JSON object with exactly the keys "action", "project", "duration", "tags".
If a field cannot be determined, use null. Duration should be in minutes (convert hours to minutes).`

// Normalizer converts raw input into canonical log entries. The direct path
// (structured input) is pure validation; the inferred path consults the text
// oracle and degrades to a deterministic fallback on any failure.
type Normalizer struct {
	oracle oracle.Client
}

// NewNormalizer creates a Normalizer backed by the given oracle client.
func NewNormalizer(c oracle.Client) *Normalizer {
	return &Normalizer{oracle: c}
}

// lastResortAction labels entries whose text defeats both inference and the
// raw-text action fallback (whitespace-only input).
const lastResortAction = "Unspecified activity"

// Inference is the structured result of the oracle call (or its fallback).
type Inference struct {
	Action   string
	Project  string
	Duration *float64
	Tags     []string
	Fallback bool // true when the oracle failed and the regex fallback was used
}

type inferencePayload struct {
	Action   *string   `json:"action"`
	Project  *string   `json:"project"`
	Duration *float64  `json:"duration"`
	Tags     []*string `json:"tags"`
}

// TextOption supplies a caller-known fact to the inferred path. Overrides
// win over whatever the oracle extracts and are validated together with the
// inference by the entry constructor.
type TextOption func(*textOverrides)

type textOverrides struct {
	timestamp time.Time
	project   string
	duration  *float64
	tags      []string
	metadata  map[string]string
}

// WithTimestamp pins the activity time. A zero time is ignored.
func WithTimestamp(t time.Time) TextOption {
	return func(ov *textOverrides) { ov.timestamp = t }
}

// WithProject pins the project name. An empty string is ignored.
func WithProject(p string) TextOption {
	return func(ov *textOverrides) { ov.project = p }
}

// WithDuration pins the duration in minutes. A nil pointer is ignored.
func WithDuration(d *float64) TextOption {
	return func(ov *textOverrides) { ov.duration = d }
}

// WithTags pins the tag list. An empty list is ignored.
func WithTags(tags []string) TextOption {
	return func(ov *textOverrides) { ov.tags = tags }
}

// WithMetadata attaches source identifiers to the entry.
func WithMetadata(md map[string]string) TextOption {
	return func(ov *textOverrides) { ov.metadata = md }
}

// Direct builds a log entry from already-structured input. This is the path
// for manual entries and external-platform events; validation failures are
// caller-visible.
func (n *Normalizer) Direct(source domain.Source, rawText, action, project string, duration *float64, tags []string, metadata map[string]string, timestamp time.Time) (*domain.LogEntry, error) {
	return domain.NewLogEntry(source, rawText, action, project, duration, tags, metadata, timestamp)
}

// FromText runs the inferred path: oracle call, tolerant JSON extraction,
// terminal fallback. It always returns a non-nil entry; the worst case is a
// fallback record built from the raw text alone, or a fixed last-resort
// record when the text carries nothing usable.
func (n *Normalizer) FromText(ctx context.Context, source domain.Source, text string, opts ...TextOption) *domain.LogEntry {
	var ov textOverrides
	for _, opt := range opts {
		opt(&ov)
	}

	inf := n.Infer(ctx, text)

	entry, err := buildInferred(source, text, inf, ov)
	if err != nil {
		// Inference produced an invalid record (e.g. negative duration from
		// the model). Rebuild from the raw text via the fallback rules.
		log.Warn().Err(err).Str("source", string(source)).Msg("ingest: inferred record invalid, using fallback")
		fb := fallbackInference(text)
		entry, err = buildInferred(source, text, fb, ov)
	}
	if err != nil {
		// Whitespace-only text leaves the fallback with no action either.
		// The last resort carries a fixed action and no duration, which the
		// constructor always accepts.
		log.Warn().Err(err).Str("source", string(source)).Msg("ingest: fallback record invalid, using last resort")
		entry, _ = domain.NewLogEntry(source, text, lastResortAction, ov.project, nil, ov.tags, ov.metadata, ov.timestamp)
	}
	return entry
}

// buildInferred merges caller overrides over the inference result and
// validates the combined record.
func buildInferred(source domain.Source, text string, inf Inference, ov textOverrides) (*domain.LogEntry, error) {
	project := inf.Project
	if ov.project != "" {
		project = ov.project
	}
	duration := inf.Duration
	if ov.duration != nil {
		duration = ov.duration
	}
	tags := inf.Tags
	if len(ov.tags) > 0 {
		tags = ov.tags
	}
	return domain.NewLogEntry(source, text, inf.Action, project, duration, tags, ov.metadata, ov.timestamp)
}

// Infer asks the oracle to structure the text. Any failure mode (transport
// error, malformed JSON, JSON wrapped in prose that cannot be recovered)
// yields the deterministic fallback.
func (n *Normalizer) Infer(ctx context.Context, text string) Inference {
	raw, err := n.oracle.Complete(ctx, inferSystemPrompt, inferPrompt(text))
	if err != nil {
		log.Debug().Err(err).Msg("ingest: oracle call failed, using fallback")
		return fallbackInference(text)
	}

	payload, ok := extractJSON(raw)
	if !ok {
		log.Debug().Str("response", truncateForLog(raw)).Msg("ingest: oracle returned unparseable JSON, using fallback")
		return fallbackInference(text)
	}

	inf := Inference{}
	if payload.Action != nil {
		inf.Action = strings.TrimSpace(*payload.Action)
	}
	if inf.Action == "" {
		inf.Action = domain.ActionFallback(text)
	}
	if payload.Project != nil {
		inf.Project = strings.TrimSpace(*payload.Project)
	}
	if payload.Duration != nil && *payload.Duration >= 0 {
		d := *payload.Duration
		inf.Duration = &d
	}
	for _, tag := range payload.Tags {
		if tag != nil && *tag != "" {
			inf.Tags = append(inf.Tags, *tag)
		}
	}
	return inf
}

func inferPrompt(text string) string {
	// %q keeps prompt-breaking newlines in the input inert.
	return fmt.Sprintf(inferPromptTemplate, text)
}

// fallbackInference is the terminal error boundary for inference failures:
// first 50 characters as the action, no project, regex-extracted duration,
// no tags. It must never fail.
func fallbackInference(text string) Inference {
	inf := Inference{
		Action:   domain.ActionFallback(text),
		Fallback: true,
	}
	if v, ok := timespan.Extract(text); ok {
		inf.Duration = &v
	}
	return inf
}

// extractJSON pulls a JSON object out of the oracle response, tolerating
// surrounding prose and markdown code fences.
func extractJSON(raw string) (inferencePayload, bool) {
	var payload inferencePayload

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return payload, false
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return payload, false
	}
	return payload, true
}

func truncateForLog(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
