// Package review turns stored log entries into daily summaries and answers
// free-form questions about them.
package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/daylog-io/daylog/internal/domain"
	"github.com/daylog-io/daylog/internal/messenger"
	"github.com/daylog-io/daylog/internal/oracle"
)

// EmptyDayMessage is delivered when a review day has no entries.
const EmptyDayMessage = "No activities logged today."

// queryContextLimit caps how many recent entries feed a query prompt.
const queryContextLimit = 100

const reviewSystemPrompt = "You are a thoughtful personal productivity assistant. " +
	"Given a day's activity log, write a short review: what was accomplished, " +
	"roughly how time was spent, and one suggestion for tomorrow. Be concise and concrete."

const querySystemPrompt = "You answer questions about the user's personal activity log. " +
	"Use only the provided log entries. If the log does not contain the answer, say so."

// Target names a delivery destination for generated reviews.
type Target struct {
	Platform  string
	ChannelID string
}

// Reviewer generates daily reviews and answers ad-hoc questions.
type Reviewer struct {
	repo   domain.LogRepository
	oracle oracle.Client
	now    func() time.Time
}

func NewReviewer(repo domain.LogRepository, client oracle.Client) *Reviewer {
	return &Reviewer{repo: repo, oracle: client, now: time.Now}
}

// Generate produces the review text for the calendar day containing t.
// A day with no entries yields EmptyDayMessage without consulting the oracle.
func (r *Reviewer) Generate(ctx context.Context, t time.Time) (string, error) {
	day := t.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	entries, err := r.repo.List(ctx, domain.LogFilter{Start: start, End: end, Limit: -1})
	if err != nil {
		return "", fmt.Errorf("review.Reviewer.Generate: %w", err)
	}
	if len(entries) == 0 {
		return EmptyDayMessage, nil
	}

	prompt := fmt.Sprintf("Activity log for %s:\n\n%s", start.Format("2006-01-02"), formatEntries(entries))
	text, err := r.oracle.Complete(ctx, reviewSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("review.Reviewer.Generate: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Deliver generates today's review and sends it to every target. Delivery
// failures are logged per target; the first generation error aborts.
func (r *Reviewer) Deliver(ctx context.Context, registry *messenger.Registry, targets []Target) error {
	text, err := r.Generate(ctx, r.now())
	if err != nil {
		return err
	}

	for _, tgt := range targets {
		m, ok := registry.Get(tgt.Platform)
		if !ok {
			log.Warn().Str("platform", tgt.Platform).Msg("review: no messenger for target")
			continue
		}
		if _, err := m.SendMessage(ctx, tgt.ChannelID, text); err != nil {
			log.Error().Err(err).
				Str("platform", tgt.Platform).
				Str("channel", tgt.ChannelID).
				Msg("review: delivery failed")
		}
	}
	return nil
}

// Answer responds to a free-form question using the most recent entries as
// context.
func (r *Reviewer) Answer(ctx context.Context, question string) (string, error) {
	entries, err := r.repo.List(ctx, domain.LogFilter{Limit: queryContextLimit})
	if err != nil {
		return "", fmt.Errorf("review.Reviewer.Answer: %w", err)
	}
	if len(entries) == 0 {
		return "No activities logged yet.", nil
	}

	prompt := fmt.Sprintf("Recent log entries:\n\n%s\nQuestion: %s", formatEntries(entries), question)
	text, err := r.oracle.Complete(ctx, querySystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("review.Reviewer.Answer: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// formatEntries renders entries one per line for prompt context.
func formatEntries(entries []*domain.LogEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "- [%s] %s", e.Timestamp.UTC().Format("2006-01-02 15:04"), e.Action)
		if e.Project != "" {
			fmt.Fprintf(&b, " (project: %s)", e.Project)
		}
		if e.DurationMinutes != nil {
			fmt.Fprintf(&b, " (%.0f min)", *e.DurationMinutes)
		}
		b.WriteString("\n")
	}
	return b.String()
}
