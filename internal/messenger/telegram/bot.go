package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/daylog-io/daylog/internal/domain"
	"github.com/daylog-io/daylog/internal/ingest"
	"github.com/daylog-io/daylog/internal/review"
	"github.com/daylog-io/daylog/internal/stats"
)

// defaultPollTimeout is the server-side long-poll wait per getUpdates call.
const defaultPollTimeout = 30 * time.Second

// pollBackoff is the pause after a failed getUpdates call.
const pollBackoff = 5 * time.Second

const welcomeText = "Hi! Send me anything you did and I'll log it.\n\n" +
	"Commands:\n" +
	"/stats - activity summary for the last 7 days\n" +
	"/query <question> - ask about your log"

// BotAPI is the Bot API surface the listener needs.
type BotAPI interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
	SendMessage(ctx context.Context, chatID, text string) (string, error)
}

// Bot long-polls Telegram and turns incoming messages into log entries,
// stats requests, or queries.
type Bot struct {
	api        BotAPI
	normalizer *ingest.Normalizer
	pipeline   *ingest.Pipeline
	stats      *stats.Aggregator
	reviewer   *review.Reviewer

	// allowedChatID restricts the bot to one chat when non-empty. Messages
	// from other chats are dropped.
	allowedChatID string
	pollTimeout   time.Duration
}

func NewBot(api BotAPI, n *ingest.Normalizer, p *ingest.Pipeline, agg *stats.Aggregator, rev *review.Reviewer, allowedChatID string) *Bot {
	return &Bot{
		api:           api,
		normalizer:    n,
		pipeline:      p,
		stats:         agg,
		reviewer:      rev,
		allowedChatID: allowedChatID,
		pollTimeout:   defaultPollTimeout,
	}
}

// SetPollTimeout overrides the long-poll wait per getUpdates call.
func (b *Bot) SetPollTimeout(d time.Duration) {
	if d > 0 {
		b.pollTimeout = d
	}
}

// Run polls for updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) {
	log.Info().Msg("telegram: bot started")

	var offset int64
	for {
		if ctx.Err() != nil {
			log.Info().Msg("telegram: bot stopped")
			return
		}

		updates, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("telegram: bot stopped")
				return
			}
			log.Warn().Err(err).Msg("telegram: poll failed")
			select {
			case <-ctx.Done():
			case <-time.After(pollBackoff):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil || strings.TrimSpace(u.Message.Text) == "" {
				continue
			}
			b.handleMessage(ctx, u.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	if b.allowedChatID != "" && chatID != b.allowedChatID {
		log.Debug().Str("chat", chatID).Msg("telegram: message from unauthorized chat dropped")
		return
	}

	text := strings.TrimSpace(msg.Text)
	cmd, rest := splitCommand(text)

	var reply string
	switch cmd {
	case "/start", "/help":
		reply = welcomeText
	case "/stats":
		reply = b.handleStats(ctx)
	case "/query":
		reply = b.handleQuery(ctx, rest)
	default:
		reply = b.handleLog(ctx, msg, text)
	}

	if reply == "" {
		return
	}
	if _, err := b.api.SendMessage(ctx, chatID, reply); err != nil {
		log.Error().Err(err).Str("chat", chatID).Msg("telegram: reply failed")
	}
}

func (b *Bot) handleStats(ctx context.Context) string {
	rep, err := b.stats.Summarize(ctx, 7)
	if err != nil {
		log.Error().Err(err).Msg("telegram: stats failed")
		return "Sorry, I couldn't compute your stats right now."
	}
	return formatReport(rep)
}

func (b *Bot) handleQuery(ctx context.Context, question string) string {
	if question == "" {
		return "Usage: /query <question about your log>"
	}
	answer, err := b.reviewer.Answer(ctx, question)
	if err != nil {
		log.Error().Err(err).Msg("telegram: query failed")
		return "Sorry, I couldn't answer that right now."
	}
	return answer
}

func (b *Bot) handleLog(ctx context.Context, msg *Message, text string) string {
	opts := []ingest.TextOption{ingest.WithTimestamp(time.Unix(msg.Date, 0).UTC())}
	if msg.From != nil && msg.From.Username != "" {
		opts = append(opts, ingest.WithMetadata(map[string]string{"telegram_user": msg.From.Username}))
	}
	entry := b.normalizer.FromText(ctx, domain.SourceTelegram, text, opts...)

	stored, err := b.pipeline.Ingest(ctx, entry)
	if err != nil {
		if errors.Is(err, ingest.ErrDuplicate) {
			return "Already logged that one."
		}
		log.Error().Err(err).Msg("telegram: ingest failed")
		return "Sorry, I couldn't save that entry."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Logged: %s", stored.Action)
	if stored.Project != "" {
		fmt.Fprintf(&sb, "\nProject: %s", stored.Project)
	}
	if stored.DurationMinutes != nil {
		fmt.Fprintf(&sb, "\nDuration: %.0f min", *stored.DurationMinutes)
	}
	if len(stored.Tags) > 0 {
		fmt.Fprintf(&sb, "\nTags: %s", strings.Join(stored.Tags, ", "))
	}
	return sb.String()
}

// splitCommand separates a leading /command from its argument text. Commands
// may carry a @botname suffix, which is stripped.
func splitCommand(text string) (cmd, rest string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	cmd, rest, _ = strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	return cmd, strings.TrimSpace(rest)
}

// formatReport renders a stats report as a plain-text chat message.
func formatReport(rep *stats.Report) string {
	if rep.TotalCount == 0 {
		return fmt.Sprintf("No activity in the last %d days.", rep.WindowDays)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Last %d days: %d entries", rep.WindowDays, rep.TotalCount)
	if rep.TotalDurationMinutes > 0 {
		fmt.Fprintf(&sb, ", %.0f min tracked", rep.TotalDurationMinutes)
	}
	sources := make([]string, 0, len(rep.CountsBySource))
	for source := range rep.CountsBySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	sb.WriteString("\n\nBy source:")
	for _, source := range sources {
		fmt.Fprintf(&sb, "\n  %s: %d", source, rep.CountsBySource[source])
	}
	if len(rep.TopActions) > 0 {
		sb.WriteString("\n\nTop actions:")
		for _, ac := range rep.TopActions {
			fmt.Fprintf(&sb, "\n  %s (%d)", ac.Action, ac.Count)
		}
	}
	return sb.String()
}
