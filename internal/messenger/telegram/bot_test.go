package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylog-io/daylog/internal/domain"
	"github.com/daylog-io/daylog/internal/ingest"
	"github.com/daylog-io/daylog/internal/oracle"
	"github.com/daylog-io/daylog/internal/review"
	"github.com/daylog-io/daylog/internal/stats"
)

type fakeAPI struct {
	mu        sync.Mutex
	updates   [][]Update
	sentChat  []string
	sentText  []string
	updateErr error
}

func (f *fakeAPI) GetUpdates(context.Context, int64, time.Duration) ([]Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if len(f.updates) == 0 {
		return nil, nil
	}
	batch := f.updates[0]
	f.updates = f.updates[1:]
	return batch, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, chatID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentChat = append(f.sentChat, chatID)
	f.sentText = append(f.sentText, text)
	return "1", nil
}

func (f *fakeAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sentText)
}

type memRepo struct {
	created []*domain.LogEntry
}

func (m *memRepo) Create(_ context.Context, e *domain.LogEntry) error {
	e.ID = int64(len(m.created) + 1)
	m.created = append(m.created, e)
	return nil
}

func (m *memRepo) List(context.Context, domain.LogFilter) ([]*domain.LogEntry, error) {
	return m.created, nil
}

func newTestBot(api BotAPI, repo domain.LogRepository, stub oracle.Client, allowedChat string) *Bot {
	n := ingest.NewNormalizer(stub)
	p := ingest.NewPipeline(repo, nil, nil)
	agg := stats.NewAggregator(repo)
	rev := review.NewReviewer(repo, stub)
	return NewBot(api, n, p, agg, rev, allowedChat)
}

func msgUpdate(id int64, chatID int64, text string) Update {
	return Update{
		UpdateID: id,
		Message: &Message{
			MessageID: id,
			Text:      text,
			Chat:      Chat{ID: chatID},
			From:      &User{ID: 7, Username: "me"},
			Date:      time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC).Unix(),
		},
	}
}

func TestHandleStart(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, &memRepo{}, &oracle.Stub{Err: errors.New("unused")}, "")

	b.handleMessage(context.Background(), msgUpdate(1, 42, "/start").Message)

	require.Len(t, api.sentText, 1)
	assert.Equal(t, "42", api.sentChat[0])
	assert.Contains(t, api.sentText[0], "/stats")
}

func TestHandleFreeTextLogsEntry(t *testing.T) {
	api := &fakeAPI{}
	repo := &memRepo{}
	// Oracle failure falls back to regex extraction locally.
	b := newTestBot(api, repo, &oracle.Stub{Err: errors.New("down")}, "")

	b.handleMessage(context.Background(), msgUpdate(1, 42, "reviewed PRs for 45 minutes").Message)

	require.Len(t, repo.created, 1)
	e := repo.created[0]
	assert.Equal(t, domain.SourceTelegram, e.Source)
	assert.Equal(t, "reviewed PRs for 45 minutes", e.Action)
	require.NotNil(t, e.DurationMinutes)
	assert.InDelta(t, 45, *e.DurationMinutes, 0.001)
	assert.Equal(t, "me", e.Metadata["telegram_user"])
	assert.Equal(t, time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), e.Timestamp)

	require.Len(t, api.sentText, 1)
	assert.Contains(t, api.sentText[0], "Logged: reviewed PRs")
	assert.Contains(t, api.sentText[0], "45 min")
}

func TestHandleFreeTextWhitespaceOnly(t *testing.T) {
	api := &fakeAPI{}
	repo := &memRepo{}
	b := newTestBot(api, repo, &oracle.Stub{Err: errors.New("down")}, "")

	b.handleMessage(context.Background(), msgUpdate(1, 42, "   ").Message)

	require.Len(t, repo.created, 1)
	e := repo.created[0]
	assert.NotEmpty(t, e.Action)
	assert.Equal(t, "me", e.Metadata["telegram_user"])
	require.Len(t, api.sentText, 1)
	assert.Contains(t, api.sentText[0], "Logged:")
}

func TestHandleStats(t *testing.T) {
	api := &fakeAPI{}
	repo := &memRepo{}
	require.NoError(t, repo.Create(context.Background(), &domain.LogEntry{
		Timestamp: time.Now().UTC(),
		Source:    domain.SourceCLI,
		Action:    "wrote docs",
	}))

	b := newTestBot(api, repo, &oracle.Stub{Err: errors.New("unused")}, "")
	b.handleMessage(context.Background(), msgUpdate(1, 42, "/stats").Message)

	require.Len(t, api.sentText, 1)
	assert.Contains(t, api.sentText[0], "1 entries")
	assert.Contains(t, api.sentText[0], "wrote docs (1)")
}

func TestHandleQuery(t *testing.T) {
	api := &fakeAPI{}
	repo := &memRepo{}
	require.NoError(t, repo.Create(context.Background(), &domain.LogEntry{
		Timestamp: time.Now().UTC(),
		Source:    domain.SourceCLI,
		Action:    "wrote docs",
	}))

	b := newTestBot(api, repo, &oracle.Stub{Response: "You wrote docs."}, "")
	b.handleMessage(context.Background(), msgUpdate(1, 42, "/query what did I do?").Message)

	require.Len(t, api.sentText, 1)
	assert.Equal(t, "You wrote docs.", api.sentText[0])
}

func TestHandleQueryMissingArgument(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, &memRepo{}, &oracle.Stub{}, "")
	b.handleMessage(context.Background(), msgUpdate(1, 42, "/query").Message)

	require.Len(t, api.sentText, 1)
	assert.Contains(t, api.sentText[0], "Usage:")
}

func TestUnauthorizedChatDropped(t *testing.T) {
	api := &fakeAPI{}
	repo := &memRepo{}
	b := newTestBot(api, repo, &oracle.Stub{Err: errors.New("down")}, "42")

	b.handleMessage(context.Background(), msgUpdate(1, 99, "did a thing").Message)

	assert.Empty(t, api.sentText)
	assert.Empty(t, repo.created)
}

func TestRunAdvancesOffsetAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &fakeAPI{updates: [][]Update{
		{msgUpdate(10, 42, "/start")},
	}}
	b := newTestBot(api, &memRepo{}, &oracle.Stub{Err: errors.New("unused")}, "")

	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return api.sentCount() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bot did not stop on context cancel")
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in, cmd, rest string
	}{
		{"/stats", "/stats", ""},
		{"/query what happened", "/query", "what happened"},
		{"/stats@daylogbot", "/stats", ""},
		{"plain text", "", "plain text"},
	}
	for _, tt := range tests {
		cmd, rest := splitCommand(tt.in)
		assert.Equal(t, tt.cmd, cmd, tt.in)
		assert.Equal(t, tt.rest, rest, tt.in)
	}
}
