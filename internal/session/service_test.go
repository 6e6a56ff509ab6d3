package session_test

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/redis"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/session"
)

type recordingLedger struct {
	mu     sync.Mutex
	events []*models.TriggerEvent
	err    error
}

func (l *recordingLedger) RecordTrigger(_ context.Context, event *models.TriggerEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return l.err
}

// failingStore wraps a store and fails every write.
type failingStore struct {
	redis.Store
}

func (failingStore) StoreSession(context.Context, *models.SessionState, time.Duration) error {
	return errors.New("connection refused")
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T, defaultToken string, ledger session.Ledger) (*session.Service, *redis.MemoryStore) {
	t.Helper()

	log := quietLogger()
	store := redis.NewMemoryStore(log)
	t.Cleanup(func() { _ = store.Close() })

	return session.NewService(store, session.NewResolver(defaultToken), ledger, time.Hour, log), store
}

func TestService_LoadCreatesAndPersists(t *testing.T) {
	svc, store := newTestService(t, "D", nil)
	ctx := context.Background()

	state, err := svc.Load(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, state.ID)

	stored, err := store.GetSession(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, state.ID, stored.ID)

	again, err := svc.Load(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, state.ID, again.ID)
}

func TestService_LoadUnknownIDStartsFresh(t *testing.T) {
	svc, _ := newTestService(t, "D", nil)

	state, err := svc.Load(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.NotEqual(t, "does-not-exist", state.ID)
	assert.Equal(t, models.TriggerIdle, state.Trigger)
}

func TestService_LoadInitializesPartialState(t *testing.T) {
	svc, store := newTestService(t, "D", nil)
	ctx := context.Background()

	require.NoError(t, store.StoreSession(ctx, &models.SessionState{ID: "legacy", Username: "alice"}, time.Hour))

	state, err := svc.Load(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "alice", state.Username)
	assert.Equal(t, models.UseDefault(), state.Credentials)
	assert.Equal(t, models.TriggerIdle, state.Trigger)
}

func TestService_SubmitPersistsAndRecordsTrigger(t *testing.T) {
	ledger := &recordingLedger{}
	svc, store := newTestService(t, "D", ledger)
	ctx := context.Background()

	state, err := svc.Load(ctx, "")
	require.NoError(t, err)

	_, result, err := svc.Submit(ctx, state.ID, models.FormInput{Username: "alice"})
	require.NoError(t, err)
	assert.False(t, result.Ready)
	assert.Empty(t, ledger.events)

	updated, result, err := svc.Submit(ctx, state.ID, models.FormInput{Username: "alice", Analyze: true})
	require.NoError(t, err)
	assert.True(t, result.Ready)
	assert.Equal(t, state.ID, updated.ID)

	stored, err := store.GetSession(ctx, state.ID)
	require.NoError(t, err)
	assert.True(t, stored.ButtonPressed())
	assert.Equal(t, "alice", stored.Username)

	require.Len(t, ledger.events, 1)
	assert.Equal(t, state.ID, ledger.events[0].SessionID)
	assert.Equal(t, "alice", ledger.events[0].Username)
	assert.Equal(t, models.CredentialSourceDefault, ledger.events[0].TokenSource)
}

func TestService_SubmitClosedGateDoesNotRecord(t *testing.T) {
	ledger := &recordingLedger{}
	svc, _ := newTestService(t, "", ledger)

	_, result, err := svc.Submit(context.Background(), "", models.FormInput{Username: "alice", Analyze: true})
	require.NoError(t, err)
	assert.False(t, result.Ready)
	assert.Len(t, result.Problems, 1)
	assert.Empty(t, ledger.events)
}

func TestService_LedgerFailureDoesNotFailSubmit(t *testing.T) {
	ledger := &recordingLedger{err: errors.New("database unavailable")}
	svc, _ := newTestService(t, "D", ledger)

	_, result, err := svc.Submit(context.Background(), "", models.FormInput{Username: "alice", Analyze: true})
	require.NoError(t, err)
	assert.True(t, result.Ready)
	assert.Len(t, ledger.events, 1)
}

func TestService_StoreFailure(t *testing.T) {
	log := quietLogger()
	mem := redis.NewMemoryStore(log)
	t.Cleanup(func() { _ = mem.Close() })

	svc := session.NewService(failingStore{Store: mem}, session.NewResolver("D"), nil, time.Hour, log)

	_, err := svc.Load(context.Background(), "")
	assert.Error(t, err)

	_, _, err = svc.Submit(context.Background(), "", models.FormInput{Username: "alice"})
	assert.Error(t, err)
}

func TestService_Reset(t *testing.T) {
	svc, _ := newTestService(t, "D", nil)
	ctx := context.Background()

	state, _, err := svc.Submit(ctx, "", models.FormInput{Username: "alice", Analyze: true})
	require.NoError(t, err)
	require.True(t, state.ButtonPressed())

	reset, err := svc.Reset(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, state.ID, reset.ID)
	assert.False(t, reset.ButtonPressed())
	assert.Empty(t, reset.Username)

	reloaded, err := svc.Load(ctx, state.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.ButtonPressed())
}

func TestService_View(t *testing.T) {
	svc, _ := newTestService(t, "D", nil)
	links := []models.NavLink{
		{Label: "Overview", URL: "http://localhost:8501/overview"},
		{Label: "Predictions", URL: "http://localhost:8501/predictions?tab=1"},
	}

	t.Run("closed_gate_hides_navigation", func(t *testing.T) {
		state := models.NewSessionState()
		state.Username = "alice"

		view := svc.View(state, links)

		assert.False(t, view.Ready)
		assert.Empty(t, view.Navigation)
		assert.Empty(t, view.Problems)
	})

	t.Run("open_gate_shows_navigation", func(t *testing.T) {
		state := models.NewSessionState()
		state.Username = "alice smith"
		state.Trigger = models.TriggerTriggered

		view := svc.View(state, links)

		assert.True(t, view.Ready)
		require.Len(t, view.Navigation, 2)

		u, err := url.Parse(view.Navigation[1].URL)
		require.NoError(t, err)
		assert.Equal(t, "alice smith", u.Query().Get("username"))
		assert.Equal(t, "1", u.Query().Get("tab"))
		assert.Equal(t, "http://localhost:8501/overview", links[0].URL)
	})
}
