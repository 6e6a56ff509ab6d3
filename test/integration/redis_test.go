package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/config"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
	redisClient "github.com/jsamuelsen11/commitquest/ui-service/internal/redis"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/session"
	"github.com/jsamuelsen11/commitquest/ui-service/pkg/logger"
)

func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	ctx := context.Background()

	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	defer func() {
		if err = redisContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	}()

	connectionString, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.RedisConfig{
		URL:          connectionString,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConn:  2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  300 * time.Second,
	}

	log := logger.New("info", "json", "stdout")
	store, err := redisClient.NewClient(cfg, log)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(ctx))

	t.Run("SessionOperations", func(t *testing.T) {
		testSessionOperations(ctx, t, store)
	})

	t.Run("SessionExpiry", func(t *testing.T) {
		testSessionExpiry(ctx, t, store)
	})

	t.Run("SessionStatsAndClear", func(t *testing.T) {
		testSessionStatsAndClear(ctx, t, store)
	})

	t.Run("FormWorkflow", func(t *testing.T) {
		testFormWorkflow(ctx, t, store)
	})

	t.Run("UnreadableSessionStartsFresh", func(t *testing.T) {
		testUnreadableSession(ctx, t, store)
	})
}

func testSessionOperations(ctx context.Context, t *testing.T, store *redisClient.Client) {
	state := models.NewSessionState()
	state.Username = "alice"
	state.Credentials = models.UseProvided("ghp_user_token")
	state.Trigger = models.TriggerTriggered

	require.NoError(t, store.StoreSession(ctx, state, time.Hour))

	retrieved, err := store.GetSession(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, state.ID, retrieved.ID)
	assert.Equal(t, "alice", retrieved.Username)
	assert.Equal(t, models.UseProvided("ghp_user_token"), retrieved.Credentials)
	assert.True(t, retrieved.ButtonPressed())

	require.NoError(t, store.DeleteSession(ctx, state.ID))

	_, err = store.GetSession(ctx, state.ID)
	assert.ErrorIs(t, err, redisClient.ErrSessionNotFound)
}

func testSessionExpiry(ctx context.Context, t *testing.T, store *redisClient.Client) {
	state := models.NewSessionState()
	require.NoError(t, store.StoreSession(ctx, state, time.Second))

	assert.Eventually(t, func() bool {
		_, err := store.GetSession(ctx, state.ID)
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func testSessionStatsAndClear(ctx context.Context, t *testing.T, store *redisClient.Client) {
	_, err := store.ClearAllSessions(ctx)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		state := models.NewSessionState()
		if i == 0 {
			state.Trigger = models.TriggerTriggered
		}
		require.NoError(t, store.StoreSession(ctx, state, time.Hour))
	}

	count, err := store.CountSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	stats, err := store.GetSessionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 1, stats.TriggeredSessions)
	assert.Equal(t, redisClient.BackendRedis, stats.StorageBackend)
	assert.NotEmpty(t, stats.MemoryUsage)

	cleared, err := store.ClearAllSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, cleared)

	count, err = store.CountSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func testFormWorkflow(ctx context.Context, t *testing.T, store *redisClient.Client) {
	svc := session.NewService(store, session.NewResolver("ghp_default"), session.NoopLedger{}, time.Hour,
		logger.New("info", "json", "stdout"))

	state, err := svc.Load(ctx, "")
	require.NoError(t, err)

	state, result, err := svc.Submit(ctx, state.ID, models.FormInput{Username: "alice", Analyze: true})
	require.NoError(t, err)
	assert.True(t, result.Ready)
	assert.Equal(t, "ghp_default", result.EffectiveToken)

	reloaded, err := store.GetSession(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", reloaded.Username)
	assert.True(t, reloaded.ButtonPressed())
	assert.Empty(t, reloaded.Credentials.Token)
}

func testUnreadableSession(ctx context.Context, t *testing.T, store *redisClient.Client) {
	const id = "0b7c6f1e-corrupt-session"
	key := "ui:session:" + id
	require.NoError(t, store.GetRedisClient().Set(ctx, key, "{not json", time.Hour).Err())

	_, err := store.GetSession(ctx, id)
	require.ErrorIs(t, err, redisClient.ErrSessionNotFound)

	exists, err := store.GetRedisClient().Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	require.NoError(t, store.GetRedisClient().Set(ctx, key, "{not json", time.Hour).Err())

	svc := session.NewService(store, session.NewResolver("ghp_default"), session.NoopLedger{}, time.Hour,
		logger.New("info", "json", "stdout"))

	state, err := svc.Load(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, id, state.ID)
	assert.False(t, state.ButtonPressed())
}
