package postgres_test

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/config"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/database/postgres"
)

func TestManager_NotConfigured(t *testing.T) {
	defer goleak.VerifyNone(t)

	log := logrus.New()
	log.SetOutput(io.Discard)

	mgr := postgres.NewManager(&config.Config{}, log)

	assert.False(t, mgr.IsConfigured())
	assert.False(t, mgr.IsAvailable())
	assert.Nil(t, mgr.Pool())
	assert.Equal(t, postgres.StatusNotConfigured, mgr.Status())
	assert.ErrorIs(t, mgr.Ping(context.Background()), postgres.ErrDatabaseUnavailable)

	mgr.Close()
}
