package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/redis"
)

// Ledger records Analyze presses that opened the gate.
type Ledger interface {
	RecordTrigger(ctx context.Context, event *models.TriggerEvent) error
}

// NoopLedger discards trigger events. It is used when no database is configured.
type NoopLedger struct{}

// RecordTrigger does nothing.
func (NoopLedger) RecordTrigger(context.Context, *models.TriggerEvent) error { return nil }

// Service loads, mutates and saves session state around each request.
type Service struct {
	store    redis.Store
	resolver Resolver
	ledger   Ledger
	ttl      time.Duration
	logger   *logrus.Logger
}

// NewService creates a session service. A nil ledger disables trigger recording.
func NewService(
	store redis.Store,
	resolver Resolver,
	ledger Ledger,
	ttl time.Duration,
	logger *logrus.Logger,
) *Service {
	if ledger == nil {
		ledger = NoopLedger{}
	}
	if ttl <= 0 {
		ttl = models.DefaultSessionExpiry
	}
	return &Service{
		store:    store,
		resolver: resolver,
		ledger:   ledger,
		ttl:      ttl,
		logger:   logger,
	}
}

// Load returns the initialized session for id and refreshes its TTL. An empty,
// unknown or expired id starts a new session with a fresh id.
func (s *Service) Load(ctx context.Context, id string) (*models.SessionState, error) {
	state, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = s.save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Submit applies one form submission to the session and saves it.
func (s *Service) Submit(
	ctx context.Context,
	id string,
	input models.FormInput,
) (*models.SessionState, models.RenderResult, error) {
	state, err := s.get(ctx, id)
	if err != nil {
		return nil, models.RenderResult{}, err
	}

	result := ApplyForm(state, input, s.resolver)

	if err = s.save(ctx, state); err != nil {
		return nil, models.RenderResult{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":     state.ID,
		"token_source":   state.Credentials.Source,
		"analyze":        input.Analyze,
		"button_pressed": state.ButtonPressed(),
		"ready":          result.Ready,
	}).Info("Form submission applied")

	if input.Analyze && result.Ready {
		s.recordTrigger(ctx, state)
	}

	return state, result, nil
}

// Reset clears the form and the trigger latch of the session.
func (s *Service) Reset(ctx context.Context, id string) (*models.SessionState, error) {
	state, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	Reset(state)

	if err = s.save(ctx, state); err != nil {
		return nil, err
	}

	s.logger.WithField("session_id", state.ID).Info("Session reset")
	return state, nil
}

// View projects state for display. Navigation links are included only when
// the gate is open, each carrying the username as a query parameter.
func (s *Service) View(state *models.SessionState, links []models.NavLink) models.SessionView {
	result := Render(state, s.resolver)

	view := models.SessionView{
		Username:      state.Username,
		TokenPresent:  state.TokenPresent(),
		TokenSource:   state.Credentials.Source,
		ButtonPressed: state.ButtonPressed(),
		Ready:         result.Ready,
		Problems:      result.Problems,
	}

	if result.Ready {
		view.Navigation = navigationFor(state.Username, links)
	}

	return view
}

func (s *Service) get(ctx context.Context, id string) (*models.SessionState, error) {
	if id == "" {
		return models.NewSessionState(), nil
	}

	state, err := s.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, redis.ErrSessionNotFound) {
			s.logger.WithField("session_id", id).Debug("Session not found, starting a new one")
			return models.NewSessionState(), nil
		}
		s.logger.WithError(err).WithField("session_id", id).Error("Failed to load session")
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return Initialize(state), nil
}

func (s *Service) save(ctx context.Context, state *models.SessionState) error {
	if err := s.store.StoreSession(ctx, state, s.ttl); err != nil {
		s.logger.WithError(err).WithField("session_id", state.ID).Error("Failed to save session")
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// recordTrigger writes the ledger row. Ledger failures are logged and do not
// fail the request.
func (s *Service) recordTrigger(ctx context.Context, state *models.SessionState) {
	event := models.NewTriggerEvent(state)
	if err := s.ledger.RecordTrigger(ctx, event); err != nil {
		s.logger.WithError(err).WithField("session_id", state.ID).Warn("Failed to record trigger event")
	}
}

func navigationFor(username string, links []models.NavLink) []models.NavLink {
	out := make([]models.NavLink, 0, len(links))
	for _, link := range links {
		link.URL = withUsername(link.URL, username)
		out = append(out, link)
	}
	return out
}

func withUsername(raw, username string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("username", username)
	u.RawQuery = q.Encode()
	return u.String()
}
