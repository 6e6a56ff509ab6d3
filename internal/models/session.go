// Package models defines the data structures shared by the UI service:
// per-session input state, form submissions, display metrics and API errors.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultSessionExpiry is the default session duration.
	DefaultSessionExpiry = 24 * time.Hour
)

// CredentialSource says which credential a session authenticates with.
// The zero value means the field has not been initialized yet.
type CredentialSource string

const (
	// CredentialSourceDefault uses the process-wide default credential.
	CredentialSourceDefault CredentialSource = "default"
	// CredentialSourceProvided uses the token the user typed in.
	CredentialSourceProvided CredentialSource = "provided"
)

// TriggerState is the Analyze latch. The zero value means uninitialized.
type TriggerState string

const (
	// TriggerIdle means Analyze has not been pressed in this session.
	TriggerIdle TriggerState = "idle"
	// TriggerTriggered means Analyze was pressed. Only an explicit reset clears it.
	TriggerTriggered TriggerState = "triggered"
)

// Credentials is a tagged variant: UseDefault carries no token,
// UseProvided carries the user's token (possibly empty).
type Credentials struct {
	Source CredentialSource `json:"source"`
	Token  string           `json:"token,omitempty"`
}

// UseDefault returns credentials that fall back to the default token.
func UseDefault() Credentials {
	return Credentials{Source: CredentialSourceDefault}
}

// UseProvided returns credentials that carry the user's token verbatim.
func UseProvided(token string) Credentials {
	return Credentials{Source: CredentialSourceProvided, Token: token}
}

// SessionState is the input state of one browser session. It is created on
// first access, mutated by each form render, and expires with the session TTL.
type SessionState struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Credentials Credentials  `json:"credentials"`
	Trigger     TriggerState `json:"trigger"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewSessionState creates an empty, fully defaulted session with a fresh id.
func NewSessionState() *SessionState {
	now := time.Now().UTC()
	return &SessionState{
		ID:          uuid.New().String(),
		Credentials: UseDefault(),
		Trigger:     TriggerIdle,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TokenPresent reports whether the user toggled "I have a GitHub Access Token".
func (s *SessionState) TokenPresent() bool {
	return s.Credentials.Source == CredentialSourceProvided
}

// UserToken returns the user-supplied token, or "" when using the default.
func (s *SessionState) UserToken() string {
	if !s.TokenPresent() {
		return ""
	}
	return s.Credentials.Token
}

// ButtonPressed reports whether the Analyze latch is set.
func (s *SessionState) ButtonPressed() bool {
	return s.Trigger == TriggerTriggered
}

// FormInput is one submission of the input form.
type FormInput struct {
	Username     string `json:"username"`
	TokenPresent bool   `json:"token_present"`
	UserToken    string `json:"user_token,omitempty"`
	Analyze      bool   `json:"analyze"`
}

// RenderResult is the outcome of one form render pass.
type RenderResult struct {
	// EffectiveToken is derived on every render and never persisted.
	EffectiveToken string `json:"-"`
	// Ready is the trigger gate outcome.
	Ready bool `json:"ready"`
	// Problems lists why the gate stayed closed after Analyze was pressed.
	Problems ValidationErrors `json:"problems,omitempty"`
}

// TriggerEvent is one ledger row written when Analyze opens the gate.
// It never carries the credential itself.
type TriggerEvent struct {
	ID          uuid.UUID        `json:"id"`
	SessionID   string           `json:"session_id"`
	Username    string           `json:"username"`
	TokenSource CredentialSource `json:"token_source"`
	TriggeredAt time.Time        `json:"triggered_at"`
}

// NewTriggerEvent records that the session's Analyze press opened the gate.
func NewTriggerEvent(state *SessionState) *TriggerEvent {
	return &TriggerEvent{
		ID:          uuid.New(),
		SessionID:   state.ID,
		Username:    state.Username,
		TokenSource: state.Credentials.Source,
		TriggeredAt: time.Now().UTC(),
	}
}

// NavLink is a navigation target exposed once the trigger gate opens.
type NavLink struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Help  string `json:"help"`
	URL   string `json:"url"`
}

// SessionView is the public projection of a session. It never includes tokens.
type SessionView struct {
	Username      string           `json:"username"`
	TokenPresent  bool             `json:"token_present"`
	TokenSource   CredentialSource `json:"token_source"`
	ButtonPressed bool             `json:"button_pressed"`
	Ready         bool             `json:"ready"`
	Navigation    []NavLink        `json:"navigation,omitempty"`
	Problems      ValidationErrors `json:"problems,omitempty"`
}
