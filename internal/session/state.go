// Package session implements the input workflow of the UI: session defaulting,
// credential resolution, form application, the Analyze latch and the trigger gate.
//
// Every function takes the session state explicitly. The effective token is
// derived on demand and never written back into the state.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/constants"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
)

// Initialize fills every absent field of state with its default and returns it.
// Present values are never overwritten, so calling it repeatedly is harmless.
// A nil state yields a fresh session.
func Initialize(state *models.SessionState) *models.SessionState {
	if state == nil {
		return models.NewSessionState()
	}

	if state.ID == "" {
		state.ID = uuid.New().String()
	}
	if state.Credentials.Source == "" {
		state.Credentials = models.UseDefault()
	}
	if state.Trigger == "" {
		state.Trigger = models.TriggerIdle
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = time.Now().UTC()
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = state.CreatedAt
	}

	return state
}

// ResolveToken returns userToken verbatim when tokenPresent is set, otherwise
// defaultToken. An empty result is left for the gate to reject.
func ResolveToken(tokenPresent bool, userToken, defaultToken string) string {
	if tokenPresent {
		return userToken
	}
	return defaultToken
}

// Resolver binds the process-wide default credential.
type Resolver struct {
	defaultToken string
}

// NewResolver creates a Resolver for the given default credential, which may be empty.
func NewResolver(defaultToken string) Resolver {
	return Resolver{defaultToken: defaultToken}
}

// EffectiveToken derives the credential the session would authenticate with.
func (r Resolver) EffectiveToken(state *models.SessionState) string {
	return ResolveToken(state.TokenPresent(), state.UserToken(), r.defaultToken)
}

// HasDefault reports whether a default credential is configured.
func (r Resolver) HasDefault() bool {
	return r.defaultToken != ""
}

// ApplyForm runs one render pass of the input form against state.
//
// The username and token toggle are overwritten with the submitted values on
// every pass. Turning the toggle off drops the stored token. Analyze latches the
// trigger; nothing here clears it, even when the gate stays closed.
func ApplyForm(state *models.SessionState, input models.FormInput, resolver Resolver) models.RenderResult {
	Initialize(state)

	state.Username = input.Username

	if input.TokenPresent {
		state.Credentials = models.UseProvided(input.UserToken)
	} else {
		state.Credentials = models.UseDefault()
	}

	if input.Analyze {
		state.Trigger = models.TriggerTriggered
	}

	state.UpdatedAt = time.Now().UTC()

	return Render(state, resolver)
}

// Render evaluates the gate for state without changing it.
func Render(state *models.SessionState, resolver Resolver) models.RenderResult {
	return models.RenderResult{
		EffectiveToken: resolver.EffectiveToken(state),
		Ready:          Ready(state, resolver),
		Problems:       Validate(state, resolver),
	}
}

// Ready is the trigger gate: a username, an effective token and a latched trigger.
func Ready(state *models.SessionState, resolver Resolver) bool {
	return state.Username != "" &&
		resolver.EffectiveToken(state) != "" &&
		state.ButtonPressed()
}

// Validate explains why the gate is closed after Analyze was pressed. It returns
// nothing before the first press so an untouched form shows no warnings.
func Validate(state *models.SessionState, resolver Resolver) models.ValidationErrors {
	if !state.ButtonPressed() {
		return nil
	}

	var problems models.ValidationErrors
	if state.Username == "" {
		problems = problems.Add(constants.FormFieldUsername, "Enter a GitHub username to analyze")
	}
	if resolver.EffectiveToken(state) == "" {
		if state.TokenPresent() {
			problems = problems.Add(constants.FormFieldUserToken, "Enter your GitHub access token or turn the token toggle off")
		} else {
			problems = problems.Add(constants.FormFieldUserToken, "No default access token is configured; provide your own GitHub access token")
		}
	}
	return problems
}

// Reset returns state to a blank form and releases the trigger latch. The session
// id and creation time are kept.
func Reset(state *models.SessionState) *models.SessionState {
	Initialize(state)

	state.Username = ""
	state.Credentials = models.UseDefault()
	state.Trigger = models.TriggerIdle
	state.UpdatedAt = time.Now().UTC()

	return state
}
