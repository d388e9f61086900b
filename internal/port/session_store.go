package port

import "context"

// Tokens is the credential pair issued by the backend.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type SessionStore interface {
	// LoadTokens returns the persisted tokens, zero value when none
	LoadTokens(ctx context.Context) (Tokens, error)

	// SaveTokens persists tokens across process restarts
	SaveTokens(ctx context.Context, tokens Tokens) error

	// ClearTokens forgets the persisted tokens
	ClearTokens(ctx context.Context) error
}

type PreferenceStore interface {
	// GetPreference returns the stored value or def when unset
	GetPreference(ctx context.Context, key, def string) (string, error)

	// SetPreference stores a display preference
	SetPreference(ctx context.Context, key, value string) error
}
