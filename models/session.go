package models

import "time"

// Identity holds the user-facing fields the backend returned at login.
// The client never validates them; they are merged into the session as-is.
type Identity map[string]any

// Username returns the best display name available in the identity.
func (i Identity) Username() string {
	for _, key := range []string{"username", "name", "email"} {
		if v, ok := i[key].(string); ok && v != "" {
			return v
		}
	}
	if user, ok := i["user"].(map[string]any); ok {
		return Identity(user).Username()
	}
	return ""
}

// Clone returns a shallow copy so callers cannot mutate session state.
func (i Identity) Clone() Identity {
	if i == nil {
		return nil
	}
	out := make(Identity, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// Session represents the client's current credential.
// A zero Token means no session is present.
type Session struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// IsExpired returns true if the session has expired.
func (s Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Present reports whether the session carries a token.
func (s Session) Present() bool {
	return s.Token != ""
}
