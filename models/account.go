package models

import (
	"encoding/json"
	"fmt"
)

// UserStatus mirrors the activation block the backend attaches to a user.
type UserStatus struct {
	ID       int  `json:"id"`
	IsActive bool `json:"isActive"`
}

// UserProfile represents the account returned by login and /user/profile.
type UserProfile struct {
	ID     int         `json:"id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Status *UserStatus `json:"status,omitempty"`
}

// Identity converts the profile into the identity record stored in the session.
func (p UserProfile) Identity() Identity {
	id := Identity{
		"id":    p.ID,
		"name":  p.Name,
		"email": p.Email,
	}
	if p.Name != "" {
		id["username"] = p.Name
	}
	return id
}

// LoginResponse is the body of a successful POST /auth/login.
//
// The backend wraps it as {status, message, data: {user, token}}; some
// deployments return {token, ...identity} at the top level. Both decode.
type LoginResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`

	// Extra holds any top-level identity fields beyond token/user.
	Extra Identity `json:"-"`
}

// UnmarshalJSON accepts the enveloped and flat login shapes.
func (l *LoginResponse) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		data = envelope.Data
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}

	type loginAlias LoginResponse // prevent recursion
	var alias loginAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	*l = LoginResponse(alias)

	delete(raw, "token")
	delete(raw, "user")
	if len(raw) > 0 {
		l.Extra = Identity(raw)
	}
	return nil
}

// Identity merges the user block and any flat identity fields.
func (l LoginResponse) Identity() Identity {
	id := Identity{}
	if l.User.ID != 0 || l.User.Email != "" || l.User.Name != "" {
		id = l.User.Identity()
	}
	for k, v := range l.Extra {
		id[k] = v
	}
	return id
}

// RegisterRequest is the body of POST /auth/.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
