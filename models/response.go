package models

import (
	"bytes"
	"encoding/json"
)

// StatusResponse is the backend's generic envelope: {status, message, data}.
// Data is omitted by the backend when empty.
type StatusResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Succeeded reports whether the envelope's status is "success". An absent
// status is treated as success since the HTTP status already said so.
func (r StatusResponse) Succeeded() bool {
	return r.Status == "" || r.Status == "success"
}

// DecodeData unmarshals Data into out. It is a no-op when Data is empty.
func (r StatusResponse) DecodeData(out any) error {
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, out)
}

// EmailVerification is the body of POST /auth/verify-email.
type EmailVerification struct {
	Token string `json:"token"`
}

// PasswordForgotRequest is the body of POST /auth/forgot-password.
type PasswordForgotRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest is the body of POST /auth/reset-password.
type PasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// PasswordChangeRequest is the body of PUT /auth/change-password. The web
// client names the current password currentPassword while the backend DTO
// reads oldPassword, so both are sent.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
}

// NewPasswordChangeRequest fills both spellings of the current password.
func NewPasswordChangeRequest(current, next string) PasswordChangeRequest {
	return PasswordChangeRequest{CurrentPassword: current, OldPassword: current, NewPassword: next}
}
