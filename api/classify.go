package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Class is the failure family a response belongs to.
type Class int

const (
	ClassNone Class = iota
	ClassUnauthorized
	ClassForbidden
	ClassServer
	ClassFailure
	ClassTransport
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "ok"
	case ClassUnauthorized:
		return "unauthorized"
	case ClassForbidden:
		return "forbidden"
	case ClassServer:
		return "server"
	case ClassFailure:
		return "failure"
	case ClassTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Classify maps a status code to its failure family. 401 takes precedence
// over 403, which takes precedence over 5xx.
func Classify(status int) Class {
	switch {
	case status == http.StatusUnauthorized:
		return ClassUnauthorized
	case status == http.StatusForbidden:
		return ClassForbidden
	case status >= http.StatusInternalServerError:
		return ClassServer
	case status >= http.StatusBadRequest:
		return ClassFailure
	default:
		return ClassNone
	}
}

// ErrorMessage extracts the server-provided message from a failure body.
// It understands {"message": ...} and {"error": ...} JSON bodies and short
// plain-text bodies.
func ErrorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return ""
		}
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}

	// Plain-text bodies are only trusted when they look like a sentence.
	if len(trimmed) <= 200 && !strings.HasPrefix(trimmed, "<") && !strings.ContainsAny(trimmed, "\n") {
		return trimmed
	}
	return ""
}
