package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"storefront-client/internal/domain"
)

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// Is lets callers match 404s with errors.Is(err, domain.ErrNotFound).
func (e *Error) Is(target error) bool {
	return target == domain.ErrNotFound && e.Status == http.StatusNotFound
}

func errorFromResponse(status int, body []byte) *Error {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	message := ""
	if json.Unmarshal(body, &envelope) == nil {
		message = envelope.Message
		if message == "" {
			message = envelope.Error
		}
	}
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(status)
	}
	return &Error{Status: status, Message: message}
}
