package domain

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the normalized outcome of a gateway call. Status 0 means the
// request never produced an HTTP response.
type Response struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Body    json.RawMessage `json:"body"`
}

// ErrorBody builds the {"error": msg} envelope used for synthesized bodies.
func ErrorBody(msg string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return b
}

// Decode unmarshals the body into v.
func (r Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Message returns the "error" field of the body, falling back to "mensaje".
func (r Response) Message() string {
	var env struct {
		Error   string `json:"error"`
		Mensaje string `json:"mensaje"`
	}
	if json.Unmarshal(r.Body, &env) != nil {
		return ""
	}
	if env.Error != "" {
		return env.Error
	}
	return env.Mensaje
}

// Err classifies an unsuccessful response. It returns nil on success.
func (r Response) Err() error {
	if r.Success {
		return nil
	}

	msg := r.Message()
	var kind error
	switch {
	case r.Status == 0:
		kind = ErrConnection
	case r.Status == http.StatusUnauthorized:
		kind = ErrAuthExpired
	case r.Status == http.StatusForbidden:
		kind = ErrForbidden
	case r.Status >= 400 && r.Status < 500:
		kind = ErrValidation
	default:
		kind = ErrServer
	}

	if msg == "" {
		return kind
	}
	return fmt.Errorf("%w: %s", kind, msg)
}
