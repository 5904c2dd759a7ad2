// shared/api/response.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Messages used in the "error" field of standard error bodies.
const (
	MsgNotFound            = "Not Found"
	MsgInternalServerError = "Internal Server Error"
)

// ErrorResponse is the body of every error response: {"error": ..., "message": ...}.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code. data is encoded before
// anything is sent, so a value that cannot be encoded yields the standard 500 body instead.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Int("status", status).Msg("failed to encode JSON response")
		WriteInternalServerError(w, err)
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return writeBody(w, status, body)
}

// WriteError writes a JSON error body with the given status code.
func WriteError(w http.ResponseWriter, status int, errText, message string) {
	body, err := json.Marshal(ErrorResponse{Error: errText, Message: message})
	if err != nil {
		// ErrorResponse holds two strings and always encodes.
		body = []byte(`{"error":"` + MsgInternalServerError + `"}`)
	}
	if err := writeBody(w, status, body); err != nil {
		log.Error().Err(err).Msg("failed to write JSON error response")
	}
}

func writeBody(w http.ResponseWriter, status int, body []byte) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(append(body, '\n'))
	return err
}

// WriteBadRequest convenience function
func WriteBadRequest(w http.ResponseWriter, errText string) {
	WriteError(w, http.StatusBadRequest, errText, "")
}

// WriteNotFound writes the standard 404 body {"error":"Not Found"}.
func WriteNotFound(w http.ResponseWriter) {
	WriteError(w, http.StatusNotFound, MsgNotFound, "")
}

// WriteInternalServerError writes the standard 500 body carrying the underlying message.
func WriteInternalServerError(w http.ResponseWriter, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	WriteError(w, http.StatusInternalServerError, MsgInternalServerError, msg)
}

// WriteNoContent writes an empty 204 response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// NotFoundHandler answers every unmatched route, including known paths with an unsupported method.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w)
	})
}
