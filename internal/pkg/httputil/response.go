package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the standard error envelope for non-mutating endpoints
// and transport-level failures (auth, malformed requests, 5xx).
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Result is the outcome envelope returned by every mutating endpoint.
// Messages carry validation failures on rejected requests and warnings on
// partially-successful ones (a send where some recipients could not be
// resolved still succeeds, with one message per skipped recipient).
type Result struct {
	Succeeded bool     `json:"succeeded"`
	Messages  []string `json:"messages"`
	Data      any      `json:"data,omitempty"`
}

// JSON writes a JSON response with the given status code. The data is
// serialized and Content-Type is set automatically. If encoding fails,
// a 500 error is written instead.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[httputil] JSON encode error: %v", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 response with the given data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 response with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Succeeded writes a Result envelope with succeeded=true. Messages are
// optional warnings; the slice is always present in the JSON (empty, not
// null) so clients can iterate without nil checks.
func Succeeded(w http.ResponseWriter, status int, data any, messages ...string) {
	if messages == nil {
		messages = []string{}
	}
	JSON(w, status, Result{Succeeded: true, Messages: messages, Data: data})
}

// Failed writes a Result envelope with succeeded=false and one message per
// reason the operation was rejected.
func Failed(w http.ResponseWriter, status int, messages ...string) {
	if len(messages) == 0 {
		messages = []string{"operation failed"}
	}
	JSON(w, status, Result{Succeeded: false, Messages: messages})
}

// Error writes a JSON error response. Use for client errors (4xx) on
// non-mutating endpoints.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// BadRequest writes a 400 error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// NotFound writes a 404 error.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// Forbidden writes a 403 error.
func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message)
}

// InternalError writes a 500 error. Logs the real error but returns a
// generic message to the client (never leak internals).
func InternalError(w http.ResponseWriter, err error) {
	log.Printf("[httputil] internal error: %v", err)
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Decode reads JSON from the request body into dst.
// Returns false and writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
