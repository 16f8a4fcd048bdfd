// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/stackb/bcr-api/internal/otel"
)

const (
	// ContentTypeJSON is the media type of JSON responses
	ContentTypeJSON = "application/json"
	// ContentTypeProtobuf is the media type of binary responses
	ContentTypeProtobuf = "application/protobuf"
	// ContentTypeXProtobuf is the legacy media type accepted for binary responses
	ContentTypeXProtobuf = "application/x-protobuf"
)

// ErrEncoding is returned when a payload cannot be encoded for the response
var ErrEncoding = errors.New("failed to encode response")

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// AcceptsProtobuf reports whether the request's Accept header asks for a binary response.
// The header is matched by substring; quality values and wildcards are ignored.
func AcceptsProtobuf(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, ContentTypeProtobuf) || strings.Contains(accept, ContentTypeXProtobuf)
}

// Negotiate encodes payload and returns the body with its content type.
// Payloads implementing encoding.BinaryMarshaler are sent in binary when preferBinary is set;
// everything else is sent as JSON.
func Negotiate(preferBinary bool, payload any) ([]byte, string, error) {
	if preferBinary {
		if m, ok := payload.(encoding.BinaryMarshaler); ok {
			body, err := m.MarshalBinary()
			if err != nil {
				return nil, "", fmt.Errorf("%w: %w", ErrEncoding, err)
			}
			return body, ContentTypeProtobuf, nil
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return append(body, '\n'), ContentTypeJSON, nil
}

// WriteNegotiatedResponse writes payload with status 200 in the encoding requested by r.
// The chosen content type is recorded on the request span as response.format.
func WriteNegotiatedResponse(w http.ResponseWriter, r *http.Request, payload any) {
	body, contentType, err := Negotiate(AcceptsProtobuf(r), payload)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "path", r.URL.Path, "error", err)
		WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(otel.AttrResponseFormat.String(contentType))
	w.Header().Set("Content-Type", contentType)
	w.Header().Add("Vary", "Accept")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// WriteJSONResponse writes a JSON response with the given data
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// WriteErrorResponse writes a standardized error response
func WriteErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	WriteJSONResponse(w, ErrorResponse{Error: message}, statusCode)
}

// NotFound answers requests that match no route
func NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteErrorResponse(w, "Not found", http.StatusNotFound)
}

// MethodNotAllowed answers requests whose path matches a route registered for other methods
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	WriteErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
}
