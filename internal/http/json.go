package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
)

// defaultMaxBodyBytes caps JSON bodies when the router is not configured.
const defaultMaxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into dst, rejecting unknown fields and
// bodies above limit. Returns false if an error response was written.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) bool {
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, ErrorParams{Code: http.StatusRequestEntityTooLarge, ErrCode: "body_too_large"})
			return false
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json"})
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	// Field names the offending input field for validation errors.
	Field string
}

// errorMessages holds the only texts ever sent to clients. Internal error
// detail stays in the logs.
var errorMessages = map[string]string{ //nolint:gochecknoglobals // read-only lookup table
	"invalid_json":            "request body is not valid JSON",
	"body_too_large":          "request body is too large",
	"validation_failed":       "request failed validation",
	"invalid_credentials":     "invalid credentials",
	"authentication_required": "authentication required",
	"forbidden":               "operation not permitted",
	"not_found":               "resource not found",
	"conflict":                "resource already exists",
	"csrf_failed":             "CSRF token validation failed",
	"service_unavailable":     "service temporarily unavailable",
	"internal_error":          "internal server error",
}

// WriteError writes a JSON error body with the fixed message for p.ErrCode.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	msg, ok := errorMessages[p.ErrCode]
	if !ok {
		msg = http.StatusText(p.Code)
	}
	body := map[string]string{"error": p.ErrCode, "message": msg}
	if p.Field != "" {
		body["field"] = p.Field
	}
	WriteJSON(w, p.Code, body)
}
