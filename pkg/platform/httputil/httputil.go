// Package httputil writes JSON responses and maps coded domain errors to HTTP
// status codes.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "arho/pkg/domain-errors"
)

// MaxBodyBytes bounds request bodies read by DecodeJSON.
const MaxBodyBytes = 4 << 20

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

var statusByCode = map[dErrors.Code]struct {
	status int
	name   string
}{
	dErrors.CodeValidation:        {http.StatusUnprocessableEntity, "validation_error"},
	dErrors.CodeInvalidInput:      {http.StatusBadRequest, "bad_request"},
	dErrors.CodeNotFound:          {http.StatusNotFound, "not_found"},
	dErrors.CodeConflict:          {http.StatusConflict, "conflict"},
	dErrors.CodeReadInconsistency: {http.StatusConflict, "read_inconsistency"},
	dErrors.CodeWriteFailed:       {http.StatusBadGateway, "write_failed"},
	dErrors.CodeInternal:          {http.StatusInternalServerError, "internal_error"},
}

// StatusFor returns the HTTP status and wire name of err's code.
func StatusFor(err error) (int, string) {
	m, ok := statusByCode[dErrors.CodeOf(err)]
	if !ok {
		m = statusByCode[dErrors.CodeInternal]
	}
	return m.status, m.name
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as {"error", "error_description"}. Internal errors
// never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	status, name := StatusFor(err)
	resp := errorResponse{Error: name}
	if status != http.StatusInternalServerError {
		resp.ErrorDescription = err.Error()
	}
	WriteJSON(w, status, resp)
}

// DecodeJSON reads a JSON body into a T. Unknown fields and trailing data are
// rejected with CodeInvalidInput.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var out T
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, dErrors.New(dErrors.CodeInvalidInput, "request body is required")
		}
		return out, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body")
	}
	if dec.More() {
		return out, dErrors.New(dErrors.CodeInvalidInput, "request body must hold a single JSON value")
	}
	return out, nil
}
