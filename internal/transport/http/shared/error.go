// Package shared centralizes domain error translation to HTTP responses.
// Domain failures are raised where detected and handled exactly once, here.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "inkgate/pkg/domain-errors"
)

// ErrorResponse is the JSON envelope every failure is reported in.
type ErrorResponse struct {
	Error       string            `json:"error"`
	Description string            `json:"error_description,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into an HTTP response. Unexpected
// errors collapse into a bare 500 so nothing internal leaks.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: string(dErrors.CodeInternal)})
		return
	}

	resp := ErrorResponse{
		Error:       string(domainErr.Code),
		Description: domainErr.Message,
		Fields:      domainErr.Fields,
	}
	WriteJSON(w, StatusFor(domainErr.Code), resp)
}

// StatusFor maps domain error codes to HTTP status codes.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case dErrors.CodeCredentialInvalid, dErrors.CodeAuthenticationFailed:
		return http.StatusUnauthorized
	case dErrors.CodeAccountLocked, dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeCredentialPersistence, dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
