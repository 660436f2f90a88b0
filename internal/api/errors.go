package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/marketplace-core/internal/auth"
	"github.com/nerrad567/marketplace-core/internal/catalog"
	"github.com/nerrad567/marketplace-core/internal/media"
)

// Error represents a structured error response. ErrorText repeats Message
// under the "error" key that storefront clients read.
type Error struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	ErrorText string `json:"error"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeCredentials  = "invalid_credentials"
)

// Client-facing messages for errors that are not domain sentinels.
const (
	msgInternal      = "internal server error"
	msgInvalidJSON   = "invalid JSON body"
	msgInvalidForm   = "invalid form data"
	msgTokenRequired = "Authorization token required"
	msgInvalidToken  = "Invalid token"
	msgNotFoundOwned = "Product not found or unauthorized"
)

// domainErrors maps sentinel errors to their HTTP status and message.
// The first match wins.
var domainErrors = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{auth.ErrMissingFields, http.StatusBadRequest, ErrCodeValidation, "All fields must be filled"},
	{auth.ErrInvalidEmail, http.StatusBadRequest, ErrCodeValidation, "Email is not valid"},
	{auth.ErrEmailInUse, http.StatusBadRequest, ErrCodeConflict, "Email already in use"},
	{auth.ErrIncorrectEmail, http.StatusBadRequest, ErrCodeCredentials, "Incorrect email"},
	{auth.ErrIncorrectPassword, http.StatusBadRequest, ErrCodeCredentials, "Incorrect password"},
	{catalog.ErrMissingFields, http.StatusBadRequest, ErrCodeValidation, "All fields are required"},
	{catalog.ErrInvalidCategory, http.StatusBadRequest, ErrCodeValidation, "Invalid category"},
	{catalog.ErrInvalidPrice, http.StatusBadRequest, ErrCodeValidation, "Price must be a positive number"},
	{catalog.ErrImageRequired, http.StatusBadRequest, ErrCodeValidation, "Image is required"},
	{media.ErrUnsupportedType, http.StatusBadRequest, ErrCodeValidation, "Image must be a jpeg, png, gif or webp file"},
	{media.ErrTooLarge, http.StatusBadRequest, ErrCodeValidation, "Image exceeds the upload size limit"},
	{catalog.ErrProductNotFound, http.StatusNotFound, ErrCodeNotFound, "Product not found"},
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:    status,
		Code:      code,
		Message:   message,
		ErrorText: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
}

// writeDomainError maps err to a response. Unknown errors are logged and
// reported as a generic 500 so internals never reach the client.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			writeError(w, de.status, de.code, de.message)
			return
		}
	}

	s.logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Context().Value(ctxKeyRequestID),
		"error", err,
	)
	writeInternalError(w)
}
