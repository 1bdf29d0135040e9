// Package apperr defines the application error kinds and translates any
// error into the uniform JSON error envelope.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/product-api/internal/model"
	"github.com/vyrodovalexey/product-api/internal/store"
)

// Kind is the closed set of failure categories exposed to clients.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindAuthentication
	KindPayloadTooLarge
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is an application error with a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Errors  []string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound returns a KindNotFound error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Validation returns a KindValidation error with optional field messages.
func Validation(message string, errs ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Errors: errs}
}

// Authentication returns a KindAuthentication error.
func Authentication(message string, cause error) *Error {
	return &Error{Kind: KindAuthentication, Message: message, Err: cause}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: cause}
}

// Default client messages for classified foreign errors.
const (
	MsgResourceNotFound  = "Resource not found"
	MsgProductNotFound   = "Product not found"
	MsgDuplicateField    = "Duplicate field value entered"
	MsgValidationFailed  = "Product validation failed"
	MsgServerError       = "Server Error"
	MsgRouteNotFound     = "Route not found"
	MsgInvalidAPIKey     = "Invalid API key"
	MsgAPIKeyRequired    = "API key is required"
	MsgSearchQueryNeeded = "Search query (q) is required"
	MsgPayloadTooLarge   = "Request body too large"
)

// From classifies err into an *Error. Errors that are already *Error are
// returned as is.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var vErr *model.ValidationError
	switch {
	case errors.As(err, &vErr):
		return &Error{Kind: KindValidation, Message: MsgValidationFailed, Errors: vErr.Messages, Err: err}
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: MsgProductNotFound, Err: err}
	case errors.Is(err, store.ErrInvalidID):
		return &Error{Kind: KindNotFound, Message: MsgResourceNotFound, Err: err}
	case errors.Is(err, store.ErrDuplicate):
		return &Error{Kind: KindValidation, Message: MsgDuplicateField, Err: err}
	default:
		return &Error{Kind: KindInternal, Message: MsgServerError, Err: err}
	}
}

// Translator renders errors as JSON envelopes.
type Translator struct {
	logger        *zap.Logger
	exposeDetails bool
}

// NewTranslator creates a Translator. When exposeDetails is true the
// underlying error text is included in responses.
func NewTranslator(logger *zap.Logger, exposeDetails bool) *Translator {
	return &Translator{
		logger:        logger,
		exposeDetails: exposeDetails,
	}
}

// Write classifies err and writes the matching status and envelope.
func (t *Translator) Write(w http.ResponseWriter, r *http.Request, err error) {
	appErr := From(err)
	status := appErr.Kind.Status()

	fields := []zap.Field{
		zap.String("kind", appErr.Kind.String()),
		zap.Int("status", status),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if appErr.Kind == KindInternal {
		t.logger.Error("request failed", fields...)
	} else {
		t.logger.Warn("request rejected", fields...)
	}

	response := model.ErrorResponse{
		Success: false,
		Message: appErr.Message,
		Errors:  appErr.Errors,
	}
	if t.exposeDetails && appErr.Err != nil {
		response.Details = appErr.Err.Error()
	}

	if appErr.Kind == KindAuthentication {
		w.Header().Set("WWW-Authenticate", "API-Key")
	}

	WriteJSON(w, status, response)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	// Headers are already sent; there is nothing left to report to.
	_ = json.NewEncoder(w).Encode(data)
}

// HandlerFunc is an HTTP handler that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn into an http.Handler that sends any returned error
// through the translator.
func (t *Translator) Handle(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			t.Write(w, r, err)
		}
	})
}
