package core

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// ErrorKind is the client-side classification of a failed call.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindAuthentication
	KindAuthorization
	KindValidation
	KindServer
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindValidation:
		return "ValidationError"
	case KindServer:
		return "ServerError"
	case KindConflict:
		return "DomainConflict"
	default:
		return "UnknownError"
	}
}

// Retryable reports whether the same call may succeed if the user tries again.
func (k ErrorKind) Retryable() bool {
	return k == KindNetwork || k == KindServer
}

// Machine-readable codes sent by the backend.
const (
	CodeAlreadyMember = "ALREADY_MEMBER"
	CodeNotMember     = "NOT_MEMBER"
)

var conflictCodes = map[string]bool{
	CodeAlreadyMember: true,
	CodeNotMember:     true,
}

// APIError is a classified failure of a backend call.
type APIError struct {
	Kind    ErrorKind
	Status  int    // 0 when no response reached the client
	Code    string // backend machine-readable code, if any
	Message string // backend message, if any
	Err     error  // underlying transport error, if any
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		_, _ = fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Code != "" {
		b.WriteString(" " + e.Code)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	} else if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Retryable() bool { return e.Kind.Retryable() }

// NewResponseError classifies a response the backend answered with a failure.
func NewResponseError(status int, code, message string) *APIError {
	return &APIError{
		Kind:    kindFor(status, code),
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// NewNetworkError wraps a transport failure where no response reached the client.
func NewNetworkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Err: err}
}

func kindFor(status int, code string) ErrorKind {
	if conflictCodes[strings.ToUpper(code)] {
		return KindConflict
	}
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusConflict:
		return KindConflict
	case status >= http.StatusInternalServerError:
		return KindServer
	default:
		return KindUnknown
	}
}

// Classify maps any error into an *APIError.
func Classify(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return &APIError{Kind: KindValidation, Message: vErr.Error(), Err: err}
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return &APIError{Kind: KindValidation, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return NewNetworkError(err)
	}
	return &APIError{Kind: KindUnknown, Err: err}
}

// canned user-facing messages per kind
var kindMessages = map[ErrorKind]string{
	KindNetwork:        "Unable to reach the server. Please check your connection and try again.",
	KindAuthentication: "Your session has expired. Please log in again.",
	KindAuthorization:  "You do not have permission to perform this action.",
	KindValidation:     "Some of the information provided is invalid. Please review it and try again.",
	KindServer:         "The server is having trouble right now. Please try again later.",
	KindConflict:       "That change has already been applied.",
	KindUnknown:        "Something went wrong. Please try again.",
}

// KindMessage returns the canned message for k.
func KindMessage(k ErrorKind) string { return kindMessages[k] }

const maxFriendlyLen = 120

var technicalMarkers = []string{
	"exception", "stack", "trace", "sql", "syntax", "undefined", "null", "nil pointer",
	"econn", "timeout", "status code", "internal server error", "{", "<",
}

// MapErrorToMessage turns err into a short user-facing message: the backend message when it is
// short and readable, otherwise the canned message for the error's kind.
func MapErrorToMessage(err error) string {
	apiErr := Classify(err)
	if apiErr == nil {
		return ""
	}
	if isFriendly(apiErr.Message) {
		return apiErr.Message
	}
	return KindMessage(apiErr.Kind)
}

func isFriendly(msg string) bool {
	msg = strings.TrimSpace(msg)
	if msg == "" || len(msg) > maxFriendlyLen || strings.ContainsAny(msg, "\n\t") {
		return false
	}
	lower := strings.ToLower(msg)
	for _, m := range technicalMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}
