package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind buckets a transport failure for callers that branch on cause rather
// than status code.
type Kind string

const (
	// KindValidation is a structured rejection with optional field details.
	KindValidation Kind = "validation"
	// KindAuth is a 401/403 — the credential is missing, expired or denied.
	KindAuth Kind = "auth"
	// KindNetwork means no usable response arrived (DNS, connection reset).
	KindNetwork Kind = "network"
	// KindTimeout means the client-side deadline fired first.
	KindTimeout Kind = "timeout"
	// KindProtocol is a malformed or non-enveloped failure response.
	KindProtocol Kind = "protocol"
)

// ErrorDetail is the structured error block of a response envelope.
type ErrorDetail struct {
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Error is the single normalized failure raised by the Client. It is
// constructed once per failed call and never mutated afterwards.
type Error struct {
	Message string
	Status  int // 0 when no HTTP response was received
	Kind    Kind
	// Detail carries the envelope error block when the server sent one,
	// so callers (e.g. registration forms) can render field-level messages.
	Detail    *ErrorDetail
	RequestID string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return e.Message
}

// IsStatus reports whether err (or any wrapped error) is a client Error with
// the given HTTP status code.
func IsStatus(err error, code int) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Status == code
	}
	return false
}

// IsAuth reports whether err is an authentication/authorization failure.
func IsAuth(err error) bool { return isKind(err, KindAuth) }

// IsTimeout reports whether err is a client-side timeout.
func IsTimeout(err error) bool { return isKind(err, KindTimeout) }

// IsValidation reports whether err is a structured validation rejection.
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsNetwork reports whether err is a transport-level failure with no
// response.
func IsNetwork(err error) bool { return isKind(err, KindNetwork) }

func isKind(err error, k Kind) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind == k
	}
	return false
}

// kindForStatus maps an HTTP failure status onto the error taxonomy.
// Enveloped rejections default to validation unless the status says auth.
func kindForStatus(status int, enveloped bool) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	}
	if enveloped {
		return KindValidation
	}
	return KindProtocol
}
