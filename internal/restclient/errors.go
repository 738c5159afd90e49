package restclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a failed API call.
type Kind string

const (
	KindThrottled          Kind = "throttled"
	KindGenericHTTP        Kind = "generic_http"
	KindServer             Kind = "server"
	KindConnection         Kind = "connection"
	KindInvalidFormat      Kind = "invalid_format"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindNotFound           Kind = "not_found"
	KindMissingEndpoint    Kind = "missing_endpoint"
	KindDecode             Kind = "decode"
)

// Error is returned for every failed request. Callers inspect Kind (or use
// errors.As) to separate transient failures from permanent ones.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Method     string
	Path       string
	Body       []byte
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.StatusCode > 0:
		msg = fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Kind)
	case e.Method != "":
		msg = fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Kind)
	default:
		msg = string(e.Kind)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient: throttling, a
// server-side fault or a transport failure.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindThrottled, KindGenericHTTP, KindServer, KindConnection:
		return true
	default:
		return false
	}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Kind
	}
	return ""
}

// IsThrottled reports whether err signals an exceeded request quota.
func IsThrottled(err error) bool {
	return KindOf(err) == KindThrottled
}

// IsNotFound reports whether err is a missing object.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// kindForStatus maps a non-2xx status code to a Kind.
func kindForStatus(status int, body string) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindInvalidFormat
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindInvalidCredentials
	case status == http.StatusNotFound:
		if body == "Endpoint Not Found" {
			return KindMissingEndpoint
		}
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindThrottled
	case status == http.StatusInternalServerError:
		return KindServer
	default:
		return KindGenericHTTP
	}
}
