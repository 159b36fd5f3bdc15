package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/hostelctl/hostelctl/internal/common"
)

// Kind classifies a failed API call.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindNetwork
	KindTimeout
	KindServer
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// NetworkError is a transport failure: no connectivity, DNS, refused
// connection, TLS.
type NetworkError struct {
	Err    error
	Method string
	Path   string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is a request that did not complete in time.
type TimeoutError struct {
	Err    error
	Method string
	Path   string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: request timed out: %v", e.Method, e.Path, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response carrying the server's error envelope.
type ServerError struct {
	Details   json.RawMessage
	Message   string
	Code      string
	Path      string
	Timestamp string
	Status    int
}

func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

// ValidationError is a rejected input, either by local payload checks
// (Status 0) or by the server with a 4xx carrying field details.
type ValidationError struct {
	Fields  map[string]string
	Message string
	Status  int
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// UnknownError wraps anything that fits no other kind, such as a 2xx
// response whose body cannot be decoded.
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unexpected API failure: %v", e.Err)
}

func (e *UnknownError) Unwrap() error { return e.Err }

// Classify returns the kind of err.
func Classify(err error) Kind {
	var (
		netErr     *NetworkError
		timeoutErr *TimeoutError
		serverErr  *ServerError
		validErr   *ValidationError
	)

	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &validErr):
		return KindValidation
	case errors.As(err, &serverErr):
		return KindServer
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &netErr):
		return KindNetwork
	default:
		return KindUnknown
	}
}

// StatusCode returns the HTTP status behind err, or 0 when none applies.
func StatusCode(err error) int {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Status
	}
	var validErr *ValidationError
	if errors.As(err, &validErr) {
		return validErr.Status
	}
	return 0
}

// IsRetryable flags errors a user may sensibly retry. Requests are never
// retried automatically.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case KindNetwork, KindTimeout:
		return true
	case KindServer:
		switch StatusCode(err) {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// Severity grades an error for display.
type Severity int

// Severities, from least to most alarming.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityConflict
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityConflict:
		return "conflict"
	case SeverityCritical:
		return "critical"
	default:
		return "error"
	}
}

// SeverityOf maps err to a display severity keyed by status code:
// 404 info, 401/403 warning, 409 conflict, 5xx critical.
func SeverityOf(err error) Severity {
	status := StatusCode(err)
	switch {
	case status == 0 && isSessionError(err):
		return SeverityWarning
	case status == http.StatusNotFound:
		return SeverityInfo
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return SeverityWarning
	case status == http.StatusConflict:
		return SeverityConflict
	case status >= http.StatusInternalServerError:
		return SeverityCritical
	default:
		return SeverityError
	}
}

// UserMessage renders err as a one-line alert.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch Classify(err) {
	case KindNetwork:
		return "Unable to reach the server. Check your connection and try again."
	case KindTimeout:
		return "The server took too long to respond. Please try again."
	case KindValidation:
		return err.Error()
	case KindServer:
		var serverErr *ServerError
		errors.As(err, &serverErr)
		switch {
		case serverErr.Status == http.StatusUnauthorized:
			return "Your session has expired. Please log in again."
		case serverErr.Status == http.StatusForbidden:
			return "You do not have permission to perform this action."
		case serverErr.Message != "":
			return serverErr.Message
		case serverErr.Status >= http.StatusInternalServerError:
			return "Something went wrong on the server. Please try again later."
		}
		return http.StatusText(serverErr.Status)
	default:
		if errors.Is(err, context.Canceled) {
			return "Request cancelled."
		}
		if errors.Is(err, common.ErrSessionExpired) {
			return "Your session has expired. Please log in again."
		}
		if errors.Is(err, common.ErrNotAuthenticated) {
			return "You are not logged in. Run 'hostelctl auth login' first."
		}
		return "Something went wrong. Please try again."
	}
}

func isSessionError(err error) bool {
	return errors.Is(err, common.ErrNotAuthenticated) || errors.Is(err, common.ErrSessionExpired)
}

// transportError converts an http.Client failure into a tagged error.
func transportError(ctx context.Context, method, path string, err error) error {
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return fmt.Errorf("%s %s: %w", method, path, ctxErr)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Method: method, Path: path, Err: err}
	}
	return &NetworkError{Method: method, Path: path, Err: err}
}
