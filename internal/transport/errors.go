package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ErrTimeout is matched by every error caused by an expired request deadline.
var ErrTimeout = errors.New("request timed out")

// RejectedError is returned for non-2xx responses.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// EndpointMissingError is returned when an auth endpoint answers 404.
type EndpointMissingError struct {
	BaseURL string
}

func (e *EndpointMissingError) Error() string {
	return fmt.Sprintf("Auth endpoint not found (404). Backend may need redeploy. Base URL: %s", e.BaseURL)
}

// UnreachableError wraps a network failure that produced no response.
type UnreachableError struct {
	BaseURL string
	Err     error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("cannot reach %s: %v", e.BaseURL, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 rejection.
func IsUnauthorized(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected) && rejected.Status == http.StatusUnauthorized
}

// Status returns the HTTP status carried by err, or 0 when there is none.
func Status(err error) int {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Status
	}
	var missing *EndpointMissingError
	if errors.As(err, &missing) {
		return http.StatusNotFound
	}
	return 0
}

// IsLoopback reports whether baseURL points at this machine.
func IsLoopback(baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Describe converts err into the message shown to the user.
//
// Transport failures against a loopback base URL suggest starting the backend; against a remote one they suggest the server is slow or down.
// Rejections carry the server's own message.
func Describe(err error, baseURL string) string {
	if err == nil {
		return ""
	}

	local := IsLoopback(baseURL)

	var (
		missing     *EndpointMissingError
		rejected    *RejectedError
		unreachable *UnreachableError
	)

	switch {
	case errors.Is(err, ErrTimeout):
		if local {
			return "Request timed out. Make sure the backend is running (e.g. uvicorn app.main:app --reload from the backend folder)."
		}
		return "Request timed out. The server may be slow or unreachable."
	case errors.As(err, &unreachable):
		if local {
			return fmt.Sprintf("Cannot reach the backend at %s. Make sure it is running.", unreachable.BaseURL)
		}
		return fmt.Sprintf("Cannot reach %s. The server may be down or unreachable.", unreachable.BaseURL)
	case errors.As(err, &missing):
		return missing.Error()
	case errors.As(err, &rejected):
		return rejected.Message
	default:
		return err.Error()
	}
}
