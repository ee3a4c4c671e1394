package client

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

type ErrorKind int

const (
	// KindNetwork covers failures where no response arrived for another reason.
	KindNetwork ErrorKind = iota
	KindConnectionRefused
	KindNotFound
	KindServer
	// KindStatus is any other non-2xx response.
	KindStatus
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnectionRefused:
		return "connection refused"
	case KindNotFound:
		return "not found"
	case KindServer:
		return "server error"
	case KindStatus:
		return "unexpected status"
	default:
		return "network error"
	}
}

// TransportError is returned by every Client call that did not get a 2xx.
type TransportError struct {
	Kind       ErrorKind
	Op         string
	URL        string
	StatusCode int
	// Message is the "error" field of the response body, if any.
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == KindNotFound
}

func classifyNetwork(op, rawURL string, err error) *TransportError {
	kind := KindNetwork
	if errors.Is(err, syscall.ECONNREFUSED) {
		kind = KindConnectionRefused
	}
	return &TransportError{Kind: kind, Op: op, URL: rawURL, Err: err}
}

func classifyStatus(op, rawURL string, status int, message string) *TransportError {
	kind := KindStatus
	switch {
	case status == 404:
		kind = KindNotFound
	case status >= 500:
		kind = KindServer
	}
	return &TransportError{Kind: kind, Op: op, URL: rawURL, StatusCode: status, Message: message}
}

// UserMessage turns an error from Client into the text shown to a person.
// Errors that are not classified transport failures yield fallback.
func UserMessage(err error, fallback string) string {
	var te *TransportError
	if !errors.As(err, &te) {
		return fallback
	}
	switch te.Kind {
	case KindConnectionRefused:
		return fmt.Sprintf("Cannot connect to server. Is the backend running on port %s?", portOf(te.URL))
	case KindNotFound:
		return "API endpoint not found. Check if backend is running properly."
	case KindServer:
		return "Server error. Check backend logs for details."
	case KindNetwork:
		return "Network error. Check if backend is running and CORS is configured."
	default:
		return fallback
	}
}

func portOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "3001"
	}
	if p := u.Port(); p != "" {
		return p
	}
	if _, p, err := net.SplitHostPort(u.Host); err == nil {
		return p
	}
	if u.Scheme == "https" {
		return "443"
	}
	return "80"
}
