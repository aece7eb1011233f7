package scraper

import (
	"fmt"
)

// ErrorKind classifies failures of the portal client.
type ErrorKind int

const (
	KindInvalidURL ErrorKind = iota + 1
	KindInvalidResponse
	KindInvalidEncoding
	KindHTTP
	KindNoData
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid url"
	case KindInvalidResponse:
		return "invalid response"
	case KindInvalidEncoding:
		return "invalid encoding"
	case KindHTTP:
		return "http error"
	case KindNoData:
		return "no data"
	case KindNetwork:
		return "network error"
	default:
		return "unknown error"
	}
}

// Error is returned by every Fetch operation of the Client.
type Error struct {
	Kind       ErrorKind
	Path       string // endpoint, e.g. "grid_call.php"
	StatusCode int    // set for KindHTTP
	Err        error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrInvalidURL      = &Error{Kind: KindInvalidURL}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
	ErrInvalidEncoding = &Error{Kind: KindInvalidEncoding}
	ErrHTTP            = &Error{Kind: KindHTTP}
	ErrNoData          = &Error{Kind: KindNoData}
	ErrNetwork         = &Error{Kind: KindNetwork}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
