// Package apperr classifies the failures the vision server can produce.
//
// Every error that crosses a package boundary carries a Kind. The tool
// dispatcher uses the Kind only for logging; the user-visible text is the
// error message itself. ConfigError is the only kind that stops the process.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies a failure category.
type Kind int

const (
	// Unknown is reported for errors that were never classified.
	Unknown Kind = iota
	ConfigError
	InvalidInput
	NotFound
	IOError
	NetworkError
	RemoteAPIError
	UnknownTool
)

var kindNames = map[Kind]string{
	Unknown:        "unknown",
	ConfigError:    "config_error",
	InvalidInput:   "invalid_input",
	NotFound:       "not_found",
	IOError:        "io_error",
	NetworkError:   "network_error",
	RemoteAPIError: "remote_api_error",
	UnknownTool:    "unknown_tool",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is a classified error. Message is what callers see; Err, when set,
// is appended after a colon and is reachable through errors.Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a classified error with a formatted message.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind with a formatted message prefix.
// A nil err yields nil.
func Wrap(err error, kind Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
