package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed call to the spreadsheet service.
type ErrorKind int

const (
	// KindTransport covers network failures and non-2xx responses.
	KindTransport ErrorKind = iota + 1
	// KindMalformed is a list response whose body is not usable JSON.
	KindMalformed
	// KindRemote is a well-formed response carrying an "error" field.
	KindRemote
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is against a *RemoteError of the matching kind.
var (
	ErrTransport = errors.New("sheets: transport failure")
	ErrMalformed = errors.New("sheets: malformed response")
	ErrRemote    = errors.New("sheets: remote error")
)

// RemoteError is the only error the sheets gateway returns.
type RemoteError struct {
	Kind    ErrorKind
	Op      string // "getLeads" or "addLead"
	Status  int    // HTTP status when one was received
	Message string // remote error text for KindRemote
	Err     error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Kind == KindRemote:
		return fmt.Sprintf("sheets %s: remote error: %s", e.Op, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("sheets %s: %s: HTTP status %d", e.Op, e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("sheets %s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("sheets %s: %s", e.Op, e.Kind)
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrMalformed:
		return e.Kind == KindMalformed
	case ErrRemote:
		return e.Kind == KindRemote
	}
	return false
}

// Retryable reports whether the caller may simply try again. Transport and
// malformed failures are surfaced the same way; remote errors carry a
// message meant for the user.
func (e *RemoteError) Retryable() bool {
	return e.Kind == KindTransport || e.Kind == KindMalformed
}
