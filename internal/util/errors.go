// internal/util/errors.go
package util

import "errors"

// Kind classifies every expected failure of the ledger core.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUserNotFound
	KindStatementNotFound
	KindInsufficientFunds
	KindInvalidReceiver
	KindInvalidInput
	KindDuplicateEntry
	KindIncorrectCredentials
	KindInvalidToken
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "resource not found"
	case KindUserNotFound:
		return "user not found"
	case KindStatementNotFound:
		return "statement not found"
	case KindInsufficientFunds:
		return "insufficient funds"
	case KindInvalidReceiver:
		return "invalid receiver"
	case KindInvalidInput:
		return "invalid input provided"
	case KindDuplicateEntry:
		return "duplicate entry"
	case KindIncorrectCredentials:
		return "incorrect email or password"
	case KindInvalidToken:
		return "JWT invalid token!"
	default:
		return "unknown error"
	}
}

// Error is the single error type returned by services and repositories for
// expected conditions. Op names the operation that failed, Err is an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so sentinels match
// regardless of the operation that raised them.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds an Error of the given kind for op. cause may be nil.
func NewError(op string, kind Kind, cause error) error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Common application-specific errors.
var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrUserNotFound         = &Error{Kind: KindUserNotFound}
	ErrStatementNotFound    = &Error{Kind: KindStatementNotFound}
	ErrInsufficientFunds    = &Error{Kind: KindInsufficientFunds}
	ErrInvalidReceiver      = &Error{Kind: KindInvalidReceiver}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrDuplicateEntry       = &Error{Kind: KindDuplicateEntry} // e.g. registering an email twice
	ErrIncorrectCredentials = &Error{Kind: KindIncorrectCredentials}
	ErrInvalidToken         = &Error{Kind: KindInvalidToken}
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
