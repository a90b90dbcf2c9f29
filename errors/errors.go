package errors

import (
	// Go Internal Packages
	stderrors "errors"
	"strings"
)

// Kind classifies an error so that callers (and transports) can react to it
// without string matching.
type Kind uint8

const (
	Other               Kind = iota // Unclassified error.
	Invalid                         // Malformed or missing input.
	Forbidden                       // Caller is not allowed to perform the operation.
	InvalidTransition               // Action not allowed from the current state.
	ProviderUnavailable             // Provider cannot take the request right now.
	AmountOutOfBounds               // Amount outside the provider's bounds.
	InvalidAmount                   // Amount below the product floor.
	NotFound                        // Unknown id.
	Conflict                        // Concurrent modification or duplicate record.
	LimitExceeded                   // Per-actor limit reached.
	Internal                        // Backing store or transport failure.
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "validation_error"
	case Forbidden:
		return "forbidden"
	case InvalidTransition:
		return "invalid_transition"
	case ProviderUnavailable:
		return "provider_unavailable"
	case AmountOutOfBounds:
		return "amount_out_of_bounds"
	case InvalidAmount:
		return "invalid_amount"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case LimitExceeded:
		return "limit_exceeded"
	case Internal:
		return "internal"
	}
	return "unknown"
}

// Error is the error type returned by the core packages.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// E builds an *Error. err may be nil.
func E(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the outermost *Error in err's chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err carries the given kind.
func Is(kind Kind, err error) bool {
	return err != nil && KindOf(err) == kind
}

// As is errors.As from the standard library, re-exported so callers that
// import this package under the name errors still have it at hand.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// New is errors.New from the standard library.
func New(text string) error {
	return stderrors.New(text)
}
