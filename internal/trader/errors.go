package trader

import "errors"

// Kind is the closed set of failures a trade can end in.
type Kind int

const (
	KindInternal Kind = iota
	KindBadAuthentication
	KindBadRequestBody
	KindQuoteFailed
	KindSwapPrepFailed
)

func (k Kind) String() string {
	switch k {
	case KindBadAuthentication:
		return "bad_hmac"
	case KindBadRequestBody:
		return "bad_body"
	case KindQuoteFailed:
		return "quote_failed"
	case KindSwapPrepFailed:
		return "swap_prep_failed"
	default:
		return "internal"
	}
}

// Error is returned by Orchestrator.Execute for every failed trade.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Code is the value reported to the caller: the fixed code for named kinds,
// the underlying description for internal failures.
func (e *Error) Code() string {
	if e.Kind == KindInternal && e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}

// CodeOf returns the caller-facing code for err.
func CodeOf(err error) string {
	var te *Error
	if errors.As(err, &te) {
		return te.Code()
	}
	return err.Error()
}

func fail(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
