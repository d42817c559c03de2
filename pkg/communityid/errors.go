package communityid

import (
	"errors"
	"fmt"
)

// Kind categorizes why a tuple could not be fingerprinted.
type Kind int

const (
	KindUnknown Kind = iota
	KindMissingField
	KindUnparseableAddress
	KindUnparseableNumber
	KindFamilyMismatch
	KindOutOfRange
)

func (k Kind) String() string {
	switch k {
	case KindMissingField:
		return "missing_field"
	case KindUnparseableAddress:
		return "unparseable_address"
	case KindUnparseableNumber:
		return "unparseable_number"
	case KindFamilyMismatch:
		return "family_mismatch"
	case KindOutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrMissingField       = errors.New("field not found")
	ErrUnparseableAddress = errors.New("unparseable IP address")
	ErrUnparseableNumber  = errors.New("unparseable number")
	ErrFamilyMismatch     = errors.New("source and destination address families differ")
	ErrOutOfRange         = errors.New("value out of range")
)

func (k Kind) sentinel() error {
	switch k {
	case KindMissingField:
		return ErrMissingField
	case KindUnparseableAddress:
		return ErrUnparseableAddress
	case KindUnparseableNumber:
		return ErrUnparseableNumber
	case KindFamilyMismatch:
		return ErrFamilyMismatch
	case KindOutOfRange:
		return ErrOutOfRange
	default:
		return nil
	}
}

// Error is a per-tuple failure naming the offending input field.
type Error struct {
	Kind  Kind
	Field string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.sentinel()
	if msg == nil {
		msg = errors.New("invalid input")
	}
	s := fmt.Sprintf("%s: %v", e.Field, msg)
	if e.Value != "" {
		s += fmt.Sprintf(" %q", e.Value)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// NewError builds an *Error for field.
func NewError(kind Kind, field, value string, err error) error {
	return &Error{Kind: kind, Field: field, Value: value, Err: err}
}

// MissingField reports that field was absent from the input.
func MissingField(field string) error {
	return &Error{Kind: KindMissingField, Field: field}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FieldOf returns the field name carried by err, or "" if err is not an *Error.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
