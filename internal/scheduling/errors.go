package scheduling

import "fmt"

// ErrorKind discriminates booking failures so the HTTP layer can map each to
// a status and a stable machine-readable code.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validationError"
	KindNotFound            ErrorKind = "notFoundError"
	KindPastDate            ErrorKind = "pastDateError"
	KindPastTime            ErrorKind = "pastTimeError"
	KindProviderUnavailable ErrorKind = "providerUnavailableError"
	KindSlotTaken           ErrorKind = "slotTakenError"
	KindDoublyBooked        ErrorKind = "doublyBookedError"
	KindForbidden           ErrorKind = "forbiddenError"
)

// Error is a booking-domain failure with a user-presentable message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from a scheduling error, or "" for any other error.
func KindOf(err error) ErrorKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ""
}
