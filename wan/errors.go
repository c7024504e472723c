package wan

import (
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/cursor"
)

// Errors returned while parsing or rendering. Returned errors carry context;
// test for the kind with errors.Is.
var (
	// ErrOutOfBounds: a read went past the end of the buffer.
	ErrOutOfBounds = cursor.ErrOutOfBounds

	ErrMalformedHeader             = errors.New("wan: malformed header")
	ErrUnknownSpriteType           = errors.New("wan: unknown sprite type")
	ErrMalformedPalette            = errors.New("wan: malformed palette")
	ErrImageLengthMismatch         = errors.New("wan: image length mismatch")
	ErrCorruptTileStream           = errors.New("wan: corrupt tile stream")
	ErrUnknownResolutionCode       = errors.New("wan: unknown resolution code")
	ErrDanglingFragmentReference   = errors.New("wan: dangling fragment reference")
	ErrFragmentLayout              = errors.New("wan: fragments not in frame group order")
	ErrDanglingImageReuse          = errors.New("wan: image reuse without a previous fragment")
	ErrDanglingFrameGroupReference = errors.New("wan: dangling frame group reference")
	ErrIndexOutOfRange             = errors.New("wan: index out of range")
)

// kindError marks a lower-level cause (typically an out of bounds read) with
// one of the error kinds above, so that errors.Is matches both.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.cause
}

func withKind(kind, cause error, format string, args ...interface{}) error {
	return errors.Wrapf(&kindError{kind: kind, cause: cause}, format, args...)
}

func indexError(what string, idx, n int) error {
	return errors.Wrapf(ErrIndexOutOfRange, "%s %d (have %d)", what, idx, n)
}
