// Package errs defines the sentinel errors shared by all phdpack packages.
//
// Errors are returned bare or wrapped with fmt.Errorf("...: %w", err); callers
// should match them with errors.Is.
package errs

import "errors"

// Codec errors.
var (
	ErrInvalidWidth   = errors.New("invalid mder float width")
	ErrBufferOverflow = errors.New("destination buffer too small")
	ErrParse          = errors.New("malformed mder decimal string")
	ErrOutOfRange     = errors.New("value out of representable range")
)

// Template and patch errors.
var (
	ErrCapacityExceeded  = errors.New("reserved capacity exceeded")
	ErrTypeMismatch      = errors.New("value kind does not match field kind")
	ErrInvalidField      = errors.New("invalid field handle")
	ErrInvalidDescriptor = errors.New("invalid measurement descriptor")
	ErrGroupIDCollision  = errors.New("group id already used by a different shape")
	ErrInvalidChangeSet  = errors.New("invalid optimized change set")
)

// Record errors.
var (
	ErrInvalidHeaderSize  = errors.New("invalid record header size")
	ErrInvalidHeaderFlags = errors.New("invalid record header flags")
	ErrInvalidLength      = errors.New("record length does not match header")
	ErrHeaderMismatch     = errors.New("templates do not share the same header layout")
	ErrNoTemplates        = errors.New("no templates to assemble")
	ErrNoSequence         = errors.New("no optimized sequence in progress")
	ErrTruncated          = errors.New("record truncated")
)

// Archive errors.
var (
	ErrInvalidArchive     = errors.New("invalid record archive")
	ErrChecksumMismatch   = errors.New("record archive checksum mismatch")
	ErrInvalidMagicNumber = errors.New("invalid magic number")
)
