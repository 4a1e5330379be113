package msgcore

import "errors"

// The four error kinds from the design: a caller mistake, a byte stream
// that didn't parse, a cross-reference that doesn't hold, or an
// underlying I/O failure. IOError has no sentinel of its own; the
// underlying io/os error is propagated unwrapped.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrFormat        = errors.New("format error")
	ErrInconsistency = errors.New("inconsistency")

	ErrNoCandidate      = errors.New("no command definition matches")
	ErrUnknownLabel     = errors.New("unknown offset label")
	ErrOutOfRange       = errors.New("parameter value out of range")
	ErrMissingElement   = errors.New("command missing required element")
	ErrNoSplitSnippet   = errors.New("database has no text box split snippet")
	ErrPatchNameMismatch = errors.New("patch command name does not match base command")
	ErrPatchLeftover    = errors.New("base text box has unconsumed commands after patch")
	ErrPatchTooShort    = errors.New("patch script ended before base text box was filled")
)
