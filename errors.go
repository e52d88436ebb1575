package pcre

import (
	"fmt"

	"github.com/coregx/pcre/bytecode"
)

// Match-time result codes, re-exported from package bytecode so callers of
// Exec and DFAExec can test them with errors.Is.
const (
	ErrNoMatch             = bytecode.ErrNoMatch
	ErrPartial             = bytecode.ErrPartial
	ErrBadOption           = bytecode.ErrBadOption
	ErrBadMagic            = bytecode.ErrBadMagic
	ErrMatchLimit          = bytecode.ErrMatchLimit
	ErrRecursionLimit      = bytecode.ErrRecursionLimit
	ErrCallout             = bytecode.ErrCallout
	ErrBadUTF8             = bytecode.ErrBadUTF8
	ErrBadUTF8Offset       = bytecode.ErrBadUTF8Offset
	ErrBadPartial          = bytecode.ErrBadPartial
	ErrDFAUnsupportedItem  = bytecode.ErrDFAUnsupportedItem
	ErrDFAUnsupportedCond  = bytecode.ErrDFAUnsupportedCond
	ErrDFAUnsupportedLimit = bytecode.ErrDFAUnsupportedLimit
	ErrDFAWorkspaceSize    = bytecode.ErrDFAWorkspaceSize
	ErrDFARecurse          = bytecode.ErrDFARecurse
	ErrDFABadRestart       = bytecode.ErrDFABadRestart
)

// CompileError reports a pattern that failed to compile. Err is the
// underlying *syntax.Error, which carries the error code and the offset
// in the pattern.
type CompileError struct {
	Pattern string
	Err     error
}

// Error implements error.
func (e *CompileError) Error() string {
	return fmt.Sprintf("pcre: compiling %q: %s", e.Pattern, trimPrefix(e.Err.Error()))
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "pcre: invalid config: " + e.Field + ": " + e.Message
}

func trimPrefix(s string) string {
	const prefix = "pcre: "
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}
