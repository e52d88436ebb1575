package syntax

import "fmt"

// ErrorCode identifies a compile error. The numbering is stable and matches
// the PCRE error numbers, so codes can be compared across implementations.
type ErrorCode int

// Compile error codes.
const (
	ErrNone                 ErrorCode = iota
	ErrBackslashAtEnd                 // \ at end of pattern
	ErrBackslashCAtEnd                // \c at end of pattern
	ErrUnknownEscape                  // unrecognized character follows \ (Extra mode)
	ErrQuantifierOrder                // numbers out of order in {} quantifier
	ErrQuantifierTooBig               // number too big in {} quantifier
	ErrMissingBracket                 // missing terminating ] for character class
	ErrInvalidClassEscape             // invalid escape sequence in character class
	ErrRangeOrder                     // range out of order in character class
	ErrNothingToRepeat                // nothing to repeat
	_                                 // reserved: empty-iteration loops are stopped at match time
	ErrUnexpectedRepeat               // internal error: unexpected repeat
	ErrUnknownGroup                   // unrecognized character after (?
	ErrPOSIXOutsideClass              // POSIX named classes are supported only within a class
	ErrMissingParen                   // missing )
	ErrNonexistentGroup               // reference to non-existent subpattern
	ErrNullOffset                     // erroffset passed as NULL
	ErrUnknownOption                  // unknown option bit(s) set
	ErrMissingCommentParen            // missing ) after comment
	ErrNestedTooDeeply                // parentheses nested too deeply
	ErrTooLarge                       // regular expression too large
	ErrNoMemory                       // failed to get memory
	ErrUnmatchedParen                 // unmatched parentheses
	ErrCodeOverflow                   // internal error: code overflow
	ErrUnknownAfterLess               // unrecognized character after (?<
	ErrLookbehindNotFixed             // lookbehind assertion is not fixed length
	ErrMalformedCondition             // malformed number or name after (?(
	ErrConditionBranches              // conditional group contains more than two branches
	ErrAssertionExpected              // assertion expected after (?(
	ErrRecursionSyntax                // (?R or (?digits must be followed by )
	ErrUnknownPOSIXClass              // unknown POSIX class name
	ErrPOSIXCollating                 // POSIX collating elements are not supported
	ErrNoUTF8                         // UTF-8 support not available
	ErrSpare                          // spare error
	ErrHexTooLarge                    // character value in \x{...} sequence is too large
	ErrInvalidCondition0              // invalid condition (?(0)
	ErrByteInLookbehind               // \C not allowed in lookbehind assertion
	ErrUnsupportedEscape              // \L, \l, \N, \U, \u are not supported
	ErrCalloutTooBig                  // number after (?C is > 255
	ErrCalloutParen                   // closing ) for (?C expected
	ErrRecursiveLoop                  // recursive call could loop indefinitely
	ErrUnknownAfterP                  // unrecognized character after (?P
	ErrNameSyntax                     // syntax error in subpattern name
	ErrDuplicateName                  // two named subpatterns have the same name
	ErrInvalidUTF8                    // invalid UTF-8 string
	ErrNoUCP                          // \P, \p and \X are not available
	ErrMalformedProperty              // malformed \P or \p sequence
	ErrUnknownProperty                // unknown property name after \P or \p
	ErrNameTooLong                    // subpattern name is too long
	ErrTooManyNames                   // too many named subpatterns
	ErrRepeatTooLong                  // repeated subpattern is too long
	numErrors
)

var messages = [numErrors]string{
	"no error",
	"\\ at end of pattern",
	"\\c at end of pattern",
	"unrecognized character follows \\",
	"numbers out of order in {} quantifier",
	"number too big in {} quantifier",
	"missing terminating ] for character class",
	"invalid escape sequence in character class",
	"range out of order in character class",
	"nothing to repeat",
	"operand of unlimited repeat could match the empty string",
	"internal error: unexpected repeat",
	"unrecognized character after (?",
	"POSIX named classes are supported only within a class",
	"missing )",
	"reference to non-existent subpattern",
	"erroffset passed as NULL",
	"unknown option bit(s) set",
	"missing ) after comment",
	"parentheses nested too deeply",
	"regular expression too large",
	"failed to get memory",
	"unmatched parentheses",
	"internal error: code overflow",
	"unrecognized character after (?<",
	"lookbehind assertion is not fixed length",
	"malformed number or name after (?(",
	"conditional group contains more than two branches",
	"assertion expected after (?(",
	"(?R or (?digits must be followed by )",
	"unknown POSIX class name",
	"POSIX collating elements are not supported",
	"UTF-8 support is not available",
	"spare error",
	"character value in \\x{...} sequence is too large",
	"invalid condition (?(0)",
	"\\C not allowed in lookbehind assertion",
	"\\L, \\l, \\N, \\U, and \\u are not supported",
	"number after (?C is > 255",
	"closing ) for (?C expected",
	"recursive call could loop indefinitely",
	"unrecognized character after (?P",
	"syntax error in subpattern name (missing terminator)",
	"two named subpatterns have the same name",
	"invalid UTF-8 string",
	"support for \\P, \\p, and \\X is not available",
	"malformed \\P or \\p sequence",
	"unknown property name after \\P or \\p",
	"subpattern name is too long (maximum 32 characters)",
	"too many named subpatterns (maximum 10,000)",
	"repeated subpattern is too long",
}

// String returns the static message for c.
func (c ErrorCode) String() string {
	if c >= 0 && c < numErrors {
		return messages[c]
	}
	return fmt.Sprintf("unknown error %d", int(c))
}

// Error is a compile error: a code and the byte offset in the pattern at
// which it was detected.
type Error struct {
	Code    ErrorCode
	Offset  int
	Pattern string
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("pcre: %s at offset %d", e.Code, e.Offset)
}

// Is reports whether target is an *Error with the same code, so callers
// can write errors.Is(err, &syntax.Error{Code: syntax.ErrMissingParen}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Caret renders the pattern with a caret under the error offset.
func (e *Error) Caret() string {
	pad := make([]byte, e.Offset)
	for i := range pad {
		pad[i] = ' '
	}
	return e.Pattern + "\n" + string(pad) + "^"
}
