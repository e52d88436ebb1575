package bytecode

import "fmt"

// ExecCode is a negative match-time result code. ErrNoMatch and ErrPartial
// are outcomes rather than failures; every other code aborts the match.
type ExecCode int

// Match-time result codes.
const (
	ErrNoMatch             ExecCode = -1
	ErrNull                ExecCode = -2
	ErrBadOption           ExecCode = -3
	ErrBadMagic            ExecCode = -4
	ErrUnknownNode         ExecCode = -5
	ErrNoMemory            ExecCode = -6
	ErrNoSubstring         ExecCode = -7
	ErrMatchLimit          ExecCode = -8
	ErrCallout             ExecCode = -9
	ErrBadUTF8             ExecCode = -10
	ErrBadUTF8Offset       ExecCode = -11
	ErrPartial             ExecCode = -12
	ErrBadPartial          ExecCode = -13
	ErrInternal            ExecCode = -14
	ErrBadCount            ExecCode = -15
	ErrDFAUnsupportedItem  ExecCode = -16
	ErrDFAUnsupportedCond  ExecCode = -17
	ErrDFAUnsupportedLimit ExecCode = -18
	ErrDFAWorkspaceSize    ExecCode = -19
	ErrDFARecurse          ExecCode = -20
	ErrRecursionLimit      ExecCode = -21
	ErrDFABadRestart       ExecCode = -22
)

var execMessages = map[ExecCode]string{
	ErrNoMatch:             "no match",
	ErrNull:                "null argument",
	ErrBadOption:           "bad option",
	ErrBadMagic:            "bad magic number",
	ErrUnknownNode:         "unknown opcode (pattern corrupted)",
	ErrNoMemory:            "out of memory",
	ErrNoSubstring:         "no such substring",
	ErrMatchLimit:          "match limit exceeded",
	ErrCallout:             "callout error",
	ErrBadUTF8:             "invalid UTF-8 subject",
	ErrBadUTF8Offset:       "start offset is not at a UTF-8 character boundary",
	ErrPartial:             "partial match",
	ErrBadPartial:          "pattern contains items that cannot be used with partial matching",
	ErrInternal:            "internal error",
	ErrBadCount:            "negative ovector size",
	ErrDFAUnsupportedItem:  "DFA does not support this item",
	ErrDFAUnsupportedCond:  "DFA does not support back reference conditions",
	ErrDFAUnsupportedLimit: "DFA does not support match limits",
	ErrDFAWorkspaceSize:    "DFA workspace too small",
	ErrDFARecurse:          "DFA recursion too deep",
	ErrRecursionLimit:      "recursion limit exceeded",
	ErrDFABadRestart:       "DFA workspace does not hold a restartable match",
}

// Error implements error.
func (c ExecCode) Error() string {
	if m, ok := execMessages[c]; ok {
		return "pcre: " + m
	}
	return fmt.Sprintf("pcre: unknown exec error %d", int(c))
}

// IsFailure reports whether c aborts the match, as opposed to describing
// its outcome.
func (c ExecCode) IsFailure() bool {
	return c != ErrNoMatch && c != ErrPartial
}

// UTF8Error reports an invalid UTF-8 subject. It matches ErrBadUTF8 (or
// ErrBadUTF8Offset when the start offset splits a character) under errors.Is.
type UTF8Error struct {
	Offset  int  // byte offset of the offending byte
	AtStart bool // the start offset itself is inside a character
}

// Error implements error.
func (e *UTF8Error) Error() string {
	if e.AtStart {
		return fmt.Sprintf("pcre: start offset %d is not at a UTF-8 character boundary", e.Offset)
	}
	return fmt.Sprintf("pcre: invalid UTF-8 subject at offset %d", e.Offset)
}

// Is enables errors.Is(err, ErrBadUTF8).
func (e *UTF8Error) Is(target error) bool {
	if e.AtStart {
		return target == ErrBadUTF8Offset
	}
	return target == ErrBadUTF8
}

// Code returns the ExecCode for e.
func (e *UTF8Error) Code() ExecCode {
	if e.AtStart {
		return ErrBadUTF8Offset
	}
	return ErrBadUTF8
}
