package nfa

import (
	"fmt"

	"github.com/coregx/pcre/bytecode"
)

// CalloutBlock describes the match state at a callout point. The slices
// alias matcher state and are only valid for the duration of the call.
type CalloutBlock struct {
	// Number is the callout number: n for (?Cn), 255 for automatic
	// callouts.
	Number int

	// Ovector holds the captures taken so far, in the caller's layout.
	// Only pairs below CaptureTop are meaningful.
	Ovector []int

	Subject         []byte
	StartMatch      int // offset where the current match attempt began
	CurrentPosition int // current subject offset
	CaptureTop      int // one more than the highest capture set so far
	CaptureLast     int // most recently closed group, or -1

	// PatternPosition is the pattern offset of the item that follows the
	// callout and NextItemLength its length, for automatic callouts.
	PatternPosition int
	NextItemLength  int

	Data any
}

// CalloutError is returned when a callout aborts a match with a negative
// value. errors.Is(err, bytecode.ErrCallout) holds only for the conventional
// value -9; other values are the caller's own codes.
type CalloutError struct {
	Value  int
	Number int
}

// Error implements error.
func (e *CalloutError) Error() string {
	return fmt.Sprintf("pcre: callout %d aborted the match with %d", e.Number, e.Value)
}

// Is matches the ExecCode equal to the callout's value.
func (e *CalloutError) Is(target error) bool {
	c, ok := target.(bytecode.ExecCode)
	return ok && int(c) == e.Value
}

// callout runs the user callout for the OpCallout at ecode. It returns
// false when the callout asks for a failure at this point.
func (m *matcher) callout(eptr, ecode, offsetTop int) (bool, error) {
	if m.cfg.Callout == nil {
		return true, nil
	}
	cb := CalloutBlock{
		Number:          int(m.code[ecode+1]),
		Ovector:         m.ovector,
		Subject:         m.subject,
		StartMatch:      m.startMatch,
		CurrentPosition: eptr,
		CaptureTop:      offsetTop / 2,
		CaptureLast:     m.captureLast,
		PatternPosition: bytecode.GetLink(m.code, ecode+2),
		NextItemLength:  bytecode.GetLink(m.code, ecode+2+bytecode.LinkSize),
		Data:            m.cfg.CalloutData,
	}
	switch rc := m.cfg.Callout(&cb); {
	case rc > 0:
		return false, nil
	case rc < 0:
		return false, &CalloutError{Value: rc, Number: cb.Number}
	}
	return true, nil
}
