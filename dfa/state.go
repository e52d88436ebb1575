package dfa

import (
	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/internal/sparse"
)

// stateInts is the number of workspace ints one saved state occupies.
const stateInts = 4

// workspaceHeader is the number of ints before the saved states: the state
// count and the offset where the partial match began.
const workspaceHeader = 2

// state is one live position in the pattern. Nothing in it points into Go
// memory, so a list of states round-trips through the caller's workspace.
type state struct {
	// offset is the bytecode offset of the next item to match. A negative
	// offset suspends the state: it resumes at -offset once data more
	// characters have gone by.
	offset int

	// count is the number of iterations matched so far by a counted
	// repeat at offset.
	count int

	data int
	ims  bytecode.Option
}

// stateList is the set of states for one subject position.
type stateList struct {
	states []state
	seen   *sparse.SparseSet // offsets of queued non-suspended states
	max    int
}

func newStateList(codeLen int) *stateList {
	return &stateList{seen: sparse.NewSparseSet(uint32(codeLen) + 1)}
}

func (l *stateList) reset(max int) {
	l.states = l.states[:0]
	l.seen.Clear()
	l.max = max
}

// add queues s unless an equal state is already queued. A suspended state
// with nothing left to wait for is queued as the state it resumes. It
// reports false when the list is full.
func (l *stateList) add(s state) bool {
	if s.offset < 0 && s.data <= 0 {
		s.offset, s.data = -s.offset, 0
	}
	if s.offset >= 0 {
		if !l.seen.Insert(uint32(s.offset)) {
			for _, q := range l.states {
				if q.offset == s.offset && q.count == s.count {
					return true
				}
			}
		}
	} else {
		for _, q := range l.states {
			if q.offset == s.offset && q.count == s.count && q.data == s.data {
				return true
			}
		}
	}
	if len(l.states) >= l.max {
		return false
	}
	l.states = append(l.states, s)
	return true
}

// level is the scratch space of one sub-match nesting level. Sub-matches
// at one level run one after another, so each level needs only one set.
type level struct {
	cur, next *stateList
	ends      []int
}

// maxStates returns how many states fit in one list of a workspace of n
// ints.
func maxStates(n int) int {
	return (n - workspaceHeader) / (2 * stateInts)
}

// saveStates writes states into ws for a later restart.
func saveStates(ws []int, states []state, startMatch int) {
	ws[0] = len(states)
	ws[1] = startMatch
	w := ws[workspaceHeader:]
	for i, s := range states {
		w[i*stateInts] = s.offset
		w[i*stateInts+1] = s.count
		w[i*stateInts+2] = s.data
		w[i*stateInts+3] = int(s.ims)
	}
}

// loadStates reads the states saved by saveStates, checking that they fit
// the pattern.
func loadStates(ws []int, codeLen int) ([]state, error) {
	if len(ws) < workspaceHeader {
		return nil, bytecode.ErrDFABadRestart
	}
	n := ws[0]
	if n < 1 || n > maxStates(len(ws)) {
		return nil, bytecode.ErrDFABadRestart
	}
	states := make([]state, n)
	w := ws[workspaceHeader:]
	for i := range states {
		s := state{
			offset: w[i*stateInts],
			count:  w[i*stateInts+1],
			data:   w[i*stateInts+2],
			ims:    bytecode.Option(w[i*stateInts+3]),
		}
		off := s.offset
		if off < 0 {
			off = -off
		}
		if off >= codeLen || s.count < 0 || s.data < 0 || s.ims&^bytecode.IMSMask != 0 {
			return nil, bytecode.ErrDFABadRestart
		}
		states[i] = s
	}
	return states, nil
}

// ketOptions maps the offset of every group's closing Ket to the runtime
// options in force when the group was entered; they are restored there.
// Options are lexically scoped, so this is a property of the code alone.
func ketOptions(code []byte, utf8 bool, ims bytecode.Option) []bytecode.Option {
	out := make([]bytecode.Option, len(code))
	var stack []bytecode.Option
	for pc := 0; pc < len(code); pc = bytecode.Next(code, pc, utf8) {
		op := bytecode.Op(code[pc])
		switch {
		case op == bytecode.OpEnd:
			return out
		case op.IsBracket():
			stack = append(stack, ims)
		case op == bytecode.OpAlt:
			if len(stack) > 0 {
				ims = stack[len(stack)-1]
			}
		case op == bytecode.OpKet || op == bytecode.OpKetRMax || op == bytecode.OpKetRMin:
			if len(stack) > 0 {
				ims = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
			out[pc] = ims
		case op == bytecode.OpOpt:
			ims = bytecode.Option(code[pc+1])
		}
	}
	return out
}
