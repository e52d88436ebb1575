package nfa

import (
	"errors"
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/google/go-cmp/cmp"

	"github.com/coregx/pcre/bytecode"
)

// regexp2Ovector runs the .NET-compatible engine and converts its result to
// ovector pairs. Subjects are ASCII, so rune and byte offsets agree.
func regexp2Ovector(t *testing.T, pattern, subject string, groups int) []int {
	t.Helper()
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		t.Fatalf("regexp2.Compile(%q): %v", pattern, err)
	}
	m, err := re.FindStringMatch(subject)
	if err != nil {
		t.Fatalf("regexp2 match: %v", err)
	}
	if m == nil {
		return nil
	}
	out := make([]int, 0, 2*groups)
	for i, g := range m.Groups() {
		if i >= groups {
			break
		}
		if len(g.Captures) == 0 {
			out = append(out, -1, -1)
			continue
		}
		out = append(out, g.Index, g.Index+g.Length)
	}
	return out
}

// TestBacktrackingOracle compares the matcher with regexp2, which shares
// Perl's leftmost-first backtracking semantics for lookaround, back
// references and atomic groups.
func TestBacktrackingOracle(t *testing.T) {
	patterns := []string{
		`(a|ab)(c|bcd)(d*)`,
		`(\w+)\s+(\w+)`,
		`(a+)(b+)?c`,
		`(?:a|b)*?c`,
		`x(?!y)`,
		`(?<=a)b`,
		`(?<!a)b`,
		`(\d+)-\1`,
		`(?i)(ab)\1`,
		`(?>a+)b`,
		`(?>a+)ab`,
		`a{2,3}?`,
		`[^a-c]+`,
		`(a)|(b)`,
		`(?m)^b$`,
		`(?s)a.b`,
		`a.b`,
		`\bfoo\b`,
		`(foo|foobar)baz`,
		`((a)|b)+`,
		`(a|(b))+`,
		`(?=(\w+))\1:`,
		`^(?:(\d)|x)*$`,
		`(\w)(?=\w*\1)`,
		`[a-z]+(?<!ing)\b`,
		`(?i)[^k]+`,
		`(.)\1{2,}`,
		`x*y+z?`,
		`\d{2,4}?\d`,
		`(?:(a)|b)(?(1)c|d)`,
	}
	subjects := []string{
		"", "abcd", "hello world", "aaac", "ababc", "xyxz", "cbab", "abcb",
		"12-12", "abAB", "aaab", "aaaa", "abcdef", "b", "a\nb\nc", "a\nb",
		"a foo b", "foobarbaz", "abab", "ba", "abc:abc:", "1x2", "abca",
		"singing sung", "KkkaK", "xaaab", "xyyz", "12345", "ac", "bd", "bc",
	}

	for _, pattern := range patterns {
		p := compileForTest(t, pattern, 0)
		groups := p.TopBracket + 1
		for _, subject := range subjects {
			want := regexp2Ovector(t, pattern, subject, groups)
			got, err := execForTest(t, p, subject, 0, 0, DefaultConfig())
			if err != nil && !errors.Is(err, bytecode.ErrNoMatch) {
				t.Fatalf("%q on %q: %v", pattern, subject, err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("%q on %q (-regexp2 +pcre):\n%s", pattern, subject, diff)
			}
		}
	}
}
