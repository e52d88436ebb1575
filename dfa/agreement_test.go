package dfa

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/nfa"
)

// agreementPatterns are regular (no lookaround, atomic groups or back
// references) and mean the same in Go's syntax, so the standard library's
// leftmost-longest mode is an oracle for the longest DFA match.
var agreementPatterns = []string{
	`a+b*`,
	`(a|ab)(c|bcd)(d*)`,
	`[a-c]+d?`,
	`x*`,
	`\d+`,
	`foo|foobar`,
	`a{2,3}`,
	`\bfoo\b`,
	`(?i)abc`,
	`^a|b`,
	`[^ab]+`,
	`(?s)a.+b`,
	`a.*b`,
	`(?m)^b+$`,
	`(a*)*b`,
	`(a|b)*?c`,
	`[[:alpha:]]+`,
	`a?a?a?aaa`,
	`(?:ab|a)(?:bc|c)?`,
}

var agreementSubjects = []string{
	"", "a", "ab", "abcd", "aaabbb", "xxfoobar", "foo bar", "ABC abc",
	"aab\nbb", "1234 5", "ccc", "aaaa", "a\nb", "abc",
}

func TestStdlibAgreement(t *testing.T) {
	for _, pattern := range agreementPatterns {
		p := compileForTest(t, pattern, 0)
		re := regexp.MustCompile(pattern)
		re.Longest()
		for _, subject := range agreementSubjects {
			want := re.FindStringIndex(subject)
			got, err := execForTest(t, p, subject, 0, 32)
			if errors.Is(err, bytecode.ErrNoMatch) {
				got, err = nil, nil
			}
			if err != nil {
				t.Fatalf("%q on %q: %v", pattern, subject, err)
			}
			if len(got) > 2 {
				got = got[:2]
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("%q on %q (-stdlib +dfa):\n%s", pattern, subject, diff)
			}
		}
	}
}

// TestBacktrackingAgreement checks that the backtracking matcher's match
// starts where the DFA's matches do and ends at one of their ends.
func TestBacktrackingAgreement(t *testing.T) {
	for _, pattern := range agreementPatterns {
		p := compileForTest(t, pattern, 0)
		for _, subject := range agreementSubjects {
			ovector := make([]int, 3*(p.TopBracket+1))
			_, nerr := nfa.Exec(context.Background(), p, []byte(subject), 0, 0, ovector, nfa.DefaultConfig())
			got, derr := execForTest(t, p, subject, 0, 32)

			if errors.Is(nerr, bytecode.ErrNoMatch) != errors.Is(derr, bytecode.ErrNoMatch) {
				t.Errorf("%q on %q: backtracking %v, dfa %v", pattern, subject, nerr, derr)
				continue
			}
			if nerr != nil || derr != nil {
				continue
			}
			if got[0] != ovector[0] {
				t.Errorf("%q on %q: start %d, dfa start %d", pattern, subject, ovector[0], got[0])
			}
			ends := make([]int, 0, len(got)/2)
			for i := 1; i < len(got); i += 2 {
				ends = append(ends, got[i])
			}
			if !slices.Contains(ends, ovector[1]) {
				t.Errorf("%q on %q: end %d not among dfa ends %v", pattern, subject, ovector[1], ends)
			}
		}
	}
}

func FuzzDFAAgreement(f *testing.F) {
	for _, s := range agreementSubjects {
		f.Add(s)
	}
	patterns := make([]*bytecode.Pattern, len(agreementPatterns))
	stdlib := make([]*regexp.Regexp, len(agreementPatterns))
	for i, pattern := range agreementPatterns {
		patterns[i] = compileForTest(f, pattern, 0)
		stdlib[i] = regexp.MustCompile(pattern)
		stdlib[i].Longest()
	}
	f.Fuzz(func(t *testing.T, subject string) {
		for i, p := range patterns {
			want := stdlib[i].FindStringIndex(subject)
			ovector := make([]int, 2)
			_, err := Exec(context.Background(), p, []byte(subject), 0, 0, ovector, nil, DefaultConfig())
			var got []int
			switch {
			case err == nil:
				got = ovector
			case errors.Is(err, bytecode.ErrNoMatch):
			default:
				t.Fatalf("%q: %v", agreementPatterns[i], err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("%q on %q (-stdlib +dfa):\n%s", agreementPatterns[i], subject, diff)
			}
		}
	})
}
