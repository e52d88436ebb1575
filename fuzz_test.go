package pcre

import (
	"errors"
	"testing"
)

// FuzzCompile compiles arbitrary patterns and runs both engines on the
// subject. Neither may panic, and every reported group must lie inside the
// subject.
func FuzzCompile(f *testing.F) {
	seeds := []struct{ pattern, subject string }{
		{`a+b`, "aaab"},
		{`(a|ab)(c|bcd)(d*)`, "abcd"},
		{`(?<n>\w+)\s\k<n>`, "hello hello"},
		{`(?i)[^\d\s]{2,}`, "12 Ab cD"},
		{`^(\((?:[^()]|(?1))*\))$`, "(a(b)c)"},
		{`(?(?=a)ab|cd)`, "xcdab"},
		{`(?>a+)b|\Gx`, "aab"},
		{`\bfoo(?!bar)`, "foobar foobaz"},
		{`(?s).*?(?C1)x`, "ab\nx"},
		{`[[:alpha:]]+\z`, "abc\n"},
		{`(`, ""},
		{`a{2,1}`, ""},
	}
	for _, s := range seeds {
		f.Add(s.pattern, s.subject, uint32(0))
	}
	f.Add(`x*`, "é", uint32(UTF8))
	f.Add(`(?m)^$`, "a\n\nb", uint32(Multiline))

	cfg := DefaultConfig()
	cfg.MatchLimit = 20000
	cfg.RecursionLimit = 2000
	cfg.DFAWorkspaceSize = 200

	f.Fuzz(func(t *testing.T, pattern, subject string, opts uint32) {
		options := Option(opts) & (Caseless | Multiline | DotAll | Extended | Ungreedy | UTF8 | NoAutoCapture)
		re, err := CompileWithConfig(pattern, options, cfg)
		if err != nil {
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("compile error has type %T", err)
			}
			return
		}

		b := []byte(subject)
		ovector := make([]int, 3*(re.NumSubexp()+1))
		rc, err := re.Exec(b, 0, 0, ovector)
		if err == nil {
			n := rc
			if n == 0 {
				n = len(ovector) / 3
			}
			checkPairs(t, "nfa", ovector[:2*n], len(b))
		}

		ovector = make([]int, 20)
		rc, err = re.DFAExec(b, 0, 0, ovector, nil)
		if err == nil {
			n := rc
			if n == 0 {
				n = len(ovector) / 2
			}
			checkPairs(t, "dfa", ovector[:2*n], len(b))
		}

		// A round trip through the saved form must not change results.
		data, err := re.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary: %v", err)
		}
		loaded, err := LoadWithConfig(data, cfg)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		want := re.FindStringIndex(subject)
		got := loaded.FindStringIndex(subject)
		if (want == nil) != (got == nil) || want != nil && (want[0] != got[0] || want[1] != got[1]) {
			t.Errorf("loaded pattern matched %v, compiled %v", got, want)
		}
	})
}

func checkPairs(t *testing.T, engine string, pairs []int, n int) {
	t.Helper()
	for i := 0; i+1 < len(pairs); i += 2 {
		s, e := pairs[i], pairs[i+1]
		if s == -1 && e == -1 {
			continue
		}
		if s < 0 || e > n || s > e {
			t.Errorf("%s: pair %d = [%d %d] outside subject of length %d", engine, i/2, s, e, n)
		}
	}
}
