package nfa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/syntax"
)

func compileForTest(t testing.TB, pattern string, options bytecode.Option) *bytecode.Pattern {
	t.Helper()
	p, err := syntax.Compile(pattern, options, nil)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", pattern, err)
	}
	p.StartBits = syntax.Study(p)
	return p
}

// execForTest matches and returns every capture pair of the pattern, unset
// pairs as -1, or nil when there is no match.
func execForTest(t testing.TB, p *bytecode.Pattern, subject string, start int, options bytecode.Option, cfg Config) ([]int, error) {
	t.Helper()
	ovector := make([]int, 3*(p.TopBracket+1))
	rc, err := Exec(context.Background(), p, []byte(subject), start, options, ovector, cfg)
	if err != nil {
		return nil, err
	}
	if rc <= 0 || rc > p.TopBracket+1 {
		t.Fatalf("unexpected capture count %d", rc)
	}
	return ovector[:2*(p.TopBracket+1)], nil
}

func TestExecScenarios(t *testing.T) {
	tests := []struct {
		pattern string
		subject string
		want    []int // nil: no match
	}{
		{`^(\d{3})-(\d{4})$`, "555-1234", []int{0, 8, 0, 3, 4, 8}},
		{`(?i)CaT`, "scatter", []int{1, 4}},
		{`a(?=b)`, "ab", []int{0, 1}},
		{`a(?=b)`, "ac", nil},
		{`(?<=\d)px`, "10px", []int{2, 4}},
		{`(a)\1`, "aa", []int{0, 2, 0, 1}},
		{`(a)\1`, "ab", nil},
		{`(a)?\1`, "", []int{0, 0, -1, -1}},
		{`(?P<year>\d{4})-(?P<month>\d{2})`, "2024-01", []int{0, 7, 0, 4, 5, 7}},

		// Captures from an abandoned alternative are undone.
		{`(a)(b)|(a)(c)`, "ac", []int{0, 2, -1, -1, -1, -1, 0, 1, 1, 2}},
		{`(?!(a)c)(a)b`, "ab", []int{0, 2, -1, -1, 0, 1}},
		{`(?:(?!(a)b)|a)(?:ab|b)`, "ab", []int{0, 2, -1, -1}},

		// A recursion inside a duplicated repeat still calls group 1.
		{`(a(?1)?){2}`, "aaa", []int{0, 3, 1, 3}},
		{`(a(?1)?){2}`, "aa", []int{0, 2, 1, 2}},
		{`(a(?1)?){2}`, "a", nil},

		{`\((?:[^()]|(?R))*\)`, "x(a(b)c)", []int{1, 8}},
		{`(?P<p>\((?:[^()]|(?&p))*\))`, "x(a(b))", []int{1, 7, 1, 7}},
		{`^(\()?blah(?(1)\))$`, "(blah)", []int{0, 6, 0, 1}},
		{`^(\()?blah(?(1)\))$`, "blah", []int{0, 4, -1, -1}},
		{`^(\()?blah(?(1)\))$`, "(blah", nil},
		{`(?(?=a)ab|cd)`, "xcd", []int{1, 3}},
		{`(?(?=a)ab|cd)`, "ab", []int{0, 2}},

		{`(?>a+)b`, "aaab", []int{0, 4}},
		{`(?>a+)ab`, "aaab", nil},
		{`a++b`, "aaab", []int{0, 4}},
		{`(a|ab)(c|bcd)(d*)`, "abcd", []int{0, 4, 0, 1, 1, 4, 4, 4}},
		{`a{2,3}?`, "aaaa", []int{0, 2}},
		{`(?U)a+`, "aaa", []int{0, 1}},
		{`[^a-c]+`, "abcdef", []int{3, 6}},
		{`\bfoo\b`, "afoo foo", []int{5, 8}},
		{`(foo|foobar)baz`, "foobarbaz", []int{0, 9, 0, 6}},
		{`a$`, "a\n", []int{0, 1}},
		{`(?m)^b`, "a\nb", []int{2, 3}},
		{`a.b`, "a\nb", nil},
		{`(?s)a.b`, "a\nb", []int{0, 3}},
		{`(?i:x)X`, "xx", nil},
		{`x(?i)y|z`, "xY", []int{0, 2}},
		{`\Aab\z`, "ab", []int{0, 2}},
		{`ab\Z`, "ab\n", []int{0, 2}},
		{`[[:alpha:]]+`, "12abc3", []int{2, 5}},
		{`\Qa.b\E+`, "a.bb", []int{0, 4}},

		// The byte a lookahead requires may be the first byte itself.
		{`(?=b?a)a`, "a", []int{0, 1}},
		{`(?=\d*x)x`, "x", []int{0, 1}},
		{`(?=\w*a)a`, "za", []int{1, 2}},
		{`(?=(b)?a)a`, "ba", []int{1, 2, -1, -1}},
		{`(?=b?a)a`, "b", nil},

		// An iteration that consumes nothing ends an unlimited repeat.
		{`(a*)*b`, "b", []int{0, 1, 0, 0}},
		{`(?:a|)+c`, "aac", []int{0, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.subject, func(t *testing.T) {
			p := compileForTest(t, tt.pattern, 0)
			got, err := execForTest(t, p, tt.subject, 0, 0, DefaultConfig())
			if tt.want == nil {
				if !errors.Is(err, bytecode.ErrNoMatch) {
					t.Fatalf("got %v, %v; want no match", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ovector mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecNamedGroups(t *testing.T) {
	p := compileForTest(t, `(?P<year>\d{4})-(?P<month>\d{2})`, 0)
	got, err := execForTest(t, p, "2024-01", 0, 0, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	subject := "2024-01"
	for name, want := range map[string]string{"year": "2024", "month": "01"} {
		n := p.GroupNumber(name)
		if n < 0 {
			t.Fatalf("group %q not found", name)
		}
		if s := subject[got[2*n]:got[2*n+1]]; s != want {
			t.Errorf("group %q = %q, want %q", name, s, want)
		}
	}
}

func TestExecOptions(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		compile  bytecode.Option
		subject  string
		start    int
		exec     bytecode.Option
		want     []int
		wantCode error
	}{
		{name: "anchored", pattern: "b", subject: "ab", exec: bytecode.Anchored, wantCode: bytecode.ErrNoMatch},
		{name: "anchored at start", pattern: "b", subject: "ab", start: 1, exec: bytecode.Anchored, want: []int{1, 2}},
		{name: "start of match", pattern: `\Gb`, subject: "abb", start: 1, want: []int{1, 2}},
		{name: "notbol", pattern: "^a", subject: "a", exec: bytecode.NotBOL, wantCode: bytecode.ErrNoMatch},
		{name: "noteol", pattern: "a$", subject: "a", exec: bytecode.NotEOL, wantCode: bytecode.ErrNoMatch},
		{name: "dollar end only", pattern: "a$", compile: bytecode.DollarEndOnly, subject: "a\n", wantCode: bytecode.ErrNoMatch},
		{name: "notempty star", pattern: "a*", subject: "bbb", exec: bytecode.NotEmpty, wantCode: bytecode.ErrNoMatch},
		{name: "notempty alternative", pattern: "a*|b", subject: "b", exec: bytecode.NotEmpty, want: []int{0, 1}},
		{name: "firstline", pattern: "b", compile: bytecode.FirstLine, subject: "a\nb", wantCode: bytecode.ErrNoMatch},
		{name: "firstline on line", pattern: "b", compile: bytecode.FirstLine, subject: "ab\nb", want: []int{1, 2}},
		{name: "partial", pattern: "abc", subject: "xab", exec: bytecode.Partial, wantCode: bytecode.ErrPartial},
		{name: "partial complete", pattern: "ab", subject: "xab", exec: bytecode.Partial, want: []int{1, 3}},
		{name: "partial repeat", pattern: `\d+`, subject: "12", exec: bytecode.Partial, wantCode: bytecode.ErrBadPartial},
		{name: "partial none", pattern: "abc", subject: "xyz", exec: bytecode.Partial, wantCode: bytecode.ErrNoMatch},
		{name: "partial backref", pattern: `(a)\1`, subject: "a", exec: bytecode.Partial, wantCode: bytecode.ErrBadPartial},
		{name: "bad option", pattern: "a", subject: "a", exec: bytecode.DFAShortest, wantCode: bytecode.ErrBadOption},
		{name: "start past end", pattern: "a", subject: "a", start: 2, wantCode: bytecode.ErrBadOption},
		{name: "utf8 literal", pattern: "é+", compile: bytecode.UTF8, subject: "aéé", want: []int{1, 5}},
		{name: "utf8 dot", pattern: "^.$", compile: bytecode.UTF8, subject: "é", want: []int{0, 2}},
		{name: "bytes dot", pattern: "^..$", subject: "é", want: []int{0, 2}},
		{name: "utf8 caseless", pattern: "ÉCOLE", compile: bytecode.UTF8 | bytecode.Caseless, subject: "école", want: []int{0, 6}},
		{name: "utf8 class", pattern: `[à-ÿ]+`, compile: bytecode.UTF8, subject: "xéè", want: []int{1, 5}},
		{name: "utf8 property", pattern: `\p{Lu}+`, compile: bytecode.UTF8, subject: "abÉC", want: []int{2, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := compileForTest(t, tt.pattern, tt.compile)
			got, err := execForTest(t, p, tt.subject, tt.start, tt.exec, DefaultConfig())
			if tt.wantCode != nil {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("got %v, %v; want %v", got, err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ovector mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecInvalidUTF8(t *testing.T) {
	p := compileForTest(t, "a", bytecode.UTF8)
	ovector := make([]int, 3)

	_, err := Exec(context.Background(), p, []byte("a\xff"), 0, 0, ovector, DefaultConfig())
	var uerr *bytecode.UTF8Error
	if !errors.As(err, &uerr) || uerr.Offset != 1 || !errors.Is(err, bytecode.ErrBadUTF8) {
		t.Fatalf("got %v, want invalid UTF-8 at offset 1", err)
	}

	_, err = Exec(context.Background(), p, []byte("éa"), 1, 0, ovector, DefaultConfig())
	if !errors.Is(err, bytecode.ErrBadUTF8Offset) {
		t.Fatalf("got %v, want ErrBadUTF8Offset", err)
	}

	rc, err := Exec(context.Background(), p, []byte("a\xff"), 0, bytecode.NoUTF8Check, ovector, DefaultConfig())
	if err != nil || rc != 1 {
		t.Fatalf("NoUTF8Check: got %d, %v", rc, err)
	}
}

func TestExecSmallOvector(t *testing.T) {
	p := compileForTest(t, `(a)(b)`, 0)
	ovector := make([]int, 3)
	rc, err := Exec(context.Background(), p, []byte("ab"), 0, 0, ovector, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if rc != 0 || ovector[0] != 0 || ovector[1] != 2 {
		t.Errorf("got rc=%d ovector=%v, want 0 and [0 2 ...]", rc, ovector)
	}

	// Back references still work when the caller asked for no captures.
	p = compileForTest(t, `(a)\1`, 0)
	rc, err = Exec(context.Background(), p, []byte("xaa"), 0, 0, ovector, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if rc != 0 || ovector[0] != 1 || ovector[1] != 3 {
		t.Errorf("got rc=%d ovector=%v, want 0 and [1 3 ...]", rc, ovector)
	}

	rc, err = Exec(context.Background(), p, []byte("aa"), 0, 0, nil, DefaultConfig())
	if err != nil || rc != 0 {
		t.Errorf("nil ovector: got %d, %v", rc, err)
	}
}

// TestExecConditionOvectorSize checks that a condition on a group sees the
// group whatever the size of the caller's vector.
func TestExecConditionOvectorSize(t *testing.T) {
	tests := []struct {
		pattern string
		subject string
		want    []int // groups 0 and 1
	}{
		{`^(\()?blah(?(1)\))$`, "(blah)", []int{0, 6, 0, 1}},
		{`^(\()?blah(?(1)\))$`, "blah", []int{0, 4, -1, -1}},
		{`^(a)?b(?(1)c|d)$`, "abc", []int{0, 3, 0, 1}},
		{`^(a)?b(?(1)c|d)$`, "bd", []int{0, 2, -1, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.subject, func(t *testing.T) {
			p := compileForTest(t, tt.pattern, 0)

			// A set group 1 does not fit in 3 ints, so rc is 0.
			wantRC := 1
			if tt.want[2] >= 0 {
				wantRC = 0
			}
			small := make([]int, 3)
			rc, err := Exec(context.Background(), p, []byte(tt.subject), 0, 0, small, DefaultConfig())
			if err != nil {
				t.Fatalf("3 ints: %v", err)
			}
			if rc != wantRC {
				t.Errorf("3 ints: rc = %d, want %d", rc, wantRC)
			}
			if diff := cmp.Diff(tt.want[:2], small[:2]); diff != "" {
				t.Errorf("3 ints (-want +got):\n%s", diff)
			}

			full := make([]int, 6)
			rc, err = Exec(context.Background(), p, []byte(tt.subject), 0, 0, full, DefaultConfig())
			if err != nil {
				t.Fatalf("6 ints: %v", err)
			}
			wantRC = 2
			if tt.want[2] < 0 {
				wantRC = 1
			}
			if rc != wantRC {
				t.Errorf("6 ints: rc = %d, want %d", rc, wantRC)
			}
			if diff := cmp.Diff(tt.want, full[:4]); diff != "" {
				t.Errorf("6 ints (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecMatchLimit(t *testing.T) {
	p := compileForTest(t, `(a+)+b`, 0)
	subject := strings.Repeat("a", 30) + "Xb"
	cfg := Config{MatchLimit: 100_000}
	_, err := execForTest(t, p, subject, 0, 0, cfg)
	if !errors.Is(err, bytecode.ErrMatchLimit) {
		t.Fatalf("got %v, want ErrMatchLimit", err)
	}
}

func TestExecRecursionLimit(t *testing.T) {
	p := compileForTest(t, `^(?:ab)*$`, 0)
	subject := strings.Repeat("ab", 500)
	_, err := execForTest(t, p, subject, 0, 0, Config{RecursionLimit: 100})
	if !errors.Is(err, bytecode.ErrRecursionLimit) {
		t.Fatalf("got %v, want ErrRecursionLimit", err)
	}
	got, err := execForTest(t, p, subject, 0, 0, DefaultConfig())
	if err != nil {
		t.Fatalf("default limits: %v", err)
	}
	if got[1] != len(subject) {
		t.Errorf("match end = %d, want %d", got[1], len(subject))
	}
}

func TestExecContextCancel(t *testing.T) {
	p := compileForTest(t, `(a+)+b`, 0)
	subject := []byte(strings.Repeat("a", 30) + "Xb")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Exec(ctx, p, subject, 0, 0, make([]int, 6), DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestExecCallout(t *testing.T) {
	p := compileForTest(t, `a(?C1)b(?C2)`, 0)
	ovector := make([]int, 3)

	var seen []int
	cfg := Config{Callout: func(cb *CalloutBlock) int {
		seen = append(seen, cb.Number, cb.CurrentPosition)
		return 0
	}}
	if _, err := Exec(context.Background(), p, []byte("xab"), 0, 0, ovector, cfg); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 2, 2, 3}, seen); diff != "" {
		t.Errorf("callouts mismatch (-want +got):\n%s", diff)
	}

	cfg.Callout = func(cb *CalloutBlock) int { return 1 }
	if _, err := Exec(context.Background(), p, []byte("ab"), 0, 0, ovector, cfg); !errors.Is(err, bytecode.ErrNoMatch) {
		t.Errorf("positive return: got %v, want no match", err)
	}

	cfg.Callout = func(cb *CalloutBlock) int { return -42 }
	_, err := Exec(context.Background(), p, []byte("ab"), 0, 0, ovector, cfg)
	var cerr *CalloutError
	if !errors.As(err, &cerr) || cerr.Value != -42 || cerr.Number != 1 {
		t.Errorf("negative return: got %v", err)
	}

	cfg.Callout = func(cb *CalloutBlock) int { return int(bytecode.ErrCallout) }
	if _, err := Exec(context.Background(), p, []byte("ab"), 0, 0, ovector, cfg); !errors.Is(err, bytecode.ErrCallout) {
		t.Errorf("ErrCallout return: got %v", err)
	}
}

func TestAutoCallout(t *testing.T) {
	p := compileForTest(t, `ab`, bytecode.AutoCallout)
	var positions []int
	cfg := Config{Callout: func(cb *CalloutBlock) int {
		if cb.Number != 255 {
			t.Errorf("callout number = %d, want 255", cb.Number)
		}
		positions = append(positions, cb.PatternPosition)
		return 0
	}}
	if _, err := Exec(context.Background(), p, []byte("ab"), 0, 0, make([]int, 3), cfg); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, positions); diff != "" {
		t.Errorf("pattern positions mismatch (-want +got):\n%s", diff)
	}
}

func TestMatcherReuse(t *testing.T) {
	p := compileForTest(t, `(\w+)@(\w+)`, 0)
	m := New(p, DefaultConfig(), false)
	subjects := map[string][]int{
		"a@b":      {0, 3, 0, 1, 2, 3},
		"xx yy@zz": {3, 8, 3, 5, 6, 8},
	}
	for subject, want := range subjects {
		ovector := make([]int, 9)
		rc, err := m.Exec(context.Background(), []byte(subject), 0, 0, ovector)
		if err != nil || rc != 3 {
			t.Fatalf("%q: got %d, %v", subject, rc, err)
		}
		if diff := cmp.Diff(want, ovector[:6]); diff != "" {
			t.Errorf("%q mismatch (-want +got):\n%s", subject, diff)
		}
	}
}

func TestPrefilterAgreement(t *testing.T) {
	patterns := []string{`foo|bar|baz`, `hello\w*`, `[xyz]+q`, `(?i)hello`, `abc`, `a.c`}
	subjects := []string{"", "xfoo", "say hello there", "zzq", "HeLLo", "abc abc", "a-c", "nothing"}
	for _, pattern := range patterns {
		p := compileForTest(t, pattern, 0)
		with := New(p, DefaultConfig(), false)
		without := New(p, DefaultConfig(), true)
		for _, s := range subjects {
			ov1, ov2 := make([]int, 3), make([]int, 3)
			rc1, err1 := with.Exec(context.Background(), []byte(s), 0, 0, ov1)
			rc2, err2 := without.Exec(context.Background(), []byte(s), 0, 0, ov2)
			if rc1 != rc2 || !errors.Is(err1, err2) && err1 != err2 {
				t.Errorf("%q on %q: prefilter %d/%v, none %d/%v", pattern, s, rc1, err1, rc2, err2)
				continue
			}
			if err1 == nil && (ov1[0] != ov2[0] || ov1[1] != ov2[1]) {
				t.Errorf("%q on %q: prefilter %v, none %v", pattern, s, ov1[:2], ov2[:2])
			}
		}
	}
}
