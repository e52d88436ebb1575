package dfa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/nfa"
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

// execForTest returns the matched pairs, longest first, or nil when there
// is no match.
func execForTest(t testing.TB, p *bytecode.Pattern, subject string, options bytecode.Option, pairs int) ([]int, error) {
	t.Helper()
	ovector := make([]int, 2*pairs)
	rc, err := Exec(context.Background(), p, []byte(subject), 0, options, ovector, nil, DefaultConfig())
	if err != nil {
		return nil, err
	}
	if rc == 0 {
		return ovector, nil
	}
	return ovector[:2*rc], nil
}

func TestExecScenarios(t *testing.T) {
	tests := []struct {
		pattern string
		subject string
		want    []int // nil: no match
	}{
		{`abc`, "xabcx", []int{1, 4}},
		{`a+`, "aaa", []int{0, 3, 0, 2, 0, 1}},
		{`a+?`, "aaa", []int{0, 3, 0, 2, 0, 1}},
		{`(a|ab)(c|bcd)`, "abcd", []int{0, 4, 0, 3}},
		{`x*`, "abc", []int{0, 0}},
		{`a{2,3}`, "aaaa", []int{0, 3, 0, 2}},
		{`a{3}`, "aa", nil},
		{`[a-c]{2,}`, "abcab", []int{0, 5, 0, 4, 0, 3, 0, 2}},
		{`(?i)HeLLo`, "say hello", []int{4, 9}},
		{`[^x]?y`, "xy", []int{1, 2}},
		{`^b`, "ab", nil},
		{`(?m)^b`, "a\nb", []int{2, 3}},
		{`a$`, "a\n", []int{0, 1}},
		{`a\z`, "a\n", nil},
		{`a\Z`, "a\n", []int{0, 1}},
		{`\bfoo\b`, "a foo.", []int{2, 5}},
		{`\Bfoo`, "afoo", []int{1, 4}},
		{`(?s)a.b`, "a\nb", []int{0, 3}},
		{`a.b`, "a\nb", nil},
		{`\d+\s\w`, "x 12 y", []int{2, 6}},
		{`foo(?=bar)`, "foobaz foobar", []int{7, 10}},
		{`foo(?!bar)`, "foobar foobaz", []int{7, 10}},
		{`(?<=ab|x)c`, "abc", []int{2, 3}},
		{`(?<=ab|x)c`, "xc", []int{1, 2}},
		{`(?<!a)b`, "abcb", []int{3, 4}},
		{`(?>a+)b`, "aaab", []int{0, 4}},
		{`(?>a+)ab`, "aaab", nil},
		// An atomic group keeps the longest way its body matches.
		{`(?>a|ab)c`, "abc", []int{0, 3}},
		{`\((?:[^()]|(?R))*\)`, "x(a(b)c)", []int{1, 8}},
		{`(?(?=a)ab|cd)`, "xcd", []int{1, 3}},
		{`(?(?=a)ab|cd)`, "ab", []int{0, 2}},
		{`(?i:a)b`, "Ab", []int{0, 2}},
		{`(?i:a)b`, "AB", nil},
		{`(?:a(?i)b|c)d`, "aBd", []int{0, 3}},
		{`(?=b?a)a`, "a", []int{0, 1}},
		{`(?=\d*x)x`, "x", []int{0, 1}},
		{`(?=\w*a)a`, "za", []int{1, 2}},
		{`(?=(b)?a)a`, "ba", []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.subject, func(t *testing.T) {
			p := compileForTest(t, tt.pattern, 0)
			got, err := execForTest(t, p, tt.subject, 0, 8)
			if errors.Is(err, bytecode.ErrNoMatch) {
				got, err = nil, nil
			}
			if err != nil {
				t.Fatalf("Exec: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecShortest(t *testing.T) {
	p := compileForTest(t, `a+`, 0)
	got, err := execForTest(t, p, "aaa", bytecode.DFAShortest, 4)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestExecSmallOvector(t *testing.T) {
	p := compileForTest(t, `a+`, 0)
	ovector := make([]int, 4)
	rc, err := Exec(context.Background(), p, []byte("aaa"), 0, 0, ovector, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if rc != 0 {
		t.Errorf("rc = %d, want 0 when the matches do not fit", rc)
	}
	if diff := cmp.Diff([]int{0, 3, 0, 2}, ovector); diff != "" {
		t.Errorf("the longest matches should be kept (-want +got):\n%s", diff)
	}
}

func TestExecNotEmpty(t *testing.T) {
	p := compileForTest(t, `a*`, 0)
	got, err := execForTest(t, p, "baa", bytecode.NotEmpty, 4)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if diff := cmp.Diff([]int{1, 3, 1, 2}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestExecErrors(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		options bytecode.Option
		subject string
		exec    bytecode.Option
		cfg     Config
		want    error
	}{
		{"back reference", `(a)\1`, 0, "aa", 0, DefaultConfig(), bytecode.ErrDFAUnsupportedItem},
		{"group condition", `(a)?(?(1)b|c)`, 0, "ab", 0, DefaultConfig(), bytecode.ErrDFAUnsupportedCond},
		{"single byte in UTF-8", `a\C`, bytecode.UTF8, "ab", 0, DefaultConfig(), bytecode.ErrDFAUnsupportedItem},
		{"match limit", `a`, 0, "a", 0, Config{MatchLimit: 10}, bytecode.ErrDFAUnsupportedLimit},
		{"bad option", `a`, 0, "a", bytecode.Caseless, DefaultConfig(), bytecode.ErrBadOption},
		{"recursion depth", `\((?R)?\)`, 0, strings.Repeat("(", 30) + strings.Repeat(")", 30), 0, Config{MaxDepth: 20}, bytecode.ErrDFARecurse},
		{"invalid UTF-8", `a`, bytecode.UTF8, "\xffa", 0, DefaultConfig(), bytecode.ErrBadUTF8},
		{"restart without workspace", `a`, 0, "a", bytecode.DFARestart, DefaultConfig(), bytecode.ErrDFABadRestart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := compileForTest(t, tt.pattern, tt.options)
			ovector := make([]int, 10)
			_, err := Exec(context.Background(), p, []byte(tt.subject), 0, tt.exec, ovector, nil, tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExecWorkspace(t *testing.T) {
	p := compileForTest(t, `a|b|c`, 0)
	ovector := make([]int, 2)

	_, err := Exec(context.Background(), p, []byte("c"), 0, 0, ovector, make([]int, 10), DefaultConfig())
	if !errors.Is(err, bytecode.ErrDFAWorkspaceSize) {
		t.Errorf("short workspace: err = %v, want ErrDFAWorkspaceSize", err)
	}

	// 20 ints hold two states per list; the three branches need three.
	_, err = Exec(context.Background(), p, []byte("c"), 0, 0, ovector, make([]int, MinWorkspaceSize), DefaultConfig())
	if !errors.Is(err, bytecode.ErrDFAWorkspaceSize) {
		t.Errorf("full workspace: err = %v, want ErrDFAWorkspaceSize", err)
	}

	rc, err := Exec(context.Background(), p, []byte("c"), 0, 0, ovector, make([]int, 100), DefaultConfig())
	if err != nil || rc != 1 {
		t.Errorf("rc, err = %d, %v, want 1, nil", rc, err)
	}
}

// TestExecNestedRepeatWorkspace checks that copies of nested counted repeats
// overflow the default workspace and fit in a larger one.
func TestExecNestedRepeatWorkspace(t *testing.T) {
	p := compileForTest(t, `((((?:a)??){1,3}){2}){1,3}`, 0)
	ovector := make([]int, 2)

	_, err := Exec(context.Background(), p, []byte("aaa"), 0, 0, ovector, make([]int, DefaultWorkspaceSize), DefaultConfig())
	if !errors.Is(err, bytecode.ErrDFAWorkspaceSize) {
		t.Fatalf("default workspace: err = %v, want ErrDFAWorkspaceSize", err)
	}

	_, err = Exec(context.Background(), p, []byte("aaa"), 0, 0, ovector, make([]int, 100_000), DefaultConfig())
	if err != nil {
		t.Fatalf("large workspace: %v", err)
	}
	if diff := cmp.Diff([]int{0, 3}, ovector); diff != "" {
		t.Errorf("longest match (-want +got):\n%s", diff)
	}
}

func TestExecPartialRestart(t *testing.T) {
	p := compileForTest(t, `abcd`, 0)
	ws := make([]int, DefaultWorkspaceSize)
	ovector := make([]int, 2)

	_, err := Exec(context.Background(), p, []byte("xab"), 0, bytecode.Partial, ovector, ws, DefaultConfig())
	if !errors.Is(err, bytecode.ErrPartial) {
		t.Fatalf("first piece: err = %v, want ErrPartial", err)
	}
	if diff := cmp.Diff([]int{1, 3}, ovector); diff != "" {
		t.Errorf("partial offsets (-want +got):\n%s", diff)
	}

	_, err = Exec(context.Background(), p, []byte("c"), 0, bytecode.Partial|bytecode.DFARestart, ovector, ws, DefaultConfig())
	if !errors.Is(err, bytecode.ErrPartial) {
		t.Fatalf("second piece: err = %v, want ErrPartial", err)
	}

	rc, err := Exec(context.Background(), p, []byte("de"), 0, bytecode.Partial|bytecode.DFARestart, ovector, ws, DefaultConfig())
	if err != nil || rc != 1 {
		t.Fatalf("last piece: rc, err = %d, %v, want 1, nil", rc, err)
	}
	if diff := cmp.Diff([]int{0, 1}, ovector); diff != "" {
		t.Errorf("completed match (-want +got):\n%s", diff)
	}

	_, err = Exec(context.Background(), p, []byte("xyz"), 0, bytecode.Partial, ovector, ws, DefaultConfig())
	if !errors.Is(err, bytecode.ErrNoMatch) {
		t.Errorf("dead subject: err = %v, want ErrNoMatch", err)
	}
}

func TestExecBadRestart(t *testing.T) {
	p := compileForTest(t, `abcd`, 0)
	ws := make([]int, DefaultWorkspaceSize)
	ws[0], ws[2] = 1, 1<<20
	_, err := Exec(context.Background(), p, []byte("cd"), 0, bytecode.DFARestart, make([]int, 2), ws, DefaultConfig())
	if !errors.Is(err, bytecode.ErrDFABadRestart) {
		t.Errorf("err = %v, want ErrDFABadRestart", err)
	}
}

func TestExecCallout(t *testing.T) {
	p := compileForTest(t, `a(?C3)b`, 0)
	tests := []struct {
		name string
		rc   int
		want error
	}{
		{"continue", 0, nil},
		{"fail here", 1, bytecode.ErrNoMatch},
		{"abort", -1, bytecode.ErrNoMatch},
		{"own code", -42, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen []int
			cfg := DefaultConfig()
			cfg.Callout = func(cb *nfa.CalloutBlock) int {
				seen = append(seen, cb.Number, cb.CurrentPosition)
				return tt.rc
			}
			_, err := Exec(context.Background(), p, []byte("xab"), 0, 0, make([]int, 2), nil, cfg)
			if tt.rc < 0 {
				var ce *nfa.CalloutError
				if !errors.As(err, &ce) || ce.Value != tt.rc {
					t.Fatalf("err = %v, want CalloutError %d", err, tt.rc)
				}
			} else if !errors.Is(err, tt.want) && !(tt.want == nil && err == nil) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if diff := cmp.Diff([]int{3, 2}, seen); diff != "" {
				t.Errorf("callout calls (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecContextCancel(t *testing.T) {
	p := compileForTest(t, `(?:a|b)*(?:c|d)`, 0)
	subject := make([]byte, 1<<16)
	for i := range subject {
		subject[i] = 'a'
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(p, DefaultConfig(), true).Exec(ctx, subject, 0, 0, make([]int, 2), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestMatcherReuse(t *testing.T) {
	p := compileForTest(t, `(?<=x)y+`, 0)
	mt := New(p, DefaultConfig(), false)
	for i, tt := range []struct {
		subject string
		want    []int
	}{
		{"xyy", []int{1, 3, 1, 2}},
		{"yxy", []int{2, 3}},
		{"xyy", []int{1, 3, 1, 2}},
	} {
		ovector := make([]int, 4)
		rc, err := mt.Exec(context.Background(), []byte(tt.subject), 0, 0, ovector, nil)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if diff := cmp.Diff(tt.want, ovector[:2*rc]); diff != "" {
			t.Errorf("call %d (-want +got):\n%s", i, diff)
		}
	}
}
