package command

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/pcre"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "groups",
			args: []string{"match", `(\w+)@(\w+)`, "mail bob@example"},
			want: " 0: bob@example\n 1: bob\n 2: example\n",
		},
		{
			name: "unset group",
			args: []string{"match", `(a)?(b)`, "b"},
			want: " 0: b\n 1: <unset>\n 2: b\n",
		},
		{
			name: "no match",
			args: []string{"match", `z`, "abc"},
			want: "No match\n",
		},
		{
			name: "several subjects",
			args: []string{"match", `\d+`, "a1", "b", "22"},
			want: " 0: 1\nNo match\n 0: 22\n",
		},
		{
			name: "caseless",
			args: []string{"match", "-i", "ABC", "xabcx"},
			want: " 0: abc\n",
		},
		{
			name: "multiline",
			args: []string{"match", "-m", "^b", "a\nb"},
			want: " 0: b\n",
		},
		{
			name: "anchored",
			args: []string{"match", "--anchored", "b", "ab"},
			want: "No match\n",
		},
		{
			name: "notempty",
			args: []string{"match", "--notempty", "a*", "baa"},
			want: " 0: aa\n",
		},
		{
			name: "global with empty matches",
			args: []string{"match", "-g", "a*", "baaa"},
			want: " 0: \n 0: aaa\n 0: \n",
		},
		{
			name: "global utf8",
			args: []string{"match", "-g", "-u", "x*", "é"},
			want: " 0: \n 0: \n",
		},
		{
			name: "partial",
			args: []string{"match", "--partial", "abc", "xab"},
			want: "Partial match\n",
		},
		{
			name: "match limit",
			args: []string{"match", "--match-limit", "100", "(a+)+$", strings.Repeat("a", 22) + "!"},
			want: "Error: pcre: match limit exceeded\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchCompileError(t *testing.T) {
	_, err := run(t, "match", "a(b", "ab")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing )")

	var ce *pcre.CompileError
	assert.ErrorAs(t, err, &ce)
}

func TestMatchArgs(t *testing.T) {
	_, err := run(t, "match", "abc")
	assert.Error(t, err)
}

func TestDFA(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "longest first",
			args: []string{"dfa", "<.*>", "<a> <b>"},
			want: " 0: <a> <b>\n 1: <a>\n",
		},
		{
			name: "shortest",
			args: []string{"dfa", "--shortest", "<.*>", "<a> <b>"},
			want: " 0: <a>\n",
		},
		{
			name: "no match",
			args: []string{"dfa", "abc", "xyz"},
			want: "No match\n",
		},
		{
			name: "partial then restart",
			args: []string{"dfa", "--partial", "abcd", "xab", "cd!"},
			want: "Partial match: ab\n 0: cd\n",
		},
		{
			name: "unsupported item",
			args: []string{"dfa", `(a)\1`, "aa"},
			want: "Error: pcre: DFA does not support this item\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDFAGrowsOvector(t *testing.T) {
	subject := strings.Repeat("a", 15)
	got, err := run(t, "dfa", "a+", subject)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, lines, 15)
	assert.Equal(t, " 0: "+subject, lines[0])
	assert.Equal(t, "14: a", lines[14])
}

func TestInfo(t *testing.T) {
	got, err := run(t, "info", `(?<y>\d+)-\k<y>`)
	require.NoError(t, err)
	assert.Contains(t, got, "Capturing subpattern count = 1\n")
	assert.Contains(t, got, "Max back reference = 1\n")
	assert.Contains(t, got, "Named capturing subpatterns:\n  y   1\n")
	assert.Contains(t, got, "Partial matching not supported\n")
	assert.Contains(t, got, "No first char\n")
	assert.Contains(t, got, "Starting byte set: 0 1 2 3 4 5 6 7 8 9\n")

	got, err = run(t, "info", "-i", "abc")
	require.NoError(t, err)
	assert.Contains(t, got, "Options: caseless\n")
	assert.Contains(t, got, "First char = a (caseless)\n")
	assert.Contains(t, got, "Need char = c (caseless)\n")
}

func TestInfoCode(t *testing.T) {
	got, err := run(t, "info", "--code", "(a)b")
	require.NoError(t, err)
	assert.Contains(t, got, "CBra 1")
	assert.Contains(t, got, "End")
}

func TestGen(t *testing.T) {
	got, err := run(t, "gen", "--package", "rx", "--func", "Date", `(\d{4})-(\d\d)`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "// Code generated by pcretest gen. DO NOT EDIT."), got)
	assert.Contains(t, got, "package rx")
	assert.Contains(t, got, `"github.com/coregx/pcre"`)
	assert.Contains(t, got, "var dateRegexp = pcre.MustLoad([]byte(")
	assert.Contains(t, got, "func Date() *pcre.Regexp {")
}

func TestGenFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pattern.go")
	got, err := run(t, "gen", "--out", out, "-i", "hello")
	require.NoError(t, err)
	assert.Empty(t, got)

	src, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(src), "package main")
	assert.Contains(t, string(src), "func Pattern() *pcre.Regexp {")
}

func TestGenInvalidNames(t *testing.T) {
	_, err := run(t, "gen", "--package", "1x", "a")
	assert.ErrorContains(t, err, "invalid package name")

	_, err = run(t, "gen", "--func", "a-b", "a")
	assert.ErrorContains(t, err, "invalid function name")
}

// TestGenerateLoads checks that the embedded bytes load back into a working
// pattern.
func TestGenerateLoads(t *testing.T) {
	re := pcre.MustCompile(`(\w+)=(\d+)`)
	data, err := re.MarshalBinary()
	require.NoError(t, err)

	f, err := generate(genOptions{pkg: "p", fn: "KV", expr: re.String()}, data)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf))
	assert.Contains(t, buf.String(), "kVRegexp")

	loaded := pcre.MustLoad(data)
	assert.Equal(t, []string{"x=42", "x", "42"}, loaded.FindStringSubmatch("set x=42"))
}
