// Package pcre provides Perl-compatible regular expressions for Go.
//
// Patterns are compiled to bytecode once and can then be run by either of
// two matchers:
//   - a backtracking matcher (Exec and the Find family) that finds the same
//     match Perl would and supports captures, back references, lookaround,
//     atomic groups, recursion, conditionals and callouts;
//   - a DFA-style matcher (DFAExec) that finds every match starting at the
//     leftmost possible position in one pass over the subject, with partial
//     matching that can be resumed on the next piece of input.
//
// Basic usage:
//
//	re, err := pcre.Compile(`(?<year>\d{4})-(?<month>\d\d)`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m := re.FindStringSubmatch("released 2024-06")
//	fmt.Println(m[re.SubexpIndex("month")]) // "06"
//
// Lower-level access:
//
//	ovector := make([]int, 3*(re.NumSubexp()+1))
//	rc, err := re.Exec(subject, 0, pcre.NotEmpty, ovector)
//	switch {
//	case errors.Is(err, pcre.ErrNoMatch):
//	case err != nil:
//	    return err // limit hit, bad UTF-8, callout abort, ...
//	}
//
// Compiled patterns can be saved with MarshalBinary and reloaded with Load.
//
// The Find family reports hard failures such as an exceeded match limit as
// no match; use Exec or ExecContext to see them.
package pcre

import (
	"context"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/dfa"
	"github.com/coregx/pcre/nfa"
	"github.com/coregx/pcre/syntax"
)

// Regexp is a compiled regular expression.
//
// A Regexp is safe for concurrent use by multiple goroutines.
//
// Example:
//
//	re := pcre.MustCompile(`hello`)
//	if re.Match([]byte("hello world")) {
//	    println("matched!")
//	}
type Regexp struct {
	expr  string
	p     *bytecode.Pattern
	names []string

	nfa *nfa.Matcher
	dfa *dfa.Matcher

	// ovecs holds *[]int ovectors of 3*(NumSubexp()+1) ints.
	ovecs sync.Pool
}

// Compile parses a regular expression and returns, if successful, a Regexp
// that can be used to match against text.
//
// Example:
//
//	re, err := pcre.Compile(`\d{3}-\d{4}`)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(expr string) (*Regexp, error) {
	return CompileWithConfig(expr, 0, DefaultConfig())
}

// CompileOptions is like Compile with compile options such as Caseless or
// UTF8.
func CompileOptions(expr string, options Option) (*Regexp, error) {
	return CompileWithConfig(expr, options, DefaultConfig())
}

// CompileWithConfig compiles expr with options and a custom configuration.
// An invalid configuration is reported as a *ConfigError, a bad pattern as
// a *CompileError.
//
// Example:
//
//	cfg := pcre.DefaultConfig()
//	cfg.MatchLimit = 100_000
//	re, err := pcre.CompileWithConfig(`(\w+\s?)+$`, pcre.Caseless, cfg)
func CompileWithConfig(expr string, options Option, cfg Config) (*Regexp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := syntax.Compile(expr, options, &syntax.Config{Tables: cfg.Tables})
	if err != nil {
		return nil, &CompileError{Pattern: expr, Err: err}
	}
	return newRegexp(expr, p, cfg), nil
}

// MustCompile is like Compile but panics if the expression cannot be parsed.
//
// Example:
//
//	var emailRegex = pcre.MustCompile(`[a-z]+@[a-z]+\.[a-z]+`)
func MustCompile(expr string) *Regexp {
	re, err := Compile(expr)
	if err != nil {
		panic("pcre: Compile(" + quote(expr) + "): " + err.Error())
	}
	return re
}

// Load rebuilds a Regexp from the output of MarshalBinary, which may come
// from a host with the other byte order. The source text is not saved, so
// String returns "" for a loaded Regexp.
func Load(data []byte) (*Regexp, error) {
	return LoadWithConfig(data, DefaultConfig())
}

// LoadWithConfig is like Load with a custom configuration. Tables in cfg
// replace the default tables the reloaded pattern would use.
func LoadWithConfig(data []byte, cfg Config) (*Regexp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := bytecode.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if cfg.Tables != nil {
		p.Tables = cfg.Tables
	}
	return newRegexp("", p, cfg), nil
}

// MustLoad is like Load but panics on error. It is meant for generated
// code that embeds a saved pattern.
func MustLoad(data []byte) *Regexp {
	re, err := Load(data)
	if err != nil {
		panic("pcre: Load: " + err.Error())
	}
	return re
}

func newRegexp(expr string, p *bytecode.Pattern, cfg Config) *Regexp {
	if cfg.Study && p.StartBits == nil {
		p.StartBits = syntax.Study(p)
	}
	re := &Regexp{
		expr:  expr,
		p:     p,
		names: make([]string, p.TopBracket+1),
		nfa:   nfa.New(p, cfg.nfaConfig(), !cfg.EnablePrefilter),
		dfa:   dfa.New(p, cfg.dfaConfig(), !cfg.EnablePrefilter),
	}
	for _, n := range p.Names {
		if n.Number < len(re.names) {
			re.names[n.Number] = n.Name
		}
	}
	size := 3 * (p.TopBracket + 1)
	re.ovecs.New = func() any {
		v := make([]int, size)
		return &v
	}
	return re
}

// QuoteMeta returns a string that escapes every ASCII character other than
// letters, digits and underscore; the result is a pattern that matches the
// literal text, also in Extended mode.
//
// Example:
//
//	escaped := pcre.QuoteMeta("1.5+2")
//	// escaped = `1\.5\+2`
func QuoteMeta(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if isSpecial(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, len(s)+n)
	j := 0
	for i := 0; i < len(s); i++ {
		if isSpecial(s[i]) {
			buf[j] = '\\'
			j++
		}
		buf[j] = s[i]
		j++
	}
	return string(buf)
}

// isSpecial reports whether c must be escaped to stand for itself.
func isSpecial(c byte) bool {
	switch {
	case c >= 0x80:
		return false
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '_':
		return false
	}
	return true
}

// String returns the source text used to compile the regular expression.
func (re *Regexp) String() string {
	return re.expr
}

// NumSubexp returns the number of capturing groups in this Regexp.
//
// Example:
//
//	re := pcre.MustCompile(`(\w+)@(\w+)\.(\w+)`)
//	println(re.NumSubexp()) // 3
func (re *Regexp) NumSubexp() int {
	return re.p.TopBracket
}

// SubexpNames returns the names of the capturing groups. The name of group
// i is SubexpNames()[i]; names[0] and the names of unnamed groups are
// empty. The slice is shared and must not be modified.
//
// Example:
//
//	re := pcre.MustCompile(`(?P<year>\d+)-(?P<month>\d+)`)
//	names := re.SubexpNames()
//	// names[0] = ""
//	// names[1] = "year"
//	// names[2] = "month"
func (re *Regexp) SubexpNames() []string {
	return re.names
}

// SubexpIndex returns the number of the group with the given name, or -1.
func (re *Regexp) SubexpIndex(name string) int {
	if name == "" {
		return -1
	}
	return re.p.GroupNumber(name)
}

// ExecContext runs the backtracking matcher on subject from byte offset
// start and fills ovector in the PCRE layout: its length should be a
// multiple of three, the first two thirds receive (start, end) pairs, the
// whole match first, with -1 for unset groups.
//
// It returns the number of pairs set, or 0 if ovector was too small for
// all of them. Otherwise the error is ErrNoMatch, ErrPartial, or a
// failure: ErrMatchLimit, ErrRecursionLimit, a *bytecode.UTF8Error, a
// *nfa.CalloutError, or ctx's error once ctx is done.
func (re *Regexp) ExecContext(ctx context.Context, subject []byte, start int, options Option, ovector []int) (int, error) {
	return re.nfa.Exec(ctx, subject, start, options, ovector)
}

// Exec is ExecContext without cancellation.
//
// Example:
//
//	re := pcre.MustCompile(`(\d+)-(\d+)`)
//	ovector := make([]int, 9)
//	rc, err := re.Exec([]byte("call 555-1234"), 0, 0, ovector)
//	// rc = 3, ovector[:6] = [5 13 5 8 9 13]
func (re *Regexp) Exec(subject []byte, start int, options Option, ovector []int) (int, error) {
	return re.nfa.Exec(context.Background(), subject, start, options, ovector)
}

// DFAExecContext runs the DFA matcher on subject from byte offset start.
// Every match found at the leftmost start position is stored in ovector as
// a (start, end) pair, longest first. The result is the number of pairs,
// or 0 when ovector was too small for all of them; the longest are kept.
//
// workspace holds the matcher's state, at least 20 ints; nil uses an
// internal one of Config.DFAWorkspaceSize ints. To continue a partial
// match (ErrPartial with the Partial option) on the next piece of the
// subject, pass the same workspace again with DFARestart.
func (re *Regexp) DFAExecContext(ctx context.Context, subject []byte, start int, options Option, ovector, workspace []int) (int, error) {
	return re.dfa.Exec(ctx, subject, start, options, ovector, workspace)
}

// DFAExec is DFAExecContext without cancellation.
//
// Example:
//
//	re := pcre.MustCompile(`<.*>`)
//	ovector := make([]int, 10)
//	rc, _ := re.DFAExec([]byte("<a> <b>"), 0, 0, ovector, nil)
//	// rc = 2, ovector[:4] = [0 7 0 3]
func (re *Regexp) DFAExec(subject []byte, start int, options Option, ovector, workspace []int) (int, error) {
	return re.dfa.Exec(context.Background(), subject, start, options, ovector, workspace)
}

// MarshalBinary saves the compiled pattern in the PCRE layout, in host
// byte order. Load reverses it.
func (re *Regexp) MarshalBinary() ([]byte, error) {
	return re.p.MarshalBinary()
}

// index returns the whole match found from start, or nil.
func (re *Regexp) index(b []byte, start int, options Option) []int {
	ovp := re.ovecs.Get().(*[]int)
	defer re.ovecs.Put(ovp)
	ov := (*ovp)[:3]
	if _, err := re.nfa.Exec(context.Background(), b, start, options, ov); err != nil {
		return nil
	}
	return []int{ov[0], ov[1]}
}

// submatch returns the pairs of every group for the match found from
// start, or nil.
func (re *Regexp) submatch(b []byte, start int, options Option) []int {
	ovp := re.ovecs.Get().(*[]int)
	defer re.ovecs.Put(ovp)
	ov := *ovp
	rc, err := re.nfa.Exec(context.Background(), b, start, options, ov)
	if err != nil {
		return nil
	}
	if rc == 0 {
		rc = re.p.TopBracket + 1
	}
	// Pairs at or above rc may hold groups from a backtracked iteration.
	out := make([]int, 2*(re.p.TopBracket+1))
	copy(out, ov[:2*rc])
	for i := 2 * rc; i < len(out); i++ {
		out[i] = -1
	}
	return out
}

// Match reports whether b contains any match of the pattern.
func (re *Regexp) Match(b []byte) bool {
	return re.index(b, 0, 0) != nil
}

// MatchString reports whether s contains any match of the pattern.
func (re *Regexp) MatchString(s string) bool {
	return re.Match([]byte(s))
}

// Find returns the text of the leftmost match in b, or nil.
//
// Example:
//
//	re := pcre.MustCompile(`\d+`)
//	match := re.Find([]byte("age: 42"))
//	println(string(match)) // "42"
func (re *Regexp) Find(b []byte) []byte {
	loc := re.index(b, 0, 0)
	if loc == nil {
		return nil
	}
	return b[loc[0]:loc[1]:loc[1]]
}

// FindIndex returns the location of the leftmost match in b as
// b[loc[0]:loc[1]], or nil.
func (re *Regexp) FindIndex(b []byte) []int {
	return re.index(b, 0, 0)
}

// FindString returns the text of the leftmost match in s. It returns ""
// both for no match and for an empty match; use FindStringIndex to tell
// them apart.
func (re *Regexp) FindString(s string) string {
	loc := re.index([]byte(s), 0, 0)
	if loc == nil {
		return ""
	}
	return s[loc[0]:loc[1]]
}

// FindStringIndex returns the location of the leftmost match in s, or nil.
func (re *Regexp) FindStringIndex(s string) []int {
	return re.index([]byte(s), 0, 0)
}

// FindSubmatchIndex returns the index pairs of the leftmost match and of
// every capturing group, with -1 for groups that took no part, or nil.
func (re *Regexp) FindSubmatchIndex(b []byte) []int {
	return re.submatch(b, 0, 0)
}

// FindStringSubmatchIndex is like FindSubmatchIndex for a string.
func (re *Regexp) FindStringSubmatchIndex(s string) []int {
	return re.submatch([]byte(s), 0, 0)
}

// FindSubmatch returns the text of the leftmost match and of every
// capturing group; groups that took no part are nil.
//
// Example:
//
//	re := pcre.MustCompile(`(\w+)@(\w+)`)
//	m := re.FindSubmatch([]byte("mail bob@example"))
//	// m = ["bob@example" "bob" "example"]
func (re *Regexp) FindSubmatch(b []byte) [][]byte {
	loc := re.submatch(b, 0, 0)
	if loc == nil {
		return nil
	}
	out := make([][]byte, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = b[loc[2*i]:loc[2*i+1]:loc[2*i+1]]
		}
	}
	return out
}

// FindStringSubmatch is like FindSubmatch for a string; groups that took
// no part are "".
func (re *Regexp) FindStringSubmatch(s string) []string {
	loc := re.submatch([]byte(s), 0, 0)
	if loc == nil {
		return nil
	}
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

// allMatches calls deliver with each successive match in b, at most n of
// them when n >= 0. After an empty match the search is first retried at
// the same position with NotEmpty|Anchored, and only if that fails moves
// one character on, so an empty match may directly follow a non-empty
// one, as in Perl.
func (re *Regexp) allMatches(b []byte, n int, submatches bool, deliver func([]int)) {
	var options, check Option
	for pos, count := 0, 0; n < 0 || count < n; {
		var m []int
		if submatches {
			m = re.submatch(b, pos, options|check)
		} else {
			m = re.index(b, pos, options|check)
		}
		// Match offsets are character boundaries, so the subject needs
		// validating only once.
		check = NoUTF8Check
		if m == nil {
			if options == 0 || pos >= len(b) {
				return
			}
			options = 0
			pos += re.charLen(b, pos)
			continue
		}
		deliver(m)
		count++
		options = 0
		if m[0] == m[1] {
			options = NotEmpty | Anchored
		}
		pos = m[1]
	}
}

// charLen returns the length of the character at b[pos].
func (re *Regexp) charLen(b []byte, pos int) int {
	if !re.p.UTF8() {
		return 1
	}
	_, n := utf8.DecodeRune(b[pos:])
	return n
}

// FindAll returns the text of all successive matches in b, at most n of
// them if n >= 0.
//
// Example:
//
//	re := pcre.MustCompile(`\d+`)
//	matches := re.FindAll([]byte("1 22 333"), -1)
//	// matches = ["1" "22" "333"]
func (re *Regexp) FindAll(b []byte, n int) [][]byte {
	var out [][]byte
	re.allMatches(b, n, false, func(m []int) {
		out = append(out, b[m[0]:m[1]:m[1]])
	})
	return out
}

// FindAllIndex returns the locations of all successive matches in b, at
// most n of them if n >= 0.
func (re *Regexp) FindAllIndex(b []byte, n int) [][]int {
	var out [][]int
	re.allMatches(b, n, false, func(m []int) {
		out = append(out, m)
	})
	return out
}

// FindAllString returns the text of all successive matches in s, at most
// n of them if n >= 0.
func (re *Regexp) FindAllString(s string, n int) []string {
	var out []string
	re.allMatches([]byte(s), n, false, func(m []int) {
		out = append(out, s[m[0]:m[1]])
	})
	return out
}

// FindAllStringIndex returns the locations of all successive matches in s.
func (re *Regexp) FindAllStringIndex(s string, n int) [][]int {
	return re.FindAllIndex([]byte(s), n)
}

// FindAllStringSubmatchIndex returns the group index pairs of all
// successive matches in s, at most n of them if n >= 0.
func (re *Regexp) FindAllStringSubmatchIndex(s string, n int) [][]int {
	var out [][]int
	re.allMatches([]byte(s), n, true, func(m []int) {
		out = append(out, m)
	})
	return out
}

// ReplaceAllString returns a copy of src with every match replaced by repl.
// Inside repl, $n and ${n} stand for the text of group n, ${name} for the
// named group, and $$ for a literal $. A group that took no part, or does
// not exist, expands to "".
//
// Example:
//
//	re := pcre.MustCompile(`(?<user>\w+)@(\w+)\.com`)
//	result := re.ReplaceAllString("bob@example.com", "$2: ${user}")
//	// result = "example: bob"
func (re *Regexp) ReplaceAllString(src, repl string) string {
	b := []byte(src)
	var out []byte
	last, matched := 0, false
	re.allMatches(b, -1, true, func(m []int) {
		out = append(out, src[last:m[0]]...)
		out = re.expand(out, repl, b, m)
		last, matched = m[1], true
	})
	if !matched {
		return src
	}
	out = append(out, src[last:]...)
	return string(out)
}

// ReplaceAll is ReplaceAllString for byte slices.
func (re *Regexp) ReplaceAll(src, repl []byte) []byte {
	var out []byte
	last := 0
	template := string(repl)
	re.allMatches(src, -1, true, func(m []int) {
		out = append(out, src[last:m[0]]...)
		out = re.expand(out, template, src, m)
		last = m[1]
	})
	return append(out, src[last:]...)
}

// expand appends template to dst, replacing group references with the
// text of the groups in match.
func (re *Regexp) expand(dst []byte, template string, src []byte, match []int) []byte {
	for i := 0; i < len(template); {
		c := template[i]
		if c != '$' || i+1 >= len(template) {
			dst = append(dst, c)
			i++
			continue
		}
		if template[i+1] == '$' {
			dst = append(dst, '$')
			i += 2
			continue
		}
		group, n := re.groupRef(template[i+1:])
		if n == 0 {
			dst = append(dst, '$')
			i++
			continue
		}
		i += 1 + n
		if group >= 0 && 2*group+1 < len(match) && match[2*group] >= 0 {
			dst = append(dst, src[match[2*group]:match[2*group+1]]...)
		}
	}
	return dst
}

// groupRef parses the group reference at the start of s: digits, or a
// number or name in braces. It returns the group number, -1 for an
// unknown name, and the length consumed, 0 when s holds no reference.
func (re *Regexp) groupRef(s string) (group, n int) {
	if s[0] == '{' {
		end := 1
		for end < len(s) && s[end] != '}' {
			end++
		}
		if end == len(s) || end == 1 {
			return 0, 0
		}
		name := s[1:end]
		if num, err := strconv.Atoi(name); err == nil && num >= 0 {
			return num, end + 1
		}
		if !isName(name) {
			return 0, 0
		}
		return re.SubexpIndex(name), end + 1
	}
	for n < len(s) && '0' <= s[n] && s[n] <= '9' {
		n++
	}
	if n == 0 {
		return 0, 0
	}
	num, err := strconv.Atoi(s[:n])
	if err != nil {
		return -1, n
	}
	return num, n
}

func isName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

// quote renders s between backquotes when it can, as the standard library
// does in its panic messages.
func quote(s string) string {
	if strconv.CanBackquote(s) {
		return "`" + s + "`"
	}
	return strconv.Quote(s)
}
