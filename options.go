package pcre

import "github.com/coregx/pcre/bytecode"

// Option is a set of compile and exec flags. The bit values are PCRE's.
type Option = bytecode.Option

// Compile options.
const (
	Caseless      = bytecode.Caseless      // (?i)
	Multiline     = bytecode.Multiline     // (?m): ^ and $ match at newlines
	DotAll        = bytecode.DotAll        // (?s): . matches newline
	Extended      = bytecode.Extended      // (?x): ignore whitespace and # comments
	DollarEndOnly = bytecode.DollarEndOnly // $ matches only at the very end
	Extra         = bytecode.Extra         // (?X): unknown escapes are errors
	Ungreedy      = bytecode.Ungreedy      // (?U): swap quantifier greediness
	UTF8          = bytecode.UTF8
	NoAutoCapture = bytecode.NoAutoCapture // plain (...) does not capture
	AutoCallout   = bytecode.AutoCallout
	FirstLine     = bytecode.FirstLine // a match must start before the first newline
)

// Options accepted both at compile time and at exec time.
const (
	Anchored    = bytecode.Anchored
	NoUTF8Check = bytecode.NoUTF8Check
)

// Exec options.
const (
	NotBOL      = bytecode.NotBOL   // subject start is not the start of a line
	NotEOL      = bytecode.NotEOL   // subject end is not the end of a line
	NotEmpty    = bytecode.NotEmpty // an empty string is not a match
	Partial     = bytecode.Partial
	DFAShortest = bytecode.DFAShortest
	DFARestart  = bytecode.DFARestart
)
