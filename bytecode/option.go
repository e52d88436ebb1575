package bytecode

// Option is a bit set of compile-time, match-time and internal flags. The
// bit values are shared by compile and exec options, as in PCRE, so a saved
// pattern's options remain meaningful after reload.
type Option uint32

// Compile and exec options.
const (
	Caseless      Option = 0x00000001
	Multiline     Option = 0x00000002
	DotAll        Option = 0x00000004
	Extended      Option = 0x00000008
	Anchored      Option = 0x00000010
	DollarEndOnly Option = 0x00000020
	Extra         Option = 0x00000040
	NotBOL        Option = 0x00000080
	NotEOL        Option = 0x00000100
	Ungreedy      Option = 0x00000200
	NotEmpty      Option = 0x00000400
	UTF8          Option = 0x00000800
	NoAutoCapture Option = 0x00001000
	NoUTF8Check   Option = 0x00002000
	AutoCallout   Option = 0x00004000
	Partial       Option = 0x00008000
	DFAShortest   Option = 0x00010000
	DFARestart    Option = 0x00020000
	FirstLine     Option = 0x00040000
)

// Internal flags kept in the high bits of Pattern.Options.
const (
	NoPartialFlag Option = 0x04000000 // pattern cannot honour Partial
	IChangedFlag  Option = 0x08000000 // (?i) appears somewhere in the pattern
	StartLineFlag Option = 0x10000000 // every match starts at a line start
	ReqByteSet    Option = 0x20000000 // ReqByte is valid
	FirstSet      Option = 0x40000000 // FirstByte is valid
)

// PublicCompileOptions lists the bits Compile accepts.
const PublicCompileOptions = Caseless | Extended | Anchored | Multiline | FirstLine |
	DotAll | DollarEndOnly | Extra | Ungreedy | UTF8 | NoAutoCapture | NoUTF8Check |
	AutoCallout

// PublicExecOptions lists the bits the backtracking matcher accepts.
const PublicExecOptions = Anchored | NotBOL | NotEOL | NotEmpty | NoUTF8Check | Partial

// PublicDFAExecOptions lists the bits the DFA matcher accepts.
const PublicDFAExecOptions = PublicExecOptions | DFAShortest | DFARestart

// IMSMask selects the options that can change inside a pattern at run time.
const IMSMask = Caseless | Multiline | DotAll | Extended

// Flags stored alongside FirstByte and ReqByte values.
const (
	ReqCaseless = 0x100 // compare caselessly
	ReqVary     = 0x200 // follows a variable-length item
)
