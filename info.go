package pcre

import "github.com/coregx/pcre/bytecode"

// Info describes a compiled pattern.
type Info struct {
	// Options are the compile options, including options set at the very
	// start of the pattern such as (?i).
	Options Option

	Size         int // compiled code size in bytes
	CaptureCount int
	BackrefMax   int // highest group number used in a back reference

	// FirstByte is the byte every match starts with, or -1.
	FirstByte     int
	FirstCaseless bool

	// StartLine reports that every match starts at the subject start or
	// after a newline.
	StartLine bool

	// ReqByte is a byte every match contains, or -1.
	ReqByte     int
	ReqCaseless bool

	// Names maps named groups to numbers, sorted by name.
	Names []bytecode.NameEntry

	// StartBits is the studied set of possible first bytes, or nil.
	StartBits *[32]byte

	Anchored  bool
	NoPartial bool // the pattern cannot be used with the Partial option
}

// Info returns information about the compiled pattern.
func (re *Regexp) Info() Info {
	p := re.p
	info := Info{
		Options:      p.Options & bytecode.PublicCompileOptions,
		Size:         len(p.Code),
		CaptureCount: p.TopBracket,
		BackrefMax:   p.TopBackref,
		FirstByte:    -1,
		ReqByte:      -1,
		StartLine:    p.Options&bytecode.StartLineFlag != 0,
		Names:        append([]bytecode.NameEntry(nil), p.Names...),
		StartBits:    p.StartBits,
		Anchored:     p.Anchored(),
		NoPartial:    p.Options&bytecode.NoPartialFlag != 0,
	}
	if fb, ok := p.First(); ok {
		info.FirstByte = fb & 0xff
		info.FirstCaseless = fb&bytecode.ReqCaseless != 0
	}
	if rb, ok := p.Required(); ok {
		info.ReqByte = rb & 0xff
		info.ReqCaseless = rb&bytecode.ReqCaseless != 0
	}
	return info
}
