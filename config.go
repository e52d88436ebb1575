package pcre

import (
	"fmt"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/dfa"
	"github.com/coregx/pcre/nfa"
)

// CalloutBlock is the match state passed to Config.Callout.
type CalloutBlock = nfa.CalloutBlock

// Config controls compilation and matching of one Regexp.
//
// Example:
//
//	cfg := pcre.DefaultConfig()
//	cfg.MatchLimit = 100_000 // give up early on catastrophic patterns
//	re, err := pcre.CompileWithConfig(`(a+)+b`, 0, cfg)
type Config struct {
	// MatchLimit bounds the internal match calls of the backtracking
	// matcher per start position.
	// Default: 10,000,000
	MatchLimit int

	// RecursionLimit bounds the nesting of internal match calls.
	// Default: 200,000
	RecursionLimit int

	// DFAWorkspaceSize is the workspace, in ints, used by DFAExec when the
	// caller supplies none.
	// Default: 1000
	DFAWorkspaceSize int

	// EnablePrefilter enables start-position prefilters derived from the
	// pattern's first byte, start bits and literals.
	// Default: true
	EnablePrefilter bool

	// Study computes the set of bytes a match can start with when the
	// pattern has no single first byte.
	// Default: true
	Study bool

	// Callout, when non-nil, is invoked at every (?C) point, and at every
	// item when the pattern was compiled with AutoCallout. It returns 0 to
	// continue, a positive value to fail at this point and a negative
	// value to abort the match.
	Callout func(*CalloutBlock) int

	// CalloutData is passed through to Callout.
	CalloutData any

	// Tables are the character tables used for case folding and character
	// types; nil selects the built-in C-locale tables.
	Tables *bytecode.Tables
}

// DefaultConfig returns the default configuration.
//
// Example:
//
//	cfg := pcre.DefaultConfig()
//	cfg.EnablePrefilter = false // always run the matcher from every position
//	re, _ := pcre.CompileWithConfig("pattern", 0, cfg)
func DefaultConfig() Config {
	return Config{
		MatchLimit:       nfa.DefaultMatchLimit,
		RecursionLimit:   nfa.DefaultRecursionLimit,
		DFAWorkspaceSize: dfa.DefaultWorkspaceSize,
		EnablePrefilter:  true,
		Study:            true,
	}
}

// Validate checks if the configuration is valid.
// Returns an error describing the first invalid parameter found.
func (c Config) Validate() error {
	if c.MatchLimit < 1 {
		return &ConfigError{Field: "MatchLimit", Message: "must be positive"}
	}
	if c.RecursionLimit < 1 {
		return &ConfigError{Field: "RecursionLimit", Message: "must be positive"}
	}
	if c.DFAWorkspaceSize < dfa.MinWorkspaceSize {
		return &ConfigError{
			Field:   "DFAWorkspaceSize",
			Message: fmt.Sprintf("must be at least %d", dfa.MinWorkspaceSize),
		}
	}
	return nil
}

func (c Config) nfaConfig() nfa.Config {
	return nfa.Config{
		MatchLimit:     c.MatchLimit,
		RecursionLimit: c.RecursionLimit,
		Callout:        c.Callout,
		CalloutData:    c.CalloutData,
	}
}

func (c Config) dfaConfig() dfa.Config {
	return dfa.Config{
		WorkspaceSize: c.DFAWorkspaceSize,
		Callout:       c.Callout,
		CalloutData:   c.CalloutData,
	}
}
