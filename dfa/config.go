package dfa

import (
	"fmt"

	"github.com/coregx/pcre/nfa"
)

// Workspace limits, in ints.
const (
	// DefaultWorkspaceSize is the workspace used when the caller passes none.
	DefaultWorkspaceSize = 1000

	// MinWorkspaceSize is the smallest workspace Exec accepts.
	MinWorkspaceSize = 20

	// DefaultMaxDepth bounds nested sub-matches: assertions, atomic groups
	// and recursion each run one level deeper.
	DefaultMaxDepth = 1000
)

// Config configures the DFA matcher.
//
// The workspace holds two state lists of four ints per state, so its size
// bounds how many alternatives can be alive at one subject position:
//   - Simple patterns: the default 1000 ints (124 states) is plenty
//   - Heavy alternation or nested repeats: raise WorkspaceSize
//   - Deep recursion: raise MaxDepth
type Config struct {
	// WorkspaceSize is the size in ints of the workspace used for nested
	// sub-matches, and for the top level when Exec gets a nil workspace.
	//
	// Default: 1000
	WorkspaceSize int

	// MaxDepth bounds the nesting of sub-matches. Exceeding it aborts the
	// match with bytecode.ErrDFARecurse.
	//
	// Default: 1000
	MaxDepth int

	// MatchLimit is not supported by the DFA matcher and must be zero; a
	// non-zero value makes Exec fail with bytecode.ErrDFAUnsupportedLimit.
	MatchLimit int

	// Callout, when non-nil, is invoked at every callout point. The block
	// has no captures: Ovector is nil and CaptureTop is 1. A positive
	// return kills the path through this callout, a negative one aborts
	// the match.
	Callout func(*nfa.CalloutBlock) int

	// CalloutData is passed through to Callout unchanged.
	CalloutData any
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		WorkspaceSize: DefaultWorkspaceSize,
		MaxDepth:      DefaultMaxDepth,
	}
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("dfa: invalid config: %s %s", e.Field, e.Message)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.WorkspaceSize != 0 && c.WorkspaceSize < MinWorkspaceSize {
		return &ConfigError{
			Field:   "WorkspaceSize",
			Message: fmt.Sprintf("must be at least %d", MinWorkspaceSize),
		}
	}
	if c.MaxDepth < 0 {
		return &ConfigError{Field: "MaxDepth", Message: "must be >= 0"}
	}
	if c.MatchLimit < 0 {
		return &ConfigError{Field: "MatchLimit", Message: "must be >= 0"}
	}
	return nil
}

// WithWorkspaceSize returns a new config with the specified workspace size
func (c Config) WithWorkspaceSize(size int) Config {
	c.WorkspaceSize = size
	return c
}

// WithMaxDepth returns a new config with the specified nesting limit
func (c Config) WithMaxDepth(depth int) Config {
	c.MaxDepth = depth
	return c
}

func (c Config) withDefaults() Config {
	if c.WorkspaceSize < MinWorkspaceSize {
		c.WorkspaceSize = DefaultWorkspaceSize
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	return c
}
