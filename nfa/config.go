package nfa

// Default resource limits. Every recursion level is a Go stack frame, so
// the recursion limit stays well inside the goroutine stack ceiling.
const (
	DefaultMatchLimit     = 10_000_000
	DefaultRecursionLimit = 200_000
)

// Config controls a backtracking match.
//
// Example:
//
//	cfg := nfa.DefaultConfig()
//	cfg.MatchLimit = 100_000 // fail fast on pathological input
//	m := nfa.New(p, cfg, false)
type Config struct {
	// MatchLimit bounds the number of internal match calls per start
	// position. Exceeding it aborts the match with bytecode.ErrMatchLimit.
	// Zero selects DefaultMatchLimit.
	MatchLimit int

	// RecursionLimit bounds the nesting depth of internal match calls.
	// Exceeding it aborts the match with bytecode.ErrRecursionLimit.
	// Zero selects DefaultRecursionLimit.
	RecursionLimit int

	// Callout, when non-nil, is invoked at every callout point. A return
	// of 0 continues, a positive value fails at this point (backtrack), and
	// a negative value aborts the whole match with that value as the
	// result, wrapped in a *CalloutError.
	Callout func(*CalloutBlock) int

	// CalloutData is passed through to Callout unchanged.
	CalloutData any
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MatchLimit:     DefaultMatchLimit,
		RecursionLimit: DefaultRecursionLimit,
	}
}

func (c Config) withDefaults() Config {
	if c.MatchLimit <= 0 {
		c.MatchLimit = DefaultMatchLimit
	}
	if c.RecursionLimit <= 0 {
		c.RecursionLimit = DefaultRecursionLimit
	}
	return c
}
