// Package command implements the pcretest command tree.
package command

import (
	"flag"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coregx/pcre"
)

// compileFlags are shared by every subcommand that compiles a pattern.
type compileFlags struct {
	caseless  bool
	multiline bool
	dotAll    bool
	extended  bool
	utf8      bool
	ungreedy  bool

	matchLimit     int
	recursionLimit int
	noPrefilter    bool
}

func (f *compileFlags) register(fs *pflag.FlagSet) {
	fs.BoolVarP(&f.caseless, "caseless", "i", false, "case-insensitive matching")
	fs.BoolVarP(&f.multiline, "multiline", "m", false, "^ and $ match at newlines")
	fs.BoolVarP(&f.dotAll, "dotall", "s", false, ". matches newline")
	fs.BoolVarP(&f.extended, "extended", "x", false, "ignore whitespace and # comments in the pattern")
	fs.BoolVarP(&f.utf8, "utf8", "u", false, "pattern and subjects are UTF-8")
	fs.BoolVarP(&f.ungreedy, "ungreedy", "U", false, "invert quantifier greediness")
	fs.IntVar(&f.matchLimit, "match-limit", 0, "match call limit (0 for the default)")
	fs.IntVar(&f.recursionLimit, "recursion-limit", 0, "recursion depth limit (0 for the default)")
	fs.BoolVar(&f.noPrefilter, "no-prefilter", false, "disable start-position prefilters")
}

func (f *compileFlags) options() pcre.Option {
	var opts pcre.Option
	set := func(on bool, o pcre.Option) {
		if on {
			opts |= o
		}
	}
	set(f.caseless, pcre.Caseless)
	set(f.multiline, pcre.Multiline)
	set(f.dotAll, pcre.DotAll)
	set(f.extended, pcre.Extended)
	set(f.utf8, pcre.UTF8)
	set(f.ungreedy, pcre.Ungreedy)
	return opts
}

func (f *compileFlags) config() pcre.Config {
	cfg := pcre.DefaultConfig()
	if f.matchLimit > 0 {
		cfg.MatchLimit = f.matchLimit
	}
	if f.recursionLimit > 0 {
		cfg.RecursionLimit = f.recursionLimit
	}
	cfg.EnablePrefilter = !f.noPrefilter
	return cfg
}

func (f *compileFlags) compile(expr string) (*pcre.Regexp, error) {
	opts := f.options()
	re, err := pcre.CompileWithConfig(expr, opts, f.config())
	if err != nil {
		glog.Errorf("compile %q: %v", expr, err)
		return nil, err
	}
	if glog.V(1) {
		info := re.Info()
		glog.Infof("compiled %q: options %#x, %d bytes, %d groups", expr, uint32(opts), info.Size, info.CaptureCount)
	}
	return re, nil
}

// New returns the root pcretest command.
func New() *cobra.Command {
	root := &cobra.Command{
		Use:   "pcretest",
		Short: "Run Perl-compatible regular expressions from the command line",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// glog reads its flags from the standard flag set, which cobra
			// has already filled in through AddGoFlagSet.
			if !flag.Parsed() {
				return flag.CommandLine.Parse(nil)
			}
			return nil
		},
		SilenceUsage: true,
		Run:          func(cmd *cobra.Command, _ []string) { cmd.Help() },
	}
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	root.AddCommand(newMatch())
	root.AddCommand(newDFA())
	root.AddCommand(newInfo())
	root.AddCommand(newGen())
	return root
}
