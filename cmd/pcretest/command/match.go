package command

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coregx/pcre"
)

// execFlags are the exec-time options shared by match and dfa.
type execFlags struct {
	anchored bool
	notEmpty bool
	notBOL   bool
	notEOL   bool
	partial  bool
	global   bool
}

func (f *execFlags) register(fs *pflag.FlagSet) {
	fs.BoolVarP(&f.anchored, "anchored", "A", false, "match only at the start offset")
	fs.BoolVar(&f.notEmpty, "notempty", false, "an empty string is not a match")
	fs.BoolVar(&f.notBOL, "notbol", false, "subject start is not the start of a line")
	fs.BoolVar(&f.notEOL, "noteol", false, "subject end is not the end of a line")
	fs.BoolVarP(&f.partial, "partial", "P", false, "report partial matches")
	fs.BoolVarP(&f.global, "global", "g", false, "find all matches in each subject")
}

func (f *execFlags) options() pcre.Option {
	var opts pcre.Option
	if f.anchored {
		opts |= pcre.Anchored
	}
	if f.notEmpty {
		opts |= pcre.NotEmpty
	}
	if f.notBOL {
		opts |= pcre.NotBOL
	}
	if f.notEOL {
		opts |= pcre.NotEOL
	}
	if f.partial {
		opts |= pcre.Partial
	}
	return opts
}

func newMatch() *cobra.Command {
	var (
		cf compileFlags
		ef execFlags
	)
	cmd := &cobra.Command{
		Use:   "match PATTERN SUBJECT...",
		Short: "Run the backtracking matcher and print captured groups",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			re, err := cf.compile(args[0])
			if err != nil {
				return err
			}
			for _, s := range args[1:] {
				if err := runMatch(cmd.OutOrStdout(), re, []byte(s), ef.options(), ef.global); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cf.register(cmd.Flags())
	ef.register(cmd.Flags())
	return cmd
}

// runMatch prints one block per match of re in subject. With global set
// it continues after each match the way pcretest's /g modifier does.
func runMatch(w io.Writer, re *pcre.Regexp, subject []byte, options pcre.Option, global bool) error {
	ovector := make([]int, 3*(re.NumSubexp()+1))
	start, extra := 0, pcre.Option(0)
	utf := re.Info().Options&pcre.UTF8 != 0
	for found := false; ; {
		rc, err := re.Exec(subject, start, options|extra, ovector)
		switch {
		case errors.Is(err, pcre.ErrNoMatch):
			if extra&pcre.NotEmpty != 0 && start < len(subject) {
				// The empty match retry failed: move one character on
				// and search normally.
				extra &^= pcre.NotEmpty | pcre.Anchored
				start += charLen(subject[start:], utf)
				continue
			}
			if !found {
				fmt.Fprintln(w, "No match")
			}
			return nil
		case errors.Is(err, pcre.ErrPartial):
			fmt.Fprintln(w, "Partial match")
			return nil
		case err != nil:
			if errors.Is(err, pcre.ErrMatchLimit) || errors.Is(err, pcre.ErrRecursionLimit) {
				glog.Warningf("match %q: %v", subject, err)
			}
			fmt.Fprintf(w, "Error: %v\n", err)
			return nil
		}
		found = true
		if rc == 0 {
			rc = len(ovector) / 3
		}
		printPairs(w, subject, ovector[:2*rc])
		if !global {
			return nil
		}
		extra = pcre.NoUTF8Check
		if ovector[0] == ovector[1] {
			if ovector[1] >= len(subject) {
				return nil
			}
			extra |= pcre.NotEmpty | pcre.Anchored
		}
		start = ovector[1]
	}
}

func charLen(b []byte, utf bool) int {
	if !utf {
		return 1
	}
	_, n := utf8.DecodeRune(b)
	return n
}

func printPairs(w io.Writer, subject []byte, pairs []int) {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i] < 0 {
			fmt.Fprintf(w, "%2d: <unset>\n", i/2)
			continue
		}
		fmt.Fprintf(w, "%2d: %s\n", i/2, subject[pairs[i]:pairs[i+1]])
	}
}
