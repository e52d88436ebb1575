package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/coregx/pcre"
)

func newDFA() *cobra.Command {
	var (
		cf       compileFlags
		ef       execFlags
		shortest bool
	)
	cmd := &cobra.Command{
		Use:   "dfa PATTERN SUBJECT...",
		Short: "Run the DFA matcher and print every match at the leftmost start",
		Long: `Run the DFA matcher. Each SUBJECT is matched in turn; matches are
printed longest first. With --partial, a subject that ends in a partial
match is continued by the next SUBJECT.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			re, err := cf.compile(args[0])
			if err != nil {
				return err
			}
			options := ef.options()
			if shortest {
				options |= pcre.DFAShortest
			}
			d := &dfaRunner{re: re, w: cmd.OutOrStdout()}
			for _, s := range args[1:] {
				d.run([]byte(s), options)
			}
			return nil
		},
	}
	cf.register(cmd.Flags())
	ef.register(cmd.Flags())
	cmd.Flags().BoolVar(&shortest, "shortest", false, "stop at the first (shortest) match")
	return cmd
}

// dfaRunner keeps the workspace between subjects so a partial match can be
// restarted on the next one.
type dfaRunner struct {
	re        *pcre.Regexp
	w         io.Writer
	ovector   []int
	workspace []int
	restart   bool
}

func (d *dfaRunner) run(subject []byte, options pcre.Option) {
	if d.ovector == nil {
		d.ovector = make([]int, 20)
		d.workspace = make([]int, pcre.DefaultConfig().DFAWorkspaceSize)
	}
	if d.restart {
		options |= pcre.DFARestart
	}
	d.restart = false
	for {
		rc, err := d.re.DFAExec(subject, 0, options, d.ovector, d.workspace)
		switch {
		case errors.Is(err, pcre.ErrNoMatch):
			fmt.Fprintln(d.w, "No match")
		case errors.Is(err, pcre.ErrPartial):
			fmt.Fprintf(d.w, "Partial match: %s\n", subject[d.ovector[0]:d.ovector[1]])
			d.restart = true
		case err != nil:
			glog.Warningf("dfa %q: %v", subject, err)
			fmt.Fprintf(d.w, "Error: %v\n", err)
		case rc == 0 && options&pcre.DFARestart == 0:
			// More matches than fit: grow the vector and run again.
			d.ovector = make([]int, 2*len(d.ovector))
			glog.V(1).Infof("dfa: ovector grown to %d", len(d.ovector))
			continue
		default:
			if rc == 0 {
				rc = len(d.ovector) / 2
			}
			printPairs(d.w, subject, d.ovector[:2*rc])
		}
		return
	}
}
