package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coregx/pcre"
	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/syntax"
)

func newInfo() *cobra.Command {
	var (
		cf   compileFlags
		code bool
	)
	cmd := &cobra.Command{
		Use:   "info PATTERN",
		Short: "Print information about a compiled pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			re, err := cf.compile(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printInfo(w, re.Info())
			if code {
				p, err := syntax.Compile(args[0], cf.options(), nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "------------------------------------------------------------------")
				for _, line := range bytecode.Disassemble(p.Code, p.UTF8()) {
					fmt.Fprintln(w, line)
				}
			}
			return nil
		},
	}
	cf.register(cmd.Flags())
	cmd.Flags().BoolVar(&code, "code", false, "also print the compiled code")
	return cmd
}

var optionNames = []struct {
	opt  pcre.Option
	name string
}{
	{pcre.Anchored, "anchored"},
	{pcre.Caseless, "caseless"},
	{pcre.Extended, "extended"},
	{pcre.Multiline, "multiline"},
	{pcre.DotAll, "dotall"},
	{pcre.DollarEndOnly, "dollar_endonly"},
	{pcre.Extra, "extra"},
	{pcre.Ungreedy, "ungreedy"},
	{pcre.NoAutoCapture, "no_auto_capture"},
	{pcre.UTF8, "utf8"},
	{pcre.FirstLine, "firstline"},
}

func printInfo(w io.Writer, info pcre.Info) {
	fmt.Fprintf(w, "Capturing subpattern count = %d\n", info.CaptureCount)
	if info.BackrefMax > 0 {
		fmt.Fprintf(w, "Max back reference = %d\n", info.BackrefMax)
	}
	if len(info.Names) > 0 {
		fmt.Fprintln(w, "Named capturing subpatterns:")
		for _, e := range info.Names {
			fmt.Fprintf(w, "  %s %3d\n", e.Name, e.Number)
		}
	}
	if info.NoPartial {
		fmt.Fprintln(w, "Partial matching not supported")
	}

	var names []string
	for _, o := range optionNames {
		if info.Options&o.opt != 0 {
			names = append(names, o.name)
		}
	}
	if len(names) > 0 {
		fmt.Fprintf(w, "Options: %s\n", strings.Join(names, " "))
	} else {
		fmt.Fprintln(w, "No options")
	}

	switch {
	case info.FirstByte >= 0:
		fmt.Fprintf(w, "First char = %s%s\n", charString(info.FirstByte), caselessSuffix(info.FirstCaseless))
	case info.StartLine:
		fmt.Fprintln(w, "First char at start or follows newline")
	case info.Anchored:
		// Reported through the options line.
	default:
		fmt.Fprintln(w, "No first char")
	}
	if info.ReqByte >= 0 {
		fmt.Fprintf(w, "Need char = %s%s\n", charString(info.ReqByte), caselessSuffix(info.ReqCaseless))
	} else {
		fmt.Fprintln(w, "No need char")
	}

	if info.StartBits != nil {
		var set []string
		for c := 0; c < 256; c++ {
			if info.StartBits[c/8]&(1<<(c%8)) != 0 {
				set = append(set, charString(c))
			}
		}
		fmt.Fprintf(w, "Starting byte set: %s\n", strings.Join(set, " "))
	}
	fmt.Fprintf(w, "Memory allocation (code space): %d\n", info.Size)
}

func charString(c int) string {
	if c > 32 && c < 127 {
		return string(rune(c))
	}
	return fmt.Sprintf(`\x%02x`, c)
}

func caselessSuffix(caseless bool) string {
	if caseless {
		return " (caseless)"
	}
	return ""
}
