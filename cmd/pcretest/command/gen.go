package command

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/dave/jennifer/jen"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

const pcrePath = "github.com/coregx/pcre"

type genOptions struct {
	pkg  string
	fn   string
	out  string
	expr string
}

func newGen() *cobra.Command {
	var (
		cf   compileFlags
		opts genOptions
	)
	cmd := &cobra.Command{
		Use:   "gen PATTERN",
		Short: "Generate Go source that embeds a compiled pattern",
		Long: `Compile PATTERN and write a Go file that holds the compiled form and a
function returning the loaded *pcre.Regexp, so programs skip compilation at
start-up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.expr = args[0]
			re, err := cf.compile(opts.expr)
			if err != nil {
				return err
			}
			data, err := re.MarshalBinary()
			if err != nil {
				return err
			}
			f, err := generate(opts, data)
			if err != nil {
				return err
			}
			if opts.out == "" {
				return f.Render(cmd.OutOrStdout())
			}
			if err := f.Save(opts.out); err != nil {
				return fmt.Errorf("failed to save file: %w", err)
			}
			glog.V(1).Infof("gen: wrote %s (%d bytes of code)", opts.out, len(data))
			return nil
		},
	}
	cf.register(cmd.Flags())
	fs := cmd.Flags()
	fs.StringVar(&opts.pkg, "package", "main", "package name of the generated file")
	fs.StringVar(&opts.fn, "func", "Pattern", "name of the generated accessor")
	fs.StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	return cmd
}

// generate builds a file declaring an unexported variable loaded from data
// and an accessor named opts.fn returning it.
func generate(opts genOptions, data []byte) (*jen.File, error) {
	if !isIdent(opts.pkg) {
		return nil, fmt.Errorf("invalid package name %q", opts.pkg)
	}
	if !isIdent(opts.fn) {
		return nil, fmt.Errorf("invalid function name %q", opts.fn)
	}
	varName := lowerFirst(opts.fn) + "Regexp"

	f := jen.NewFile(opts.pkg)
	f.HeaderComment("Code generated by pcretest gen. DO NOT EDIT.")

	f.Comment(fmt.Sprintf("%s is compiled from %q.", varName, opts.expr))
	f.Var().Id(varName).Op("=").Qual(pcrePath, "MustLoad").Call(
		jen.Index().Byte().Parens(jen.Lit(string(data))),
	)

	f.Comment(fmt.Sprintf("%s returns the compiled form of %q.", opts.fn, opts.expr))
	f.Func().Id(opts.fn).Params().Op("*").Qual(pcrePath, "Regexp").Block(
		jen.Return(jen.Id(varName)),
	)
	return f, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !unicode.IsLetter(r) && r != '_' && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}
