package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/querycodec/internal/funceval"
	"github.com/roach88/querycodec/internal/ir"
	"github.com/roach88/querycodec/internal/querystring"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Escaped   bool
	Output    string // "yaml" | "json"
	EvalFuncs bool
}

// DecodeResult is the JSON payload of the decode command.
type DecodeResult struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode [encoded]",
		Short: "Decode a query string",
		Long: `Decode a typed query string (the argument, or the first line of stdin)
and print the value as YAML or JSON.

Function values are rejected unless --eval-funcs is given, since decoding
them compiles their source.

Example:
  querycodec decode 'sort=sname&page=n2&asc=btrue'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Escaped, "escaped", false, "input was encoded with --escaped")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "yaml", "value syntax for text output (yaml|json)")
	cmd.Flags().BoolVar(&opts.EvalFuncs, "eval-funcs", false, "compile function values")

	return cmd
}

func runDecode(opts *DecodeOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Output != "yaml" && opts.Output != "json" {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric,
			fmt.Errorf("invalid output %q: must be yaml or json", opts.Output))
	}

	encoded, err := readLine(cmd, args)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err)
	}

	codecOpts := []querystring.Option{querystring.WithMode(modeOf(opts.Escaped))}
	if opts.EvalFuncs {
		codecOpts = append(codecOpts, querystring.WithFuncEvaluator(funceval.New()))
	}
	v, err := querystring.New(codecOpts...).Decode(encoded)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeDecodeFailed, err)
	}

	data, err := ir.MarshalValue(v)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}

	text := string(data)
	if opts.Output == "yaml" {
		out, err := ir.ToYAML(v)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
		}
		text = string(out)
	}

	return formatter.Success(DecodeResult{Kind: ir.Kind(v), Value: data}, text)
}
