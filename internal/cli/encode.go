package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/querycodec/internal/querystring"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Escaped bool
}

// EncodeResult is the JSON payload of the encode command.
type EncodeResult struct {
	Encoded string `json:"encoded"`
	Mode    string `json:"mode"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode a YAML value as a query string",
		Long: `Encode the YAML document in file (or stdin) as a typed query string.

Mapping order is kept. Use the !undefined and !func tags for values plain
YAML cannot express.

Example:
  echo '{sort: name, page: 2, asc: true}' | querycodec encode
  # sort=sname&page=n2&asc=btrue`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Escaped, "escaped", false, "escape delimiters of nested values")

	return cmd
}

func runEncode(opts *EncodeOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	v, code, err := readYAML(cmd, args)
	if err != nil {
		return formatter.Fail(exitCodeFor(code), code, err)
	}

	codec := querystring.New(querystring.WithMode(modeOf(opts.Escaped)))
	encoded := codec.Encode(v)
	formatter.VerboseLog("Encoded %d byte(s) in %s mode", len(encoded), codec.Mode())

	return formatter.Success(EncodeResult{Encoded: encoded, Mode: codec.Mode().String()}, encoded)
}

func modeOf(escaped bool) querystring.Mode {
	if escaped {
		return querystring.ModeEscaped
	}
	return querystring.ModeCompat
}
