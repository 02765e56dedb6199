package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/querycodec/internal/odata"
)

// EscapeOptions holds flags for the escape command.
type EscapeOptions struct {
	*RootOptions
	Quote bool
}

// EscapeResult is the JSON payload of the escape command.
type EscapeResult struct {
	Input   string `json:"input"`
	Escaped string `json:"escaped"`
}

// NewEscapeCommand creates the escape command.
func NewEscapeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EscapeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "escape [text]",
		Short: "Escape text for an OData string literal",
		Long: `Escape text (the argument, or all of stdin less one trailing line
break) for use inside a quoted OData string literal in a URL. Line breaks
inside the text are kept and escaped.

Example:
  querycodec escape --quote "O'Brien & Sons"
  # 'O''Brien%20%26%20Sons'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEscape(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Quote, "quote", "q", false, "wrap the result in single quotes")

	return cmd
}

func runEscape(opts *EscapeOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	text, err := readText(cmd, args)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err)
	}

	escaped := odata.EscapeLiteral(text)
	if opts.Quote {
		escaped = odata.Quote(text)
	}
	return formatter.Success(EscapeResult{Input: text, Escaped: escaped}, escaped)
}
