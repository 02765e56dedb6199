package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/querycodec/internal/ir"
	"github.com/roach88/querycodec/internal/odata"
	"github.com/roach88/querycodec/internal/queryir"
	"github.com/roach88/querycodec/internal/querystring"
)

// Query string styles produced by the filter command.
const (
	StyleOData = "odata" // $filter=...&$top=20
	StyleCodec = "codec" // filter=s...&top=n20
)

// FilterOptions holds flags for the filter command.
type FilterOptions struct {
	*RootOptions
	Style string
}

// FilterResult is the JSON payload of the filter command.
type FilterResult struct {
	From    string `json:"from"`
	Query   string `json:"query"`
	Filter  string `json:"filter,omitempty"`
	Select  string `json:"select,omitempty"`
	OrderBy string `json:"orderby,omitempty"`
	Top     int    `json:"top,omitempty"`
	Skip    int    `json:"skip,omitempty"`
}

// NewFilterCommand creates the filter command.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "filter [file]",
		Short: "Compile a YAML query description to a query string",
		Long: `Compile the YAML query description in file (or stdin) to OData system
query options and print them as a query string.

With --style codec the options are written as a typed query string
instead, the form the list command sends.

Example:
  querycodec filter query.yaml
  # $filter=City%20eq%20'Paris'&$top=20`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Style, "style", StyleOData, "query string style (odata|codec)")

	return cmd
}

func runFilter(opts *FilterOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Style != StyleOData && opts.Style != StyleCodec {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric,
			fmt.Errorf("invalid style %q: must be %s or %s", opts.Style, StyleOData, StyleCodec))
	}

	doc, warnings, code, err := loadQueryDoc(cmd, args)
	if err != nil {
		return formatter.Fail(exitCodeFor(code), code, err)
	}

	compiled, err := compileQueryDoc(doc)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeCompileFailed, err)
	}
	formatter.VerboseLog("Compiled query on %s with %d alias(es)", compiled.From, len(compiled.Aliases))

	query := compiled.Encode()
	if opts.Style == StyleCodec {
		query = querystring.Encode(compiled.Value())
	}

	result := FilterResult{
		From:    compiled.From,
		Query:   query,
		Filter:  compiled.Filter,
		Select:  compiled.Select,
		OrderBy: compiled.OrderBy,
		Top:     compiled.Top,
		Skip:    compiled.Skip,
	}
	return formatter.SuccessWithWarnings(result, query, warnings)
}

// loadQueryDoc reads and validates a query description. Validation
// problems are returned as warnings; the compiler rejects what it cannot
// express.
func loadQueryDoc(cmd *cobra.Command, args []string) (QueryDoc, []string, string, error) {
	v, code, err := readYAML(cmd, args)
	if err != nil {
		return QueryDoc{}, nil, code, err
	}
	doc, err := parseQueryDoc(v)
	if err != nil {
		return QueryDoc{}, nil, ErrCodeInvalidQuery, err
	}
	return doc, queryir.Validate(doc.Query).Warnings, "", nil
}

func compileQueryDoc(doc QueryDoc) (odata.Options, error) {
	return newCompiler(doc.Params).Compile(doc.Query)
}

func newCompiler(params map[string]ir.Value) *odata.Compiler {
	c := odata.NewCompiler()
	for name, v := range params {
		c.BoundValues[name] = v
	}
	return c
}

// exitCodeFor maps input error codes to exit codes: unreadable input is
// a command error, unusable content a failure.
func exitCodeFor(code string) int {
	switch code {
	case ErrCodeReadFailed, ErrCodeNotFound:
		return ExitCommandError
	default:
		return ExitFailure
	}
}
