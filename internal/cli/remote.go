package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querycodec/internal/odata"
	"github.com/roach88/querycodec/internal/rest"
	"github.com/roach88/querycodec/internal/store"
)

// RemoteOptions holds the flags shared by commands that talk to a
// service.
type RemoteOptions struct {
	*RootOptions
	BaseURL  string
	Database string // Web storage holding the session; empty = no session
	Sessions string // Session collection path

	// RequestIDs overrides the request id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RequestIDs rest.IDGenerator
}

func addRemoteFlags(cmd *cobra.Command, opts *RemoteOptions) {
	cmd.Flags().StringVar(&opts.BaseURL, "base", "", "service base URL (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite web storage holding the session")
	cmd.Flags().StringVar(&opts.Sessions, "sessions", "Sessions", "session collection path")
	_ = cmd.MarkFlagRequired("base")
}

// openClient builds a client for opts. The returned release function
// closes the web storage and must be called.
func openClient(opts *RemoteOptions, extra ...rest.ClientOption) (*rest.Client, func(), error) {
	ids := opts.RequestIDs
	if ids == nil {
		ids = rest.UUIDv7Generator{}
	}
	ic := &rest.Interceptor{RequestID: ids}

	if opts.Database == "" {
		return rest.NewClient(opts.BaseURL, ic, extra...), func() {}, nil
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, nil, err
	}
	clientOpts := append([]rest.ClientOption{rest.WithSession(&rest.SessionAuth{Storage: st})}, extra...)
	release := func() { closeStorage(opts.Database, st) }
	return rest.NewClient(opts.BaseURL, ic, clientOpts...), release, nil
}

// closeStorage closes the web storage at path. The command's result is
// already written by then, so a failure is logged rather than returned.
func closeStorage(path string, c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Error("error closing web storage", "path", path, "error", err)
	}
}

// requestFailure reports a failed service call. HTTP error statuses are
// failures; everything else is a command error.
func requestFailure(formatter *OutputFormatter, err error) error {
	var se *rest.StatusError
	if errors.As(err, &se) {
		return formatter.Fail(ExitFailure, ErrCodeRequestFailed, err)
	}
	return formatter.Fail(ExitCommandError, ErrCodeRequestFailed, err)
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	RemoteOptions
	OData bool
}

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Count    int               `json:"count"`
	NextLink string            `json:"next_link,omitempty"`
	Items    []json.RawMessage `json:"items"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RemoteOptions: RemoteOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "list [file]",
		Short: "Fetch the collection described by a YAML query",
		Long: `Compile the YAML query description in file (or stdin) and fetch its
collection. Text output prints one JSON item per line.

By default the options are sent as a typed query string; --odata sends
standard $filter/$select/... options instead.

Example:
  querycodec list --base https://crm.example.com/api --db web.db query.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args, cmd)
		},
	}

	addRemoteFlags(cmd, &opts.RemoteOptions)
	cmd.Flags().BoolVar(&opts.OData, "odata", false, "send OData system query options")

	return cmd
}

func runList(opts *ListOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	doc, warnings, code, err := loadQueryDoc(cmd, args)
	if err != nil {
		return formatter.Fail(exitCodeFor(code), code, err)
	}

	compiler := newCompiler(doc.Params)
	client, release, err := openClient(&opts.RemoteOptions, rest.WithCompiler(compiler))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorageFailed, err)
	}
	defer release()

	compiled, err := compiler.Compile(doc.Query)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeCompileFailed, err)
	}

	var env odata.Envelope
	if opts.OData {
		env, err = client.ListOData(cmd.Context(), compiled)
	} else {
		env, err = client.ListQuery(cmd.Context(), doc.Query)
	}
	if err != nil {
		return requestFailure(formatter, err)
	}

	formatter.VerboseLog("Fetched %d item(s) from %s", len(env.Value), doc.Query.From)

	items := env.Value
	if items == nil {
		items = []json.RawMessage{}
	}
	var text strings.Builder
	for _, item := range items {
		text.Write(item)
		text.WriteByte('\n')
	}
	result := ListResult{Count: len(items), NextLink: env.NextLink, Items: items}
	return formatter.SuccessWithWarnings(result, text.String(), warnings)
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoteOptions{RootOptions: rootOpts}
	var creds rest.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session in web storage",
		Long: `Post credentials to the session collection and store the returned
session in the web storage database. Later commands using the same --db
send it as their Authorization header.

The password is read from the first line of stdin.

Example:
  echo "$PASSWORD" | querycodec login --base https://crm.example.com/api --db web.db --user ann`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, creds, cmd)
		},
	}

	addRemoteFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&creds.User, "user", "", "user name (required)")
	cmd.Flags().StringVar(&creds.App, "app", "", "application name")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runLogin(opts *RemoteOptions, creds rest.Credentials, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	password, err := readLine(cmd, nil)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err)
	}
	creds.Password = password

	client, release, err := openClient(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorageFailed, err)
	}
	defer release()

	s, err := client.Login(cmd.Context(), opts.Sessions, creds)
	if err != nil {
		return requestFailure(formatter, err)
	}
	return formatter.Success(s, fmt.Sprintf("Logged in as %s", s.User))
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Long: `Delete the stored session on the server and remove it from web
storage. The local session is removed even if the server call fails.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(opts, cmd)
		},
	}

	addRemoteFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLogout(opts *RemoteOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	client, release, err := openClient(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorageFailed, err)
	}
	defer release()

	if err := client.Logout(cmd.Context(), opts.Sessions); err != nil {
		return requestFailure(formatter, err)
	}
	return formatter.Success(map[string]bool{"logged_out": true}, "Logged out")
}
