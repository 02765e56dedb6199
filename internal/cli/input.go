package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querycodec/internal/ir"
)

// maxInput bounds what is read from stdin.
const maxInput = 16 << 20

// readInput returns the contents of the file named by args[0], or stdin
// when there is no argument or it is "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxInput))
		return data, ErrCodeReadFailed, err
	}
	data, err := os.ReadFile(args[0])
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrCodeNotFound, fmt.Errorf("file not found: %s", args[0])
	}
	return data, ErrCodeReadFailed, err
}

// readYAML reads a YAML document from a file or stdin.
func readYAML(cmd *cobra.Command, args []string) (ir.Value, string, error) {
	data, code, err := readInput(cmd, args)
	if err != nil {
		return nil, code, err
	}
	v, err := ir.FromYAML(data)
	if err != nil {
		return nil, ErrCodeParseFailed, err
	}
	return v, "", nil
}

// readLine returns args[0], or the first line of stdin when it is
// missing or "-". Encoded strings never contain newlines.
func readLine(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxInput))
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// readText returns args[0], or all of stdin when it is missing or "-",
// less one trailing line break.
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxInput))
	if err != nil {
		return "", err
	}
	text, found := strings.CutSuffix(string(data), "\n")
	if found {
		text = strings.TrimSuffix(text, "\r")
	}
	return text, nil
}
