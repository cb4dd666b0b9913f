package cli

import (
	"fmt"
	"io"
	"os"
)

// readTokenInput reads a token from a --file flag, a positional
// argument, or stdin, in that order of preference.
func readTokenInput(file string, args []string) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}
	if len(args) > 0 {
		return []byte(args[0]), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read token from stdin: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no token given: pass --file, a positional argument, or pipe it on stdin")
	}
	return data, nil
}
