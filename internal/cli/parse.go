package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradeverifyd/dag-ucan/pkg/ucan"
)

type parseOptions struct {
	file string
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [token]",
		Short: "Parse a UCAN (JWT or DAG-CBOR) and print its claims as JSON",
		Long: `Parse a UCAN from a JWT string or DAG-CBOR bytes and print its
claims as DAG-JSON.

Example:
  ucan parse eyJhbGciOi...
  ucan parse --file token.cbor`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "read the token from a file instead of an argument")

	return cmd
}

func runParse(opts *parseOptions, args []string) error {
	data, err := readTokenInput(opts.file, args)
	if err != nil {
		return err
	}
	data = bytes.TrimSpace(data)

	view, err := ucan.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to parse ucan: %w", err)
	}

	claims, err := view.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to render claims: %w", err)
	}

	out, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal claims: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
