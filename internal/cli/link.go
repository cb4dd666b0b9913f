package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradeverifyd/dag-ucan/pkg/ucan"
)

type linkOptions struct {
	file string
}

// NewLinkCommand creates the link command.
func NewLinkCommand() *cobra.Command {
	opts := &linkOptions{}

	cmd := &cobra.Command{
		Use:   "link [token]",
		Short: "Print a UCAN's content-addressed CID",
		Long: `Compute and print the CID of a UCAN's own representation: DAG-CBOR
(0x71) for a canonical token, Raw (0x55) for one that retains its
original JWT bytes.

Example:
  ucan link eyJhbGciOi...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "read the token from a file instead of an argument")

	return cmd
}

func runLink(opts *linkOptions, args []string) error {
	data, err := readTokenInput(opts.file, args)
	if err != nil {
		return err
	}
	data = bytes.TrimSpace(data)

	view, err := ucan.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to decode ucan: %w", err)
	}

	l, err := ucan.Link(view, 0)
	if err != nil {
		return fmt.Errorf("failed to compute link: %w", err)
	}

	fmt.Println(l.String())
	return nil
}
