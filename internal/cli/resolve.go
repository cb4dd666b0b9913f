package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradeverifyd/dag-ucan/pkg/link"
	"github.com/tradeverifyd/dag-ucan/pkg/ucan"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <cid>",
		Short: "Resolve a UCAN from the configured block store by its CID",
		Long: `Look up a previously written UCAN in the configured block store by
its CID and print its claims as JSON.

Example:
  ucan resolve bafyrei... --config ucan.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(args[0])
		},
	}

	return cmd
}

func runResolve(cidStr string) error {
	c := GetConfig()
	if c == nil {
		return fmt.Errorf("no configuration loaded - use --config flag or create ucan.yaml")
	}

	l, err := link.Parse(cidStr)
	if err != nil {
		return fmt.Errorf("invalid cid: %w", err)
	}

	bs, err := openConfiguredBlockstore(c)
	if err != nil {
		return err
	}

	data, err := bs.Get(l)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", cidStr, err)
	}
	if data == nil {
		return fmt.Errorf("%s not found", cidStr)
	}

	view, err := ucan.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to decode resolved ucan: %w", err)
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
