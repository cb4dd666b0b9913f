package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradeverifyd/dag-ucan/pkg/signer"
)

type keygenOptions struct {
	privateKeyPath string
	didPath        string
}

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand() *cobra.Command {
	opts := &keygenOptions{
		privateKeyPath: "private.key",
		didPath:        "did.txt",
	}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new did:key Ed25519 signing identity",
		Long: `Generate a new Ed25519 key pair and derive its did:key identity.

By default, this writes:
  - private.key (raw 64-byte Ed25519 private key)
  - did.txt     (the did:key public identity string)

Example:
  ucan keygen
  ucan keygen --private-key mykey.key --did mykey.did.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(opts)
		},
	}

	cmd.Flags().StringVar(&opts.privateKeyPath, "private-key", opts.privateKeyPath, "path to save the private key (raw bytes)")
	cmd.Flags().StringVar(&opts.didPath, "did", opts.didPath, "path to save the did:key identity")

	return cmd
}

func runKeygen(opts *keygenOptions) error {
	if verbose {
		fmt.Println("Generating Ed25519 (EdDSA) key pair...")
	}

	id, err := signer.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	if err := os.WriteFile(opts.privateKeyPath, id.ExportPrivateKey(), 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(opts.didPath, []byte(id.DID()), 0644); err != nil {
		return fmt.Errorf("failed to write did: %w", err)
	}

	fmt.Printf("✓ Key pair generated successfully\n")
	fmt.Printf("  DID:         %s\n", id.DID())
	fmt.Printf("  Algorithm:   EdDSA (Ed25519)\n")
	fmt.Printf("  Private key: %s\n", opts.privateKeyPath)
	fmt.Printf("  DID file:    %s\n", opts.didPath)

	return nil
}
