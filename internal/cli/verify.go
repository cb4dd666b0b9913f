package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradeverifyd/dag-ucan/pkg/signer"
	"github.com/tradeverifyd/dag-ucan/pkg/ucan"
)

type verifyOptions struct {
	file string
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify a UCAN's signature and time validity",
		Long: `Verify a UCAN's signature against its issuer's did:key and report
whether it's expired or not yet valid.

Example:
  ucan verify eyJhbGciOi...
  ucan verify --file token.cbor`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "read the token from a file instead of an argument")

	return cmd
}

func runVerify(opts *verifyOptions, args []string) error {
	data, err := readTokenInput(opts.file, args)
	if err != nil {
		return err
	}
	data = bytes.TrimSpace(data)

	view, err := ucan.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to decode ucan: %w", err)
	}

	verifier, err := signer.NewVerifier(view.Iss().DID())
	if err != nil {
		return fmt.Errorf("failed to derive verifier from issuer: %w", err)
	}

	valid, err := ucan.VerifySignature(view, verifier)
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	expired := ucan.IsExpired(view)
	tooEarly := ucan.IsTooEarly(view)

	fmt.Printf("Issuer:        %s\n", view.Iss().DID())
	fmt.Printf("Audience:      %s\n", view.Aud().DID())
	fmt.Printf("Signature ok:  %t\n", valid)
	fmt.Printf("Expired:       %t\n", expired)
	fmt.Printf("Too early:     %t\n", tooEarly)

	if !valid || expired || tooEarly {
		return fmt.Errorf("ucan failed verification")
	}
	fmt.Println("✓ valid")
	return nil
}
