package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradeverifyd/dag-ucan/pkg/capability"
	"github.com/tradeverifyd/dag-ucan/pkg/signer"
	"github.com/tradeverifyd/dag-ucan/pkg/ucan"
)

type issueOptions struct {
	signingKey string
	audience   string
	with       string
	can        string
	nb         string
	lifetime   int64
	nonce      string
	out        string
}

// NewIssueCommand creates the issue command.
func NewIssueCommand() *cobra.Command {
	opts := &issueOptions{lifetime: 30}

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new UCAN token",
		Long: `Issue a new UCAN token granting a single capability to an audience.

Example:
  ucan issue \
    --signing-key ./private.key \
    --audience did:key:z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK \
    --with https://example.com/photos \
    --can crud/read`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssue(opts)
		},
	}

	cmd.Flags().StringVar(&opts.signingKey, "signing-key", "", "issuer's private key file (required)")
	cmd.Flags().StringVar(&opts.audience, "audience", "", "audience did (required)")
	cmd.Flags().StringVar(&opts.with, "with", "", "capability resource (required)")
	cmd.Flags().StringVar(&opts.can, "can", "", "capability ability (required)")
	cmd.Flags().StringVar(&opts.nb, "nb", "", "capability caveats, as a JSON object")
	cmd.Flags().Int64Var(&opts.lifetime, "lifetime", opts.lifetime, "token lifetime in seconds")
	cmd.Flags().StringVar(&opts.nonce, "nonce", "", "nonce value")
	cmd.Flags().StringVar(&opts.out, "out", "", "output file (default stdout)")

	cmd.MarkFlagRequired("signing-key")
	cmd.MarkFlagRequired("audience")
	cmd.MarkFlagRequired("with")
	cmd.MarkFlagRequired("can")

	return cmd
}

func runIssue(opts *issueOptions) error {
	raw, err := os.ReadFile(opts.signingKey)
	if err != nil {
		return fmt.Errorf("failed to read signing key: %w", err)
	}
	issuer, err := signer.ImportPrivateKey(raw)
	if err != nil {
		return fmt.Errorf("failed to import signing key: %w", err)
	}

	var nb any
	if opts.nb != "" {
		if err := json.Unmarshal([]byte(opts.nb), &nb); err != nil {
			return fmt.Errorf("failed to parse --nb as JSON: %w", err)
		}
	}

	view, err := ucan.Issue(ucan.IssueOptions{
		Issuer:            issuer,
		Audience:          opts.audience,
		Capabilities:      []capability.Capability{{With: opts.with, Can: opts.can, Nb: nb}},
		LifetimeInSeconds: opts.lifetime,
		Nonce:             opts.nonce,
	})
	if err != nil {
		return fmt.Errorf("failed to issue ucan: %w", err)
	}

	token, err := ucan.Format(view)
	if err != nil {
		return fmt.Errorf("failed to format ucan: %w", err)
	}

	if opts.out != "" {
		return os.WriteFile(opts.out, []byte(token), 0644)
	}
	fmt.Println(token)
	return nil
}
