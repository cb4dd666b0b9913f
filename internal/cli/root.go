// Package cli implements the ucan command-line tool: a cobra command
// tree for generating keys, issuing and verifying tokens, and running
// the HTTP service.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradeverifyd/dag-ucan/internal/config"
)

// Global flags
var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// NewRootCommand creates the root cobra command.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ucan",
		Short: "UCAN token CLI",
		Long: `ucan is a command-line tool for the User-Controlled Authorization
Network token format.

It provides tools for:
  - Generating did:key signing identities
  - Issuing capability tokens
  - Parsing and inspecting tokens (JWT or DAG-CBOR)
  - Verifying token signatures and time validity
  - Computing a token's CID
  - Running the HTTP issuance/verification service`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ucan.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewKeygenCommand())
	rootCmd.AddCommand(NewIssueCommand())
	rootCmd.AddCommand(NewParseCommand())
	rootCmd.AddCommand(NewVerifyCommand())
	rootCmd.AddCommand(NewLinkCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// initConfig loads configuration from file.
func initConfig() {
	if cfgFile == "" {
		if _, err := os.Stat("ucan.yaml"); err == nil {
			cfgFile = "ucan.yaml"
		} else if _, err := os.Stat("ucan.yml"); err == nil {
			cfgFile = "ucan.yml"
		}
	}

	if cfgFile != "" {
		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			if verbose {
				fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
			}
		}
	}
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return cfg
}
