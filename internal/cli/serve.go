package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/tradeverifyd/dag-ucan/internal/httpapi"
)

type serveOptions struct {
	host string
	port int
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the UCAN issuance/verification HTTP service",
		Long: `Start the UCAN HTTP service.

This command starts an HTTP server that can issue, verify, and resolve
UCAN tokens:
  - POST /issue          - Issue a new token
  - POST /verify         - Verify a token's signature and time validity
  - GET /resolve/{cid}   - Resolve a previously issued/verified token
  - GET /health          - Service health

Example:
  ucan serve --config ucan.yaml
  ucan serve --host 0.0.0.0 --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "host to bind to (overrides config)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "port to listen on (overrides config)")

	return cmd
}

func runServe(opts *serveOptions) error {
	c := GetConfig()
	if c == nil {
		return fmt.Errorf("no configuration loaded - use --config flag or create ucan.yaml")
	}

	if opts.host != "" {
		c.Server.Host = opts.host
	}
	if opts.port != 0 {
		c.Server.Port = opts.port
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if verbose {
		fmt.Println("Starting UCAN service...")
		fmt.Printf("  Issuer:   %s\n", c.Issuer)
		fmt.Printf("  Database: %s\n", c.Database.Path)
		fmt.Printf("  Storage:  %s (%s)\n", c.Storage.Type, c.Storage.Path)
		fmt.Printf("  Server:   %s:%d\n", c.Server.Host, c.Server.Port)
	}

	srv, err := httpapi.NewServer(c)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	log.Fatal(srv.Start())
	return nil
}
