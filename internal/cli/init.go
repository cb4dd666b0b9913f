package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tradeverifyd/dag-ucan/internal/store"
	"github.com/tradeverifyd/dag-ucan/pkg/blockstore"
	"github.com/tradeverifyd/dag-ucan/pkg/signer"
)

type initOptions struct {
	dir         string
	dbPath      string
	storagePath string
	force       bool
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new UCAN service directory",
		Long: `Initialize a new UCAN service directory.

This command creates:
  - A new Ed25519 did:key signing identity
  - An SQLite token cache
  - A block store directory
  - A configuration file (ucan.yaml)

Example:
  ucan init --dir ./demo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitCmd(opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", ".", "directory to initialize the service in")
	cmd.Flags().StringVar(&opts.dbPath, "db", "ucan.db", "path to SQLite token cache")
	cmd.Flags().StringVar(&opts.storagePath, "storage", "./blocks", "path to block store directory")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite existing files")

	return cmd
}

func runInitCmd(opts *initOptions) error {
	if err := os.MkdirAll(opts.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	dbPath := filepath.Join(opts.dir, opts.dbPath)
	if _, err := os.Stat(dbPath); err == nil && !opts.force {
		return fmt.Errorf("service already initialized (use --force to overwrite)")
	}

	if verbose {
		fmt.Println("Generating Ed25519 (EdDSA) signing identity...")
	}
	id, err := signer.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate signing identity: %w", err)
	}

	keyPath := filepath.Join(opts.dir, "private.key")
	if err := os.WriteFile(keyPath, id.ExportPrivateKey(), 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	didPath := filepath.Join(opts.dir, "did.txt")
	if err := os.WriteFile(didPath, []byte(id.DID()), 0644); err != nil {
		return fmt.Errorf("failed to write did: %w", err)
	}

	if verbose {
		fmt.Println("Initializing token cache...")
	}
	db, err := store.Open(store.Options{Path: dbPath, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to initialize token cache: %w", err)
	}
	store.Close(db)

	if verbose {
		fmt.Println("Initializing block store...")
	}
	storagePath := filepath.Join(opts.dir, opts.storagePath)
	if _, err := blockstore.NewLocalBlockstore(storagePath); err != nil {
		return fmt.Errorf("failed to initialize block store: %w", err)
	}

	if verbose {
		fmt.Println("Writing configuration file...")
	}
	configYAML := fmt.Sprintf(`# UCAN service configuration

# This service's own did:key identity
issuer: %s

# Default token lifetime when issuance doesn't override it
default_lifetime_seconds: 30

# Token cache
database:
  path: %s
  enable_wal: true

# Content-addressed block store
storage:
  type: local
  path: %s

# Signing identity
keys:
  private: private.key
  public: did.txt

# HTTP server configuration
server:
  host: 0.0.0.0
  port: 8080
  cors:
    enabled: true
    allowed_origins:
      - "*"
`, id.DID(), opts.dbPath, opts.storagePath)

	configPath := filepath.Join(opts.dir, "ucan.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Println("✓ UCAN service initialized")
	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("  Issuer:      %s\n", id.DID())
	fmt.Printf("  Database:    %s\n", dbPath)
	fmt.Printf("  Storage:     %s\n", storagePath)
	fmt.Printf("  Private Key: %s\n", keyPath)
	fmt.Printf("  DID file:    %s\n", didPath)
	fmt.Printf("  Config:      %s\n", configPath)
	fmt.Printf("\nTo start the service, run:\n")
	fmt.Printf("  ucan serve --config %s\n", configPath)

	return nil
}
