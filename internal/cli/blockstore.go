package cli

import (
	"fmt"

	"github.com/tradeverifyd/dag-ucan/internal/config"
	"github.com/tradeverifyd/dag-ucan/pkg/blockstore"
)

func openConfiguredBlockstore(c *config.Config) (blockstore.Blockstore, error) {
	switch c.Storage.Type {
	case "memory":
		return blockstore.NewMemoryBlockstore(), nil
	case "local":
		bs, err := blockstore.NewLocalBlockstore(c.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open block store: %w", err)
		}
		return bs, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
}
