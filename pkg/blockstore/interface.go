// Package blockstore provides content-addressed storage for encoded
// UCAN tokens, keyed directly by their CID (pkg/link) rather than by
// an opaque string.
package blockstore

import "github.com/tradeverifyd/dag-ucan/pkg/link"

// Blockstore is an interface for content-addressed block operations,
// keyed by CID. Implementations include the local filesystem and an
// in-memory map.
type Blockstore interface {
	// Get retrieves the bytes addressed by l.
	// Returns nil if l is not present.
	Get(l *link.Link) ([]byte, error)

	// Put stores data under the CID it is addressed by.
	Put(l *link.Link, data []byte) error

	// Delete removes the block addressed by l, if present.
	Delete(l *link.Link) error

	// Exists reports whether l is present.
	Exists(l *link.Link) (bool, error)

	// List returns the CIDs of every block currently stored.
	List() ([]*link.Link, error)
}
