package blockstore

import (
	"fmt"
	"sync"

	"github.com/tradeverifyd/dag-ucan/pkg/link"
)

// MemoryBlockstore is an in-memory Blockstore, mainly for tests and
// the `ucan serve` dev mode.
type MemoryBlockstore struct {
	mu     sync.RWMutex
	blocks map[string]*memBlock
}

type memBlock struct {
	link *link.Link
	data []byte
}

// NewMemoryBlockstore creates a new in-memory block store.
func NewMemoryBlockstore() *MemoryBlockstore {
	return &MemoryBlockstore{
		blocks: make(map[string]*memBlock),
	}
}

// Get retrieves the bytes addressed by l.
func (s *MemoryBlockstore) Get(l *link.Link) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.blocks[l.String()]
	if !exists {
		return nil, nil
	}

	// Return a copy to prevent external modification
	result := make([]byte, len(b.data))
	copy(result, b.data)
	return result, nil
}

// Put stores data under the block's CID.
func (s *MemoryBlockstore) Put(l *link.Link, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external modification
	stored := make([]byte, len(data))
	copy(stored, data)
	s.blocks[l.String()] = &memBlock{link: l, data: stored}
	return nil
}

// Delete removes the block addressed by l.
func (s *MemoryBlockstore) Delete(l *link.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blocks, l.String())
	return nil
}

// Exists reports whether l is present.
func (s *MemoryBlockstore) Exists(l *link.Link) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.blocks[l.String()]
	return exists, nil
}

// List returns the CIDs of every block currently stored.
func (s *MemoryBlockstore) List() ([]*link.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := make([]*link.Link, 0, len(s.blocks))
	for _, b := range s.blocks {
		links = append(links, b.link)
	}
	return links, nil
}

// Size returns the number of blocks in the store (for testing).
func (s *MemoryBlockstore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// Clear removes all blocks (for testing).
func (s *MemoryBlockstore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = make(map[string]*memBlock)
}

// String returns a debug string representation.
func (s *MemoryBlockstore) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("MemoryBlockstore{blocks: %d}", len(s.blocks))
}
