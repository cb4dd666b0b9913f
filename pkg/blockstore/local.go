package blockstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tradeverifyd/dag-ucan/pkg/link"
)

// LocalBlockstore implements Blockstore using the local filesystem,
// one file per block. Blocks are sharded into subdirectories keyed by
// the last two characters of the CID's text form, so a store holding
// many blocks never lists one flat directory.
type LocalBlockstore struct {
	basePath string
}

// NewLocalBlockstore creates a new local filesystem block store.
func NewLocalBlockstore(basePath string) (*LocalBlockstore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalBlockstore{
		basePath: basePath,
	}, nil
}

// shardPath returns the sharded filesystem path for a CID.
func (s *LocalBlockstore) shardPath(l *link.Link) string {
	cid := l.String()
	shard := cid
	if len(cid) > 2 {
		shard = cid[len(cid)-2:]
	}
	return filepath.Join(s.basePath, shard, cid+".block")
}

// Put stores data under the block's CID.
func (s *LocalBlockstore) Put(l *link.Link, data []byte) error {
	filePath := s.shardPath(l)
	dir := filepath.Dir(filePath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create shard directory for %s: %w", l, err)
	}

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file for %s: %w", l, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file for %s: %w", l, err)
	}

	return nil
}

// Get retrieves the bytes addressed by l.
func (s *LocalBlockstore) Get(l *link.Link) ([]byte, error) {
	filePath := s.shardPath(l)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Return nil for not found, not an error
		}
		return nil, fmt.Errorf("failed to read block %s: %w", l, err)
	}

	return data, nil
}

// Delete removes the block addressed by l.
func (s *LocalBlockstore) Delete(l *link.Link) error {
	filePath := s.shardPath(l)

	err := os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete block %s: %w", l, err)
	}

	return nil
}

// Exists reports whether l is present.
func (s *LocalBlockstore) Exists(l *link.Link) (bool, error) {
	filePath := s.shardPath(l)

	_, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat block %s: %w", l, err)
	}

	return true, nil
}

// List returns the CIDs of every block currently stored, parsed back
// from their `.block` filenames.
func (s *LocalBlockstore) List() ([]*link.Link, error) {
	var links []*link.Link

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return err
		}
		if info.IsDir() {
			return nil
		}

		name := filepath.Base(path)
		const suffix = ".block"
		if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
			return nil
		}
		cidText := name[:len(name)-len(suffix)]

		l, err := link.Parse(cidText)
		if err != nil {
			// Not one of our blocks; skip rather than fail the walk.
			return nil
		}
		links = append(links, l)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return links, nil
}

// Size returns the number of blocks in the store (for testing).
func (s *LocalBlockstore) Size() (int, error) {
	links, err := s.List()
	if err != nil {
		return 0, err
	}
	return len(links), nil
}

// Clear removes all blocks (for testing).
func (s *LocalBlockstore) Clear() error {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(s.basePath, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	return nil
}

// CopyFrom copies a block from another store into this one.
func (s *LocalBlockstore) CopyFrom(source Blockstore, l *link.Link) error {
	data, err := source.Get(l)
	if err != nil {
		return fmt.Errorf("failed to get from source: %w", err)
	}

	if data == nil {
		return fmt.Errorf("block not found in source: %s", l)
	}

	if err := s.Put(l, data); err != nil {
		return fmt.Errorf("failed to put to destination: %w", err)
	}

	return nil
}

// OpenReader returns a reader for streaming a large block.
func (s *LocalBlockstore) OpenReader(l *link.Link) (io.ReadCloser, error) {
	filePath := s.shardPath(l)

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("block not found: %s", l)
		}
		return nil, fmt.Errorf("failed to open block %s: %w", l, err)
	}

	return file, nil
}

// String returns a debug string representation.
func (s *LocalBlockstore) String() string {
	size, _ := s.Size()
	return fmt.Sprintf("LocalBlockstore{basePath: %s, blocks: %d}", s.basePath, size)
}
