package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives synthesized documents keyed by access key.
type Sink interface {
	Put(ctx context.Context, key string, data []byte) error
}

// DefaultDir is the namespace directory used when none is configured.
const DefaultDir = "xmls"

// DirSink writes one <key>.xml file per document under Dir.
type DirSink struct {
	Dir string
}

// NewDirSink creates the namespace directory and returns a sink writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirSink{Dir: dir}, nil
}

// PathFor returns the artifact path for key.
func (s *DirSink) PathFor(key string) string {
	return filepath.Join(s.Dir, key+".xml")
}

// Put writes data to <Dir>/<key>.xml, replacing any previous artifact.
func (s *DirSink) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("put %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.PathFor(key)); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	return nil
}

// validateKey rejects keys that would escape the namespace directory.
func validateKey(key string) error {
	if key == "" {
		return errors.New("empty document key")
	}
	if key != filepath.Base(key) || key == "." || key == ".." {
		return fmt.Errorf("invalid document key %q", key)
	}
	return nil
}

// MultiSink writes to every sink in order, stopping at the first failure.
type MultiSink []Sink

// Put implements Sink.
func (m MultiSink) Put(ctx context.Context, key string, data []byte) error {
	for _, s := range m {
		if err := s.Put(ctx, key, data); err != nil {
			return err
		}
	}
	return nil
}
