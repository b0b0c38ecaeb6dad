package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FileSource reads a single Rego module from disk. An empty path yields no policies.
type FileSource struct {
	Path string
}

// Policies returns the file content, or nil when Path is empty.
func (s FileSource) Policies(ctx context.Context) ([]string, error) {
	if strings.TrimSpace(s.Path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read route policy: %w", err)
	}
	return []string{string(raw)}, nil
}

// StaticSource returns fixed module sources. Used in tests and for embedding policies.
type StaticSource []string

// Policies returns the fixed modules.
func (s StaticSource) Policies(ctx context.Context) ([]string, error) {
	return []string(s), nil
}
