package snapshot

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source fetches a complete catalog snapshot.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Snapshot, error)
}

// FileSource reads a snapshot from a YAML file. JSON files parse as well.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource { return &FileSource{Path: path} }

func (f *FileSource) Name() string { return "file:" + f.Path }

func (f *FileSource) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", f.Path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// StaticSource serves a fixed snapshot.
type StaticSource struct {
	Label    string
	Snapshot *Snapshot
}

func (s StaticSource) Name() string { return s.Label }

func (s StaticSource) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Snapshot, nil
}
