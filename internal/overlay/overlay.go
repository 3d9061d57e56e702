// Package overlay supplies the comparison column set drawn next to the
// primary series: a bundled example drive or the cached snapshot slot.
package overlay

import (
	_ "embed"
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/obd2-sampler/backend/internal/models"
	"github.com/obd2-sampler/backend/internal/parser"
	"github.com/obd2-sampler/backend/internal/storage"
)

//go:embed example.yaml
var exampleYAML []byte

// Source selects where the overlay column set comes from.
type Source string

const (
	SourceExample Source = "example"
	SourceCached  Source = "cached"
)

// ParseSource accepts "example" or "cached" (case-insensitive).
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceExample:
		return SourceExample, nil
	case SourceCached:
		return SourceCached, nil
	}
	return "", fmt.Errorf("unknown overlay source %q", s)
}

type exampleFile struct {
	Name    string `yaml:"name"`
	Columns []struct {
		Name   string   `yaml:"name"`
		Values []string `yaml:"values"`
	} `yaml:"columns"`
}

// LoadExample decodes a YAML dataset into a column set with computed stats.
func LoadExample(data []byte) (models.ColumnSet, error) {
	var f exampleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding example dataset: %w", err)
	}

	cols := make(models.ColumnSet, 0, len(f.Columns))
	for i, c := range f.Columns {
		cols = append(cols, parser.BuildColumn(i, c.Name, c.Values))
	}
	return cols, nil
}

// Provider resolves overlay column sets.
type Provider struct {
	snapshots storage.SnapshotStore
	slot      string
	example   models.ColumnSet
}

// NewProvider parses the bundled example and binds the snapshot slot.
func NewProvider(snapshots storage.SnapshotStore, slot string) (*Provider, error) {
	example, err := LoadExample(exampleYAML)
	if err != nil {
		return nil, err
	}
	return &Provider{snapshots: snapshots, slot: slot, example: example}, nil
}

// Slot returns the snapshot slot name used for the cached source.
func (p *Provider) Slot() string {
	return p.slot
}

// Example returns the bundled column set.
func (p *Provider) Example() models.ColumnSet {
	return p.example
}

// Columns returns the column set for the given source. A cached source
// with an empty slot yields storage.ErrSnapshotNotFound.
func (p *Provider) Columns(ctx context.Context, src Source) (models.ColumnSet, error) {
	switch src {
	case SourceExample:
		return p.example, nil
	case SourceCached:
		snap, err := p.snapshots.Load(ctx, p.slot)
		if err != nil {
			return nil, err
		}
		return snap.Columns, nil
	}
	return nil, fmt.Errorf("unknown overlay source %q", src)
}

// Match picks the overlay column for a primary column: same name first,
// then same index.
func Match(primary models.Column, overlay models.ColumnSet) (models.Column, bool) {
	if c, ok := overlay.ByName(primary.Name); ok {
		return c, true
	}
	return overlay.ByIndex(primary.Index)
}
