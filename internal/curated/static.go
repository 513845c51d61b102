package curated

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var embeddedData []byte

// StaticSource serves the curated dataset compiled into the binary. It is the
// terminal source in the chain and never errors after construction.
type StaticSource struct {
	entries map[string]*Entry
}

// NewStaticSource parses the embedded dataset.
func NewStaticSource() (*StaticSource, error) {
	entries := make(map[string]*Entry)
	if err := yaml.Unmarshal(embeddedData, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse embedded curated data: %w", err)
	}
	normalized := make(map[string]*Entry, len(entries))
	for symbol, entry := range entries {
		normalized[strings.ToUpper(symbol)] = entry
	}
	return &StaticSource{entries: normalized}, nil
}

// Entry implements Source.
func (s *StaticSource) Entry(_ context.Context, symbol string) (*Entry, error) {
	return s.entries[strings.ToUpper(symbol)], nil
}

// Name implements Source.
func (s *StaticSource) Name() string { return "static" }

// Symbols lists every symbol in the embedded dataset.
func (s *StaticSource) Symbols() []string {
	out := make([]string, 0, len(s.entries))
	for symbol := range s.entries {
		out = append(out, symbol)
	}
	return out
}
