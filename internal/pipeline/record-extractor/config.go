// internal/pipeline/record-extractor/config.go
package recordextractor

import (
	"fmt"

	"ksel-bot/internal/common/config"
	"ksel-bot/pkg/layout"
)

const (
	ModeAll   = "all"
	ModeExact = "exact"
)

type Config struct {
	Mode    string
	MaxRows int
	Layout  layout.ColumnLayout
}

// LoadConfig resolves the configured column layout, reading the layout file
// when one is set.
func LoadConfig(ec config.ExtractorConfig) (*Config, error) {
	l, err := layout.Resolve(ec.Layout, ec.LayoutFile)
	if err != nil {
		return nil, fmt.Errorf("resolve column layout: %w", err)
	}
	mode := ec.Mode
	if mode == "" {
		mode = ModeAll
	}
	maxRows := ec.MaxRows
	if maxRows <= 0 {
		maxRows = 10
	}
	return &Config{Mode: mode, MaxRows: maxRows, Layout: l}, nil
}
