// pkg/layout/layout.go
package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	PairedDates = "paired-dates"
	SplitDates  = "split-dates"
	Default     = PairedDates
)

var presets = map[string]ColumnLayout{
	// certified and expiry dates share one cell
	PairedDates: {
		Name:             PairedDates,
		MinCells:         6,
		CertificateID:    1,
		DeviceIdentifier: 2,
		ModelName:        3,
		ModelVersion:     4,
		Dates:            5,
		Expiry:           -1,
	},
	// expiry date has its own column
	SplitDates: {
		Name:             SplitDates,
		MinCells:         8,
		CertificateID:    1,
		DeviceIdentifier: 2,
		ModelName:        3,
		ModelVersion:     4,
		Dates:            5,
		Expiry:           6,
	},
}

// Get returns a built-in layout by name.
func Get(name string) (ColumnLayout, error) {
	l, ok := presets[name]
	if !ok {
		return ColumnLayout{}, fmt.Errorf("unknown column layout %q", name)
	}
	return l, nil
}

// Names lists the built-in layouts.
func Names() []string {
	return []string{PairedDates, SplitDates}
}

func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse layout file %s: %w", path, err)
	}
	for _, l := range set.Layouts {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("layout file %s: %w", path, err)
		}
	}
	return &set, nil
}

// Find returns the named layout from the set.
func (s *Set) Find(name string) (ColumnLayout, bool) {
	for _, l := range s.Layouts {
		if l.Name == name {
			return l, true
		}
	}
	return ColumnLayout{}, false
}

// Resolve picks the layout called name, looking in the file at path first
// (when path is set) and then in the built-in presets.
func Resolve(name, path string) (ColumnLayout, error) {
	if name == "" {
		name = Default
	}
	if path != "" {
		set, err := Load(path)
		if err != nil {
			return ColumnLayout{}, err
		}
		if l, ok := set.Find(name); ok {
			return l, nil
		}
	}
	return Get(name)
}

func (l ColumnLayout) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("layout name is required")
	}
	if l.MinCells < 1 {
		return fmt.Errorf("layout %s: minCells must be positive", l.Name)
	}
	fields := map[string]int{
		"certificateId":    l.CertificateID,
		"deviceIdentifier": l.DeviceIdentifier,
		"modelName":        l.ModelName,
		"modelVersion":     l.ModelVersion,
		"dates":            l.Dates,
		"expiry":           l.Expiry,
	}
	for field, idx := range fields {
		if idx >= l.MinCells {
			return fmt.Errorf("layout %s: %s index %d is outside minCells %d", l.Name, field, idx, l.MinCells)
		}
	}
	if l.ModelName < 0 {
		return fmt.Errorf("layout %s: modelName column is required", l.Name)
	}
	return nil
}

// Cell returns the trimmed text of cell idx, or "" when the column is
// absent or the row is too short.
func (l ColumnLayout) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
