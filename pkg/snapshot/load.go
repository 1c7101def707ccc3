package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the on-disk encoding of a snapshot file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from the file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and validates a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", path, err)
	}

	snap, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", path, err)
	}
	return snap, nil
}

// Parse decodes and validates a snapshot.
func Parse(data []byte, format Format) (*Snapshot, error) {
	snap := &Snapshot{}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, snap); err != nil {
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, snap); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}
