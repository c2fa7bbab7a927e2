package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UnmappedFaculty is assigned to departments absent from the mapping, so
// they stand out in the review sheets instead of vanishing.
const UnmappedFaculty = "Unmapped"

// Mapper looks up the faculty for a department name.
type Mapper func(department string) string

// NewMapper wraps a mapping table in a Mapper with the Unmapped default.
func NewMapper(table map[string]string) Mapper {
	return func(department string) string {
		if fac, ok := table[department]; ok {
			return fac
		}
		return UnmappedFaculty
	}
}

// LoadMapping reads a department→faculty mapping file. The format follows
// the extension: .json, or .yaml/.yml.
func LoadMapping(path string) (Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	table := make(map[string]string)
	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported mapping format %q (want .json, .yaml or .yml)", ext)
	}
	return NewMapper(table), nil
}
