// Package region holds the fixed catalog of named macro-regions.
package region

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var regionsYAML []byte

// Region is a named list of ISO-3 country codes.
type Region struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	ISO         []string `yaml:"iso"`
}

type file struct {
	Regions []Region `yaml:"regions"`
}

var builtin = mustParse(regionsYAML)

func mustParse(data []byte) map[string]Region {
	m, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("region: embedded catalog: %v", err))
	}
	return m
}

// Parse decodes a region catalog. Names are case-insensitive.
func Parse(data []byte) (map[string]Region, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}
	out := make(map[string]Region, len(f.Regions))
	for _, r := range f.Regions {
		key := strings.ToLower(r.Name)
		if key == "" {
			return nil, fmt.Errorf("parse regions: region without name")
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("parse regions: duplicate region %q", r.Name)
		}
		out[key] = r
	}
	return out, nil
}

// Lookup returns the built-in region called name.
func Lookup(name string) (Region, bool) {
	r, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Region{}, false
	}
	r.ISO = append([]string(nil), r.ISO...)
	return r, true
}

// Names lists the built-in regions.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for k := range builtin {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
