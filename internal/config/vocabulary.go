package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/invoice-assistant/internal/core/extraction"
)

type vocabularyFile struct {
	DefaultRegion        string            `yaml:"default_region"`
	Layouts              []layoutFile      `yaml:"layouts"`
	KnownVendors         map[string]string `yaml:"known_vendors"`
	CatalogueBrands      []string          `yaml:"catalogue_brands"`
	CatalogueKeywords    []string          `yaml:"catalogue_keywords"`
	DescriptionStopwords []string          `yaml:"description_stopwords"`
}

type layoutFile struct {
	Name    string   `yaml:"name"`
	Markers []string `yaml:"markers"`
	Prefer  string   `yaml:"prefer"`
}

// LoadVocabulary reads the extraction word lists from a YAML file and
// overlays them on the built-in vocabulary. An empty path returns the
// defaults.
func LoadVocabulary(path string) (extraction.Vocabulary, error) {
	def := extraction.DefaultVocabulary()
	if strings.TrimSpace(path) == "" {
		return def, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return extraction.Vocabulary{}, fmt.Errorf("read extraction rules: %w", err)
	}
	v, err := ParseVocabulary(raw)
	if err != nil {
		return extraction.Vocabulary{}, fmt.Errorf("parse extraction rules %s: %w", path, err)
	}
	return def.Merge(v), nil
}

// ParseVocabulary decodes a vocabulary document. Unknown keys are rejected.
func ParseVocabulary(raw []byte) (extraction.Vocabulary, error) {
	var file vocabularyFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return extraction.Vocabulary{}, err
	}

	var v extraction.Vocabulary
	if file.DefaultRegion != "" {
		region, ok := extraction.ParseRegion(file.DefaultRegion)
		if !ok {
			return extraction.Vocabulary{}, fmt.Errorf("default_region: unknown region %q", file.DefaultRegion)
		}
		v.DefaultRegion = region
	}
	for i, l := range file.Layouts {
		if strings.TrimSpace(l.Name) == "" || len(l.Markers) == 0 {
			return extraction.Vocabulary{}, fmt.Errorf("layouts[%d]: name and markers are required", i)
		}
		region, ok := extraction.ParseRegion(l.Prefer)
		if !ok {
			return extraction.Vocabulary{}, fmt.Errorf("layouts[%d]: unknown region %q", i, l.Prefer)
		}
		v.Layouts = append(v.Layouts, extraction.Layout{Name: l.Name, Markers: l.Markers, Prefer: region})
	}
	for domain, name := range file.KnownVendors {
		v.KnownVendors = append(v.KnownVendors, extraction.KnownVendor{
			Domain: strings.ToLower(strings.TrimSpace(domain)),
			Name:   strings.TrimSpace(name),
		})
	}
	sortVendors(v.KnownVendors)
	v.CatalogueBrands = file.CatalogueBrands
	v.CatalogueKeywords = file.CatalogueKeywords
	v.DescriptionStopwords = file.DescriptionStopwords
	return v, nil
}

// sortVendors orders vendors by domain so matching does not depend on map
// iteration order.
func sortVendors(vendors []extraction.KnownVendor) {
	slices.SortFunc(vendors, func(a, b extraction.KnownVendor) int {
		return strings.Compare(a.Domain, b.Domain)
	})
}
