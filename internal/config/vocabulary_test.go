package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/invoice-assistant/internal/core/extraction"
)

const sampleRules = `
default_region: top
layouts:
  - name: kraeuterhof
    markers: ["kräuterhof"]
    prefer: bottom
known_vendors:
  otto.de: Otto
  amazon.de: Amazon
catalogue_keywords: [tee, kräuter]
`

func TestLoadVocabularyOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o600))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)

	assert.Equal(t, extraction.RegionTop, v.DefaultRegion)
	require.Len(t, v.Layouts, 1)
	assert.Equal(t, extraction.RegionBottom, v.Layouts[0].Prefer)
	assert.Equal(t, []extraction.KnownVendor{
		{Domain: "amazon.de", Name: "Amazon"},
		{Domain: "otto.de", Name: "Otto"},
	}, v.KnownVendors)
	assert.Equal(t, []string{"tee", "kräuter"}, v.CatalogueKeywords)

	def := extraction.DefaultVocabulary()
	assert.Equal(t, def.DescriptionStopwords, v.DescriptionStopwords)
	assert.Equal(t, def.CatalogueBrands, v.CatalogueBrands)
}

func TestLoadVocabularyEmptyPathReturnsDefaults(t *testing.T) {
	v, err := LoadVocabulary("")
	require.NoError(t, err)
	assert.Equal(t, extraction.DefaultVocabulary(), v)
}

func TestParseVocabularyRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "stopwords: [a]\n",
		"unknown region": "default_region: middle\n",
		"layout region":  "layouts:\n  - name: x\n    markers: [x]\n    prefer: left\n",
		"layout markers": "layouts:\n  - name: x\n    prefer: top\n",
	}
	for name, doc := range cases {
		_, err := ParseVocabulary([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadVocabularyMissingFile(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
