package extraction

import "strings"

// Region is a slice of document lines searched for the vendor name.
type Region string

const (
	RegionTop    Region = "top"
	RegionBottom Region = "bottom"
)

func (r Region) other() Region {
	if r == RegionTop {
		return RegionBottom
	}
	return RegionTop
}

func ParseRegion(raw string) (Region, bool) {
	switch Region(strings.ToLower(strings.TrimSpace(raw))) {
	case RegionTop:
		return RegionTop, true
	case RegionBottom:
		return RegionBottom, true
	default:
		return "", false
	}
}

// Layout is a known document format recognised by a marker in the header lines.
type Layout struct {
	Name    string
	Markers []string
	Prefer  Region
}

// KnownVendor maps a shop domain found in the text to a vendor name.
type KnownVendor struct {
	Domain string
	Name   string
}

// Vocabulary holds the tunable word lists behind the rule tables.
type Vocabulary struct {
	Layouts              []Layout
	DefaultRegion        Region
	KnownVendors         []KnownVendor
	CatalogueBrands      []string
	CatalogueKeywords    []string
	DescriptionStopwords []string
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Layouts: []Layout{
			{Name: "tausendkraut", Markers: []string{"tausendkraut"}, Prefer: RegionTop},
		},
		DefaultRegion: RegionBottom,
		KnownVendors: []KnownVendor{
			{Domain: "amazon.de", Name: "Amazon"},
			{Domain: "otto.de", Name: "Otto"},
			{Domain: "zalando.de", Name: "Zalando"},
			{Domain: "mediamarkt.de", Name: "MediaMarkt"},
			{Domain: "saturn.de", Name: "Saturn"},
			{Domain: "ebay.de", Name: "eBay"},
			{Domain: "real.de", Name: "real"},
			{Domain: "parfumdreams.de", Name: "Parfumdreams"},
			{Domain: "douglas.de", Name: "Douglas"},
			{Domain: "notino.de", Name: "Notino"},
			{Domain: "apodiscounter.de", Name: "Apodiscounter"},
		},
		CatalogueBrands:   []string{"Clinique"},
		CatalogueKeywords: []string{"tee", "energie", "bio", "XXL", "guayusa"},
		DescriptionStopwords: []string{
			"Versandkosten", "Porto", "Lieferung", "Bezeichnung", "Einh.", "Menge",
			"Preis", "€", "Rechnung", "Bestellung", "ArtNr", "MwSt", "Einzelpreis",
			"Gesamtpreis", "Amtsgericht", "Fehmarn", "Sehr", "Newsletter",
			"Zwischensumme", "Gesamtbetrag", "Summe", "Netto", "Rabatt",
		},
	}
}

// Merge overlays non-empty lists of o onto v.
func (v Vocabulary) Merge(o Vocabulary) Vocabulary {
	if len(o.Layouts) > 0 {
		v.Layouts = o.Layouts
	}
	if o.DefaultRegion != "" {
		v.DefaultRegion = o.DefaultRegion
	}
	if len(o.KnownVendors) > 0 {
		v.KnownVendors = o.KnownVendors
	}
	if len(o.CatalogueBrands) > 0 {
		v.CatalogueBrands = o.CatalogueBrands
	}
	if len(o.CatalogueKeywords) > 0 {
		v.CatalogueKeywords = o.CatalogueKeywords
	}
	if len(o.DescriptionStopwords) > 0 {
		v.DescriptionStopwords = o.DescriptionStopwords
	}
	return v
}
