package extraction

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

const (
	headerScanLines    = 20
	topRegionLines     = 15
	bottomRegionLines  = 25
	descriptionMinLen  = 8
	descriptionMaxLen  = 80
	maxPlausibleTaxPct = 25
)

// Extractor runs the per-field rule cascades over document text. It holds
// only compiled, read-only tables and is safe for concurrent use.
type Extractor struct {
	vocab  Vocabulary
	logger *slog.Logger

	layouts          []compiledLayout
	descriptionRules []Rule
	stoplist         *regexp.Regexp
}

type compiledLayout struct {
	name    string
	markers []string
	prefer  Region
}

func NewExtractor(vocab Vocabulary, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if vocab.DefaultRegion == "" {
		vocab.DefaultRegion = RegionBottom
	}

	e := &Extractor{vocab: vocab, logger: logger}
	for _, l := range vocab.Layouts {
		cl := compiledLayout{name: l.Name, prefer: l.Prefer}
		for _, m := range l.Markers {
			if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
				cl.markers = append(cl.markers, m)
			}
		}
		if cl.prefer == "" {
			cl.prefer = RegionTop
		}
		if len(cl.markers) > 0 {
			e.layouts = append(e.layouts, cl)
		}
	}

	if brands := alternation(vocab.CatalogueBrands); brands != "" {
		e.descriptionRules = append(e.descriptionRules,
			newRule("description.catalogue_brand", `(?im)^[ \t]*(?:\d+[ \t]+)?((?:`+brands+`)[^\n]{10,80})`))
	}
	e.descriptionRules = append(e.descriptionRules, descriptionTableRules...)
	if keywords := alternation(vocab.CatalogueKeywords); keywords != "" {
		e.descriptionRules = append(e.descriptionRules,
			newRule("description.catalogue_keyword", `(?im)([A-Za-zÄÖÜäöüß][A-Za-zÄÖÜäöüß \t]{8,60}(?:`+keywords+`)[A-Za-zÄÖÜäöüß \t()0-9]{0,30})`))
	}
	e.descriptionRules = append(e.descriptionRules, descriptionGenericRules...)

	if stop := alternation(vocab.DescriptionStopwords); stop != "" {
		e.stoplist = regexp.MustCompile(`(?i)(?:` + stop + `)`)
	}
	return e
}

var defaultExtractor = NewExtractor(DefaultVocabulary(), nil)

// Extract runs the built-in vocabulary over text.
func Extract(text string) domain.ExtractionResult {
	return defaultExtractor.Extract(text)
}

// Extract derives every invoice field from text. Fields without an accepted
// candidate keep their empty sentinel.
func (e *Extractor) Extract(text string) domain.ExtractionResult {
	result := domain.NewExtractionResult()
	text = normalize.Text(text)
	if strings.TrimSpace(text) == "" {
		return result
	}
	lines := splitLines(text)

	if v, ok := e.vendor(text, lines); ok {
		result.SetText(domain.FieldCompany, v, domain.SourceRaw)
	}
	if v, rule, ok := firstAccepted(invoiceNumberRules, text, acceptInvoiceNumber); ok {
		e.trace(domain.FieldInvoiceNumber, rule)
		result.SetText(domain.FieldInvoiceNumber, v, domain.SourceRaw)
	}

	date, rule, ok := firstAccepted(invoiceDateRules, text, acceptDate)
	if ok {
		e.trace(domain.FieldDate, rule)
		result.SetText(domain.FieldDate, date, domain.SourceRaw)
	}
	result.SetText(domain.FieldServiceDate, e.serviceDate(text, date), domain.SourceRaw)

	if v, rule, ok := firstAccepted(e.descriptionRules, text, e.acceptDescription); ok {
		e.trace(domain.FieldDescription, rule)
		result.SetText(domain.FieldDescription, v, domain.SourceRaw)
	}

	if v, rule, ok := firstAccepted(netRules, text, acceptAmount); ok {
		e.trace(domain.FieldNetAmount, rule)
		result.SetAmount(domain.FieldNetAmount, decimal.RequireFromString(v), domain.SourceRaw)
	}
	if v, rule, ok := firstAccepted(taxRateRules, text, acceptTaxRate); ok {
		e.trace(domain.FieldTaxRate, rule)
		result.SetAmount(domain.FieldTaxRate, decimal.RequireFromString(v), domain.SourceRaw)
	}
	if v, ok := maxAmount(collectAmounts(totalRules, text)); ok {
		result.SetAmount(domain.FieldTotalAmount, v, domain.SourceRaw)
	}
	return result
}

// serviceDate prefers an explicit "dates coincide" statement, then its own
// rules, and finally falls back to the invoice date.
func (e *Extractor) serviceDate(text, invoiceDate string) string {
	if invoiceDate != "" {
		for _, re := range sameDateStatements {
			if re.MatchString(text) {
				e.trace(domain.FieldServiceDate, "service.same_as_invoice")
				return invoiceDate
			}
		}
	}
	if v, rule, ok := firstAccepted(serviceDateRules, text, acceptDate); ok {
		e.trace(domain.FieldServiceDate, rule)
		return v
	}
	return invoiceDate
}

func (e *Extractor) vendor(text string, lines []string) (string, bool) {
	preferred := e.preferredRegion(lines)
	for _, region := range []Region{preferred, preferred.other()} {
		if v, rule, ok := e.vendorInRegion(region, lines); ok {
			e.logger.Debug("extraction_rule_matched", "field", domain.FieldCompany.String(), "rule", rule, "region", string(region))
			return v, true
		}
	}
	lower := strings.ToLower(text)
	for _, kv := range e.vocab.KnownVendors {
		if kv.Domain != "" && strings.Contains(lower, strings.ToLower(kv.Domain)) {
			e.trace(domain.FieldCompany, "vendor.known_domain")
			return kv.Name, true
		}
	}
	return "", false
}

func (e *Extractor) preferredRegion(lines []string) Region {
	header := strings.ToLower(strings.Join(headLines(lines, headerScanLines), "\n"))
	for _, l := range e.layouts {
		for _, m := range l.markers {
			if strings.Contains(header, m) {
				return l.prefer
			}
		}
	}
	return e.vocab.DefaultRegion
}

func (e *Extractor) vendorInRegion(region Region, lines []string) (string, string, bool) {
	searched := headLines(lines, topRegionLines)
	reject := vendorRejectTop
	if region == RegionBottom {
		searched = tailLines(lines, bottomRegionLines)
		reject = vendorRejectBottom
	}
	for _, r := range vendorRules {
		r = r.withReject(reject)
		for _, line := range searched {
			m := r.Pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			c, ok := r.candidate(m)
			if !ok || vendorNoise.MatchString(c) {
				continue
			}
			return descriptionSpaces.ReplaceAllString(c, " "), r.Name, true
		}
	}
	return "", "", false
}

func (e *Extractor) acceptDescription(candidate string) (string, bool) {
	c := cleanDescription(candidate)
	if utf8.RuneCountInString(c) <= descriptionMinLen {
		return "", false
	}
	if e.stoplist != nil && e.stoplist.MatchString(c) {
		return "", false
	}
	return c, true
}

func (e *Extractor) trace(field domain.FieldType, rule string) {
	e.logger.Debug("extraction_rule_matched", "field", field.String(), "rule", rule)
}

func cleanDescription(s string) string {
	s = descriptionDelims.ReplaceAllString(s, " ")
	s = descriptionSpaces.ReplaceAllString(s, " ")
	s = descriptionTrailer.ReplaceAllString(s, "")
	s = strings.Trim(s, " -–.:")
	if utf8.RuneCountInString(s) > descriptionMaxLen {
		s = strings.TrimSpace(string([]rune(s)[:descriptionMaxLen]))
	}
	return s
}

func acceptInvoiceNumber(candidate string) (string, bool) {
	c := strings.TrimRight(candidate, ".-/_")
	if len(c) < 3 || numberLabelWords.MatchString(c) {
		return "", false
	}
	if !strings.ContainsAny(c, "0123456789") {
		return "", false
	}
	return c, true
}

func acceptDate(candidate string) (string, bool) {
	iso, err := normalize.Date(candidate)
	if err != nil {
		return "", false
	}
	return iso, true
}

func acceptAmount(candidate string) (string, bool) {
	v, err := normalize.Amount(candidate)
	if err != nil || !v.IsPositive() {
		return "", false
	}
	return v.String(), true
}

// acceptTaxRate keeps rates in (0, 25]; zero is the field's empty sentinel.
func acceptTaxRate(candidate string) (string, bool) {
	v, err := normalize.Amount(candidate)
	if err != nil || !v.IsPositive() || v.GreaterThan(decimal.NewFromInt(maxPlausibleTaxPct)) {
		return "", false
	}
	return v.String(), true
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func headLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[:n]
}

func tailLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
