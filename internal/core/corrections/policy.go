package corrections

import (
	"math"
	"strings"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

const (
	InitialConfidence   = 0.7
	ConfidenceStep      = 0.25
	AutoApplyThreshold  = 0.6
	SuggestThreshold    = 0.4
	SimilarityThreshold = 0.7
)

// Confidence is the score of a record seen occurrences times.
func Confidence(occurrences int) float64 {
	if occurrences < 1 {
		occurrences = 1
	}
	return math.Min(1.0, InitialConfidence+float64(occurrences-1)*ConfidenceStep)
}

// Decision is what Apply does with the best matching record of a field.
type Decision int

const (
	DecisionIgnore Decision = iota
	DecisionSuggest
	DecisionAutoApply
)

func (d Decision) String() string {
	switch d {
	case DecisionAutoApply:
		return "auto_apply"
	case DecisionSuggest:
		return "suggest"
	default:
		return "ignore"
	}
}

func Decide(confidence float64) Decision {
	switch {
	case confidence >= AutoApplyThreshold:
		return DecisionAutoApply
	case confidence >= SuggestThreshold:
		return DecisionSuggest
	default:
		return DecisionIgnore
	}
}

// CanonicalText is the form in which values are remembered and compared.
// Numeric fields use two decimals with a dot, date fields use ISO dates, and
// anything that does not parse is kept trimmed but otherwise verbatim.
func CanonicalText(field domain.FieldType, raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case field.Numeric():
		if v, err := normalize.Amount(raw); err == nil {
			return v.StringFixed(2)
		}
	case field.Date():
		if iso, err := normalize.Date(raw); err == nil {
			return iso
		}
	}
	return raw
}

// Similarity is the Jaccard index of the lowercase whitespace token sets of a
// and b. It is 0 when either side has no tokens.
func Similarity(a, b string) float64 {
	left := tokenSet(a)
	right := tokenSet(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	shared := 0
	for tok := range left {
		if _, ok := right[tok]; ok {
			shared++
		}
	}
	union := len(left) + len(right) - shared
	return float64(shared) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

// companyInScope reports whether a record scoped to context applies to an
// invoice whose extracted company is company. An empty side overlaps with
// anything.
func companyInScope(context, company string) bool {
	ctx := strings.ToLower(strings.TrimSpace(context))
	c := strings.ToLower(strings.TrimSpace(company))
	return strings.Contains(c, ctx) || strings.Contains(ctx, c)
}
