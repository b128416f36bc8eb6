package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

// Rule is one step of a field cascade: a pattern, the capture group holding the
// candidate and an optional reject predicate tested against that candidate.
// When Skip names a group, matches in which that group took part are dropped.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Group   int
	Skip    int
	Reject  *regexp.Regexp
}

func newRule(name, pattern string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Group: 1}
}

func (r Rule) withGroup(group int) Rule {
	r.Group = group
	return r
}

func (r Rule) skipWhen(group int) Rule {
	r.Skip = group
	return r
}

func (r Rule) withReject(reject *regexp.Regexp) Rule {
	r.Reject = reject
	return r
}

// Candidates returns the rule's captures in text order, minus rejected ones.
func (r Rule) Candidates(text string) []string {
	var out []string
	for _, m := range r.Pattern.FindAllStringSubmatch(text, -1) {
		if c, ok := r.candidate(m); ok {
			out = append(out, c)
		}
	}
	return out
}

func (r Rule) candidate(match []string) (string, bool) {
	if r.Group >= len(match) {
		return "", false
	}
	if r.Skip > 0 && r.Skip < len(match) && match[r.Skip] != "" {
		return "", false
	}
	c := strings.TrimSpace(match[r.Group])
	if c == "" {
		return "", false
	}
	if r.Reject != nil && r.Reject.MatchString(c) {
		return "", false
	}
	return c, true
}

// acceptFunc turns a candidate into a final value or refuses it.
type acceptFunc func(candidate string) (string, bool)

func acceptAsIs(candidate string) (string, bool) {
	return candidate, true
}

// TryMatch returns the first candidate of this rule that accept keeps.
func (r Rule) TryMatch(text string, accept acceptFunc) (string, bool) {
	if accept == nil {
		accept = acceptAsIs
	}
	for _, c := range r.Candidates(text) {
		if v, ok := accept(c); ok {
			return v, true
		}
	}
	return "", false
}

// firstAccepted walks rules in order; the first accepted candidate wins.
func firstAccepted(rules []Rule, text string, accept acceptFunc) (string, string, bool) {
	for _, r := range rules {
		if v, ok := r.TryMatch(text, accept); ok {
			return v, r.Name, true
		}
	}
	return "", "", false
}

// collectAmounts evaluates every rule over the whole text and returns all
// candidates that normalize to a positive amount.
func collectAmounts(rules []Rule, text string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, r := range rules {
		for _, c := range r.Candidates(text) {
			v, err := normalize.Amount(c)
			if err != nil || !v.IsPositive() {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}

func maxAmount(values []decimal.Decimal) (decimal.Decimal, bool) {
	if len(values) == 0 {
		return decimal.Zero, false
	}
	return decimal.Max(values[0], values[1:]...), true
}

func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return strings.Join(quoted, "|")
}
