// Package normalize converts locale-ambiguous amounts, dates and raw document
// text into canonical forms.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

var (
	errEmptyAmount = errors.New("empty amount")
	errEmptyDate   = errors.New("empty date")
)

var amountNoise = strings.NewReplacer(
	"€", "",
	"EUR", "",
	"eur", "",
	"$", "",
	"USD", "",
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"'", "",
	"\u2019", "",
)

// Amount converts a locale-ambiguous monetary string into a decimal.
// "1.234,56", "1,234.56" and "1234.56" all yield 1234.56. A single separator
// followed by exactly three digits is read as a thousands separator.
func Amount(raw string) (decimal.Decimal, error) {
	s := amountNoise.Replace(strings.TrimSpace(raw))
	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = true
		s = s[:len(s)-1]
	}
	if s == "" {
		return decimal.Zero, errEmptyAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return decimal.Zero, fmt.Errorf("amount %q: unexpected character %q", raw, r)
		}
	}

	intPart, fracPart, err := splitAmount(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", raw, err)
	}
	if intPart == "" {
		intPart = "0"
	}
	canonical := intPart
	if fracPart != "" {
		canonical += "." + fracPart
	}
	value, err := decimal.NewFromString(canonical)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", raw, err)
	}
	if negative {
		value = value.Neg()
	}
	return value, nil
}

func splitAmount(s string) (string, string, error) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		decimalSep, thousandsSep := ",", "."
		idx := lastComma
		if lastDot > lastComma {
			decimalSep, thousandsSep = ".", ","
			idx = lastDot
		}
		head, frac := s[:idx], s[idx+1:]
		if strings.Contains(head, decimalSep) {
			return "", "", errors.New("decimal separator repeated")
		}
		digits, err := joinThousands(head, thousandsSep)
		if err != nil {
			return "", "", err
		}
		return digits, frac, nil
	case lastDot >= 0 || lastComma >= 0:
		sep := "."
		if lastComma >= 0 {
			sep = ","
		}
		if strings.Count(s, sep) > 1 {
			digits, err := joinThousands(s, sep)
			return digits, "", err
		}
		idx := strings.Index(s, sep)
		head, tail := s[:idx], s[idx+1:]
		if len(tail) == 3 && len(head) >= 1 && len(head) <= 3 && head != "0" {
			return head + tail, "", nil
		}
		return head, tail, nil
	default:
		return s, "", nil
	}
}

func joinThousands(s, sep string) (string, error) {
	groups := strings.Split(s, sep)
	for i, g := range groups {
		if i == 0 {
			if len(g) == 0 || len(g) > 3 {
				return "", fmt.Errorf("bad leading digit group %q", g)
			}
			continue
		}
		if len(g) != 3 {
			return "", fmt.Errorf("bad digit group %q", g)
		}
	}
	return strings.Join(groups, ""), nil
}

var (
	numericDMY   = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{4}|\d{2})$`)
	numericYMD   = regexp.MustCompile(`^(\d{4})[./-](\d{1,2})[./-](\d{1,2})$`)
	dayMonthName = regexp.MustCompile(`^(\d{1,2})\.?\s+(\p{L}+)\.?,?\s+(\d{4})$`)
	monthNameDay = regexp.MustCompile(`^(\p{L}+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})$`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

var monthsByName = map[string]time.Month{
	"januar": time.January, "jänner": time.January, "january": time.January, "jan": time.January,
	"februar": time.February, "february": time.February, "feb": time.February,
	"märz": time.March, "maerz": time.March, "march": time.March, "mär": time.March, "mrz": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"mai": time.May, "may": time.May,
	"juni": time.June, "june": time.June, "jun": time.June,
	"juli": time.July, "july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"oktober": time.October, "october": time.October, "okt": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"dezember": time.December, "december": time.December, "dez": time.December, "dec": time.December,
}

// Date converts numeric (DD.MM.YYYY, DD/MM/YYYY, YYYY-MM-DD) and
// month-name dates into ISO YYYY-MM-DD. Numeric dates are read day-first
// unless only the month-first reading is a valid calendar date.
func Date(raw string) (string, error) {
	s := spaceRun.ReplaceAllString(strings.TrimSpace(norm.NFC.String(raw)), " ")
	if s == "" {
		return "", errEmptyDate
	}

	if m := numericYMD.FindStringSubmatch(s); m != nil {
		return isoDate(raw, atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := numericDMY.FindStringSubmatch(s); m != nil {
		first, second, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		day, month := first, second
		if first <= 12 && second > 12 {
			day, month = second, first
		}
		return isoDate(raw, year, month, day)
	}
	if m := dayMonthName.FindStringSubmatch(s); m != nil {
		month, ok := monthsByName[strings.ToLower(m[2])]
		if !ok {
			return "", fmt.Errorf("date %q: unknown month %q", raw, m[2])
		}
		return isoDate(raw, atoi(m[3]), int(month), atoi(m[1]))
	}
	if m := monthNameDay.FindStringSubmatch(s); m != nil {
		month, ok := monthsByName[strings.ToLower(m[1])]
		if !ok {
			return "", fmt.Errorf("date %q: unknown month %q", raw, m[1])
		}
		return isoDate(raw, atoi(m[3]), int(month), atoi(m[2]))
	}
	return "", fmt.Errorf("date %q: unrecognized format", raw)
}

func isoDate(raw string, year, month, day int) (string, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2999 {
		return "", fmt.Errorf("date %q: out of range", raw)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", fmt.Errorf("date %q: no such calendar day", raw)
	}
	return t.Format("2006-01-02"), nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

var textNoise = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\u00a0", " ",
	"\u202f", " ",
	"\u00ad", "",
	"\t", " ",
)

// Text folds OCR and PDF text into NFC with plain newlines and spaces.
func Text(text string) string {
	return textNoise.Replace(norm.NFC.String(text))
}
