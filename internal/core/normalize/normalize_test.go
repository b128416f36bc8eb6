package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountLocales(t *testing.T) {
	cases := map[string]string{
		"1.234,56":  "1234.56",
		"1234.56":   "1234.56",
		"1,234.56":  "1234.56",
		"42,00 €":   "42",
		"€ 7,5":     "7.5",
		"1.234.567": "1234567",
		"1.234":     "1234",
		"0,125":     "0.125",
		"12,00-":    "-12",
		"2'499.90":  "2499.9",
		"EUR 19,99": "19.99",
		"10.000,00": "10000",
		"100":       "100",
		".50":       "0.5",
		"1 299,00":  "1299",
	}
	for in, want := range cases {
		got, err := Amount(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%q: got %s want %s", in, got, want)
	}
}

func TestAmountRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "12,34,5", "1.23.45", "12a", "1,2.345,67"} {
		_, err := Amount(in)
		assert.Error(t, err, in)
	}
}

func TestDateForms(t *testing.T) {
	cases := map[string]string{
		"27 Dezember 2024":  "2024-12-27",
		"27. Dezember 2024": "2024-12-27",
		"3 März 2024":       "2024-03-03",
		"01.03.2024":        "2024-03-01",
		"01/03/2024":        "2024-03-01",
		"1-3-24":            "2024-03-01",
		"2024-03-01":        "2024-03-01",
		"2024/3/1":          "2024-03-01",
		"12/31/2024":        "2024-12-31",
		"December 27, 2024": "2024-12-27",
		"5 Okt. 2023":       "2023-10-05",
	}
	for in, want := range cases {
		got, err := Date(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestDateRejectsImpossibleDays(t *testing.T) {
	for _, in := range []string{"31.02.2024", "00.01.2024", "13.13.2024", "27 Brumaire 2024", "", "yesterday"} {
		_, err := Date(in)
		assert.Error(t, err, in)
	}
}

func TestTextComposesUmlauts(t *testing.T) {
	decomposed := "Ma\u0308rz\r\nStraße 1"
	assert.Equal(t, "M\u00e4rz\nStraße 1", Text(decomposed))
}
