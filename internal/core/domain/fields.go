package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FieldType identifies one of the fixed invoice attributes.
type FieldType int

const (
	FieldCompany FieldType = iota
	FieldInvoiceNumber
	FieldDate
	FieldServiceDate
	FieldDescription
	FieldNetAmount
	FieldTaxRate
	FieldTotalAmount

	fieldTypeCount
)

var fieldTypeNames = [fieldTypeCount]string{
	FieldCompany:       "company",
	FieldInvoiceNumber: "invoice_number",
	FieldDate:          "date",
	FieldServiceDate:   "service_date",
	FieldDescription:   "description",
	FieldNetAmount:     "net_amount",
	FieldTaxRate:       "tax_rate",
	FieldTotalAmount:   "total_amount",
}

// FieldTypes returns every field type in declaration order.
func FieldTypes() []FieldType {
	out := make([]FieldType, 0, fieldTypeCount)
	for f := FieldType(0); f < fieldTypeCount; f++ {
		out = append(out, f)
	}
	return out
}

func (f FieldType) Valid() bool {
	return f >= 0 && f < fieldTypeCount
}

func (f FieldType) String() string {
	if !f.Valid() {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldTypeNames[f]
}

// Numeric reports whether values of this field carry a decimal payload.
func (f FieldType) Numeric() bool {
	return f == FieldNetAmount || f == FieldTaxRate || f == FieldTotalAmount
}

// Date reports whether values of this field are ISO dates.
func (f FieldType) Date() bool {
	return f == FieldDate || f == FieldServiceDate
}

func ParseFieldType(raw string) (FieldType, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for f := FieldType(0); f < fieldTypeCount; f++ {
		if fieldTypeNames[f] == name {
			return f, nil
		}
	}
	return 0, WrapError(ErrInvalidInput, "parse field type", fmt.Errorf("unknown field %q", raw))
}

func (f FieldType) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid field type %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *FieldType) UnmarshalText(text []byte) error {
	parsed, err := ParseFieldType(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Source tells where a field value came from.
type Source string

const (
	SourceRaw       Source = "raw"
	SourceCorrected Source = "corrected"
	SourceSuggested Source = "suggested"
)

// FieldValue is one extracted datum. Text fields use Text; numeric fields use
// Amount, with the zero decimal as the empty sentinel.
type FieldValue struct {
	Field  FieldType
	Text   string
	Amount decimal.Decimal
	Source Source
}

func (v FieldValue) IsEmpty() bool {
	if v.Field.Numeric() {
		return v.Amount.IsZero()
	}
	return strings.TrimSpace(v.Text) == ""
}

// String renders the value the way it is compared against correction records.
func (v FieldValue) String() string {
	if v.Field.Numeric() {
		if v.Amount.IsZero() {
			return ""
		}
		return v.Amount.StringFixed(2)
	}
	return v.Text
}

type fieldValueJSON struct {
	Value  string `json:"value"`
	Source Source `json:"source"`
}

// ExtractionResult holds exactly one value per field type.
type ExtractionResult struct {
	values [fieldTypeCount]FieldValue
}

// NewExtractionResult returns a result with every field set to its empty sentinel.
func NewExtractionResult() ExtractionResult {
	var r ExtractionResult
	for f := FieldType(0); f < fieldTypeCount; f++ {
		r.values[f] = FieldValue{Field: f, Source: SourceRaw}
	}
	return r
}

func (r ExtractionResult) Get(f FieldType) FieldValue {
	if !f.Valid() {
		return FieldValue{Field: f, Source: SourceRaw}
	}
	v := r.values[f]
	v.Field = f
	if v.Source == "" {
		v.Source = SourceRaw
	}
	return v
}

func (r *ExtractionResult) Set(v FieldValue) {
	if !v.Field.Valid() {
		return
	}
	if v.Source == "" {
		v.Source = SourceRaw
	}
	r.values[v.Field] = v
}

func (r *ExtractionResult) SetText(f FieldType, text string, source Source) {
	r.Set(FieldValue{Field: f, Text: text, Source: source})
}

func (r *ExtractionResult) SetAmount(f FieldType, amount decimal.Decimal, source Source) {
	r.Set(FieldValue{Field: f, Amount: amount, Source: source})
}

func (r ExtractionResult) Company() string {
	return r.Get(FieldCompany).Text
}

// Values returns all field values in field-type order.
func (r ExtractionResult) Values() []FieldValue {
	out := make([]FieldValue, 0, fieldTypeCount)
	for f := FieldType(0); f < fieldTypeCount; f++ {
		out = append(out, r.Get(f))
	}
	return out
}

func (r ExtractionResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]fieldValueJSON, fieldTypeCount)
	for _, v := range r.Values() {
		out[v.Field.String()] = fieldValueJSON{Value: v.String(), Source: v.Source}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON. Unknown keys are
// ignored and missing keys keep their empty sentinel.
func (r *ExtractionResult) UnmarshalJSON(data []byte) error {
	var in map[string]fieldValueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = NewExtractionResult()
	for name, raw := range in {
		f, err := ParseFieldType(name)
		if err != nil {
			continue
		}
		v, err := ParseFieldValue(f, raw.Value)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		if raw.Source != "" {
			v.Source = raw.Source
		}
		r.Set(v)
	}
	return nil
}

// ParseFieldValue builds a raw-sourced value from its rendered form.
func ParseFieldValue(f FieldType, raw string) (FieldValue, error) {
	raw = strings.TrimSpace(raw)
	v := FieldValue{Field: f, Source: SourceRaw}
	if !f.Numeric() {
		v.Text = raw
		return v, nil
	}
	if raw == "" {
		return v, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return FieldValue{}, WrapError(ErrInvalidInput, "parse field value", err)
	}
	v.Amount = amount
	return v, nil
}

// Suggestions maps a field to a remembered correction that was not applied.
type Suggestions map[FieldType]string
