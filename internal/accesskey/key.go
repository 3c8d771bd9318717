package accesskey

import "fmt"

// Key is a decoded, read-only view over an access key.
// The zero value is not a valid key.
type Key struct {
	raw    string
	schema *Schema
}

// FieldValue is a named field together with its value.
type FieldValue struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
	Value  string `json:"value"`
}

// String returns the raw 44-character key.
func (k Key) String() string {
	return k.raw
}

// IsZero reports whether k was never decoded.
func (k Key) IsZero() bool {
	return k.schema == nil
}

// Field returns the value of the named field.
// The second result is false when the schema has no such field.
func (k Key) Field(name string) (string, bool) {
	if k.schema == nil {
		return "", false
	}
	i, ok := k.schema.index[name]
	if !ok {
		return "", false
	}
	f := k.schema.fields[i]
	return k.raw[f.Offset : f.Offset+f.Length], true
}

// Fields returns every field in schema order.
func (k Key) Fields() []FieldValue {
	if k.schema == nil {
		return nil
	}
	out := make([]FieldValue, len(k.schema.fields))
	for i, f := range k.schema.fields {
		out[i] = FieldValue{
			Name:   f.Name,
			Offset: f.Offset,
			Value:  k.raw[f.Offset : f.Offset+f.Length],
		}
	}
	return out
}

func (k Key) mustField(name string) string {
	v, ok := k.Field(name)
	if !ok {
		panic(fmt.Sprintf("accesskey: schema has no field %q", name))
	}
	return v
}

func (k Key) Region() string       { return k.mustField(FieldRegion) }
func (k Key) YearMonth() string    { return k.mustField(FieldYearMonth) }
func (k Key) TaxID() string        { return k.mustField(FieldTaxID) }
func (k Key) Model() string        { return k.mustField(FieldModel) }
func (k Key) Series() string       { return k.mustField(FieldSeries) }
func (k Key) Number() string       { return k.mustField(FieldNumber) }
func (k Key) EmissionType() string { return k.mustField(FieldEmissionType) }
func (k Key) NumericCode() string  { return k.mustField(FieldNumericCode) }
func (k Key) CheckDigit() string   { return k.mustField(FieldCheckDigit) }

// Verify checks the embedded check digit against the mod-11 digit
// computed over the first 43 characters.
func (k Key) Verify() error {
	want, err := ComputeCheckDigit(k.raw[:Length-1])
	if err != nil {
		return err
	}
	if got := k.CheckDigit()[0]; got != want {
		return &InvalidKeyError{
			Code:    ErrCodeBadCheckDigit,
			Field:   FieldCheckDigit,
			Raw:     k.raw,
			Message: fmt.Sprintf("check digit is %c, expected %c", got, want),
		}
	}
	return nil
}
