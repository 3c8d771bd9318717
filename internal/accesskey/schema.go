package accesskey

import "fmt"

// Length is the number of characters in an access key.
const Length = 44

// Field names of the default schema.
const (
	FieldRegion       = "cUF"
	FieldYearMonth    = "AAMM"
	FieldTaxID        = "CNPJ"
	FieldModel        = "mod"
	FieldSeries       = "serie"
	FieldNumber       = "nNF"
	FieldEmissionType = "tpEmis"
	FieldNumericCode  = "cNF"
	FieldCheckDigit   = "cDV"
)

// Charset restricts which bytes a field may contain.
type Charset int

const (
	// CharsetAny accepts any byte.
	CharsetAny Charset = iota
	// CharsetDigits accepts only '0'-'9'.
	CharsetDigits
)

// accepts reports whether every byte of s belongs to the charset.
// Returns the index of the first rejected byte, or -1.
func (c Charset) accepts(s string) int {
	if c == CharsetAny {
		return -1
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return i
		}
	}
	return -1
}

func (c Charset) String() string {
	switch c {
	case CharsetDigits:
		return "digits"
	default:
		return "any"
	}
}

// Field describes one named subrange of an access key.
type Field struct {
	Name    string
	Offset  int
	Length  int
	Charset Charset
}

// Schema is an ordered list of field descriptors.
type Schema struct {
	fields []Field
	index  map[string]int
	length int
}

// NewSchema validates the descriptors and builds a Schema.
// Fields must be contiguous, non-overlapping and uniquely named.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)

	next := 0
	for i, f := range s.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d: name is required", i)
		}
		if f.Length <= 0 {
			return nil, fmt.Errorf("field %q: length must be positive", f.Name)
		}
		if f.Offset != next {
			return nil, fmt.Errorf("field %q: offset %d, expected %d", f.Name, f.Offset, next)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("field %q: duplicate name", f.Name)
		}
		s.index[f.Name] = i
		next += f.Length
	}
	s.length = next

	return s, nil
}

// MustSchema is like NewSchema but panics on error.
// Intended for package-level schema definitions.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultSchema is the NF-e access key layout.
var DefaultSchema = MustSchema(
	Field{Name: FieldRegion, Offset: 0, Length: 2, Charset: CharsetDigits},
	Field{Name: FieldYearMonth, Offset: 2, Length: 4, Charset: CharsetDigits},
	Field{Name: FieldTaxID, Offset: 6, Length: 14, Charset: CharsetDigits},
	Field{Name: FieldModel, Offset: 20, Length: 2, Charset: CharsetDigits},
	Field{Name: FieldSeries, Offset: 22, Length: 3, Charset: CharsetDigits},
	Field{Name: FieldNumber, Offset: 25, Length: 9, Charset: CharsetDigits},
	Field{Name: FieldEmissionType, Offset: 34, Length: 1, Charset: CharsetDigits},
	Field{Name: FieldNumericCode, Offset: 35, Length: 8, Charset: CharsetDigits},
	Field{Name: FieldCheckDigit, Offset: 43, Length: 1, Charset: CharsetDigits},
)

// Len returns the total key length covered by the schema.
func (s *Schema) Len() int {
	return s.length
}

// Fields returns a copy of the descriptors in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Decode validates raw against the schema and returns a Key view over it.
func (s *Schema) Decode(raw string) (Key, error) {
	if len(raw) != s.length {
		return Key{}, &InvalidKeyError{
			Code:    ErrCodeBadLength,
			Raw:     raw,
			Message: fmt.Sprintf("access key must have %d characters, got %d", s.length, len(raw)),
		}
	}

	for _, f := range s.fields {
		value := raw[f.Offset : f.Offset+f.Length]
		if pos := f.Charset.accepts(value); pos >= 0 {
			return Key{}, &InvalidKeyError{
				Code:  ErrCodeBadCharset,
				Field: f.Name,
				Raw:   raw,
				Message: fmt.Sprintf("character %q at position %d is not %s",
					value[pos], f.Offset+pos, f.Charset),
			}
		}
	}

	return Key{raw: raw, schema: s}, nil
}

// Decode decodes raw with DefaultSchema.
func Decode(raw string) (Key, error) {
	return DefaultSchema.Decode(raw)
}
