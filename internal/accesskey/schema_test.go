package accesskey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKey = "35200114200166000187550010000000011000000012"

func TestDecode_Fields(t *testing.T) {
	k, err := Decode(sampleKey)
	require.NoError(t, err)

	assert.Equal(t, "35", k.Region())
	assert.Equal(t, "2001", k.YearMonth())
	assert.Equal(t, "14200166000187", k.TaxID())
	assert.Equal(t, "55", k.Model())
	assert.Equal(t, "001", k.Series())
	assert.Equal(t, "000000001", k.Number())
	assert.Equal(t, "1", k.EmissionType())
	assert.Equal(t, "00000001", k.NumericCode())
	assert.Equal(t, "2", k.CheckDigit())
	assert.Equal(t, sampleKey, k.String())
	assert.False(t, k.IsZero())
}

func TestDecode_RoundTrip(t *testing.T) {
	keys := []string{
		sampleKey,
		strings.Repeat("0", Length),
		strings.Repeat("9", Length),
		"43231299999999000191650020001234561123456780",
	}

	for _, raw := range keys {
		t.Run(raw, func(t *testing.T) {
			k, err := Decode(raw)
			require.NoError(t, err)

			buf := make([]byte, Length)
			for i := range buf {
				buf[i] = '#'
			}
			for _, fv := range k.Fields() {
				copy(buf[fv.Offset:], fv.Value)
			}
			assert.Equal(t, raw, string(buf))

			var joined strings.Builder
			for _, fv := range k.Fields() {
				joined.WriteString(fv.Value)
			}
			assert.Equal(t, raw, joined.String())
		})
	}
}

func TestDecode_BadLength(t *testing.T) {
	for _, raw := range []string{"", "bad", sampleKey[:43], sampleKey + "0"} {
		_, err := Decode(raw)
		require.Error(t, err)

		var ke *InvalidKeyError
		require.ErrorAs(t, err, &ke)
		assert.Equal(t, ErrCodeBadLength, ke.Code)
		assert.True(t, IsInvalidKey(err))
	}
}

func TestDecode_BadCharset(t *testing.T) {
	raw := sampleKey[:6] + "1420016600018X" + sampleKey[20:]
	require.Len(t, raw, Length)

	_, err := Decode(raw)
	require.Error(t, err)

	var ke *InvalidKeyError
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, ErrCodeBadCharset, ke.Code)
	assert.Equal(t, FieldTaxID, ke.Field)
	assert.Contains(t, err.Error(), "position 19")
}

func TestKey_FieldUnknown(t *testing.T) {
	k, err := Decode(sampleKey)
	require.NoError(t, err)

	_, ok := k.Field("nope")
	assert.False(t, ok)

	var zero Key
	_, ok = zero.Field(FieldRegion)
	assert.False(t, ok)
	assert.Nil(t, zero.Fields())
	assert.True(t, zero.IsZero())
}

func TestNewSchema_Validation(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		errMsg string
	}{
		{
			name:   "gap",
			fields: []Field{{Name: "a", Offset: 0, Length: 2}, {Name: "b", Offset: 3, Length: 1}},
			errMsg: "offset 3, expected 2",
		},
		{
			name:   "duplicate",
			fields: []Field{{Name: "a", Offset: 0, Length: 2}, {Name: "a", Offset: 2, Length: 1}},
			errMsg: "duplicate name",
		},
		{
			name:   "empty name",
			fields: []Field{{Offset: 0, Length: 2}},
			errMsg: "name is required",
		},
		{
			name:   "zero length",
			fields: []Field{{Name: "a", Offset: 0, Length: 0}},
			errMsg: "length must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.fields...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCustomSchema_AnyCharset(t *testing.T) {
	s := MustSchema(
		Field{Name: "prefix", Offset: 0, Length: 2, Charset: CharsetAny},
		Field{Name: "num", Offset: 2, Length: 3, Charset: CharsetDigits},
	)
	assert.Equal(t, 5, s.Len())

	k, err := s.Decode("AB123")
	require.NoError(t, err)
	v, ok := k.Field("prefix")
	require.True(t, ok)
	assert.Equal(t, "AB", v)

	_, err = s.Decode("AB12C")
	require.Error(t, err)
}

func TestDefaultSchema_CoversKey(t *testing.T) {
	assert.Equal(t, Length, DefaultSchema.Len())
	assert.Len(t, DefaultSchema.Fields(), 9)
}
