package accesskey

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadKeys_FiltersByLength(t *testing.T) {
	input := strings.Join([]string{
		sampleKey,
		"bad",
		"",
		"   " + sampleKey[:43] + "  ",
		"  43231299999999000191650020001234561123456780\t",
	}, "\n")

	list, err := ReadKeys(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{
		sampleKey,
		"43231299999999000191650020001234561123456780",
	}, list.Keys)
	assert.Equal(t, 3, list.Filtered)
}

func TestReadKeys_KeepsNonNumericShape(t *testing.T) {
	// Shape filtering is by length only; content errors belong to Decode.
	odd := strings.Repeat("x", Length)
	list, err := ReadKeys(strings.NewReader(odd + "\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{odd}, list.Keys)
	assert.Zero(t, list.Filtered)
}

func TestReadKeysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chaves.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleKey+"\nbad\n"), 0644))

	list, err := ReadKeysFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{sampleKey}, list.Keys)
	assert.Equal(t, 1, list.Filtered)

	_, err = ReadKeysFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open keys file")
}

func TestFilterKeys(t *testing.T) {
	list := FilterKeys([]string{sampleKey, "bad", ""})
	assert.Equal(t, []string{sampleKey}, list.Keys)
	assert.Equal(t, 2, list.Filtered)
}

func TestReadKeys_OverlongLineIsFiltered(t *testing.T) {
	input := sampleKey + "\n" + strings.Repeat("x", 70000) + "\n" + sampleKey

	list, err := ReadKeys(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{sampleKey, sampleKey}, list.Keys)
	assert.Equal(t, 1, list.Filtered)
}

func TestReadKeys_StripsByteOrderMark(t *testing.T) {
	input := "\ufeff" + sampleKey + "\r\n" + sampleKey + "\n"

	list, err := ReadKeys(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{sampleKey, sampleKey}, list.Keys)
	assert.Zero(t, list.Filtered)
}

func TestReadKeys_CountsCharactersNotBytes(t *testing.T) {
	// 43 characters, 44 bytes.
	line := sampleKey[:42] + "é"
	require.Len(t, line, Length)

	list, err := ReadKeys(strings.NewReader(line + "\n"))
	require.NoError(t, err)
	assert.Empty(t, list.Keys)
	assert.Equal(t, 1, list.Filtered)

	filtered := FilterKeys([]string{line})
	assert.Empty(t, filtered.Keys)
	assert.Equal(t, 1, filtered.Filtered)
}

func TestReadKeys_NoTrailingNewline(t *testing.T) {
	list, err := ReadKeys(strings.NewReader(sampleKey + "\n\n" + sampleKey))
	require.NoError(t, err)
	assert.Len(t, list.Keys, 2)
	assert.Equal(t, 1, list.Filtered)
}
