package accesskey

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

const byteOrderMark = "\ufeff"

// KeyList is the result of reading a candidate list.
type KeyList struct {
	// Keys holds the trimmed lines that have the access key shape, in input order.
	Keys []string

	// Filtered counts lines dropped for not having Length characters.
	// Blank lines are included.
	Filtered int
}

// ReadKeys reads one candidate key per line from r.
//
// Lines are trimmed and a leading byte order mark is ignored. A line whose
// trimmed length is not exactly Length characters is dropped and counted in
// Filtered; it is never an error, however long it is. Content is not
// validated here: Decode does that per key.
func ReadKeys(r io.Reader) (KeyList, error) {
	var list KeyList

	br := bufio.NewReader(r)
	first := true
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return KeyList{}, fmt.Errorf("failed to read keys: %w", err)
		}
		if errors.Is(err, io.EOF) && line == "" {
			break
		}
		if first {
			line = strings.TrimPrefix(line, byteOrderMark)
			first = false
		}
		list.add(line)
		if err != nil {
			break
		}
	}

	return list, nil
}

// ReadKeysFile reads a candidate list from a file.
func ReadKeysFile(path string) (KeyList, error) {
	f, err := os.Open(path)
	if err != nil {
		return KeyList{}, fmt.Errorf("failed to open keys file: %w", err)
	}
	defer f.Close()

	return ReadKeys(f)
}

// FilterKeys applies the ReadKeys shape filter to an in-memory list.
func FilterKeys(lines []string) KeyList {
	var list KeyList
	for _, l := range lines {
		list.add(l)
	}
	return list
}

func (l *KeyList) add(line string) {
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) != Length {
		l.Filtered++
		return
	}
	l.Keys = append(l.Keys, line)
}
