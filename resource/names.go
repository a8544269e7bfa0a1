package resource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// BannedNames is a list of fragments that may not appear in custom item names.
type BannedNames struct {
	entries []string // folded
	raw     []string
}

// NewBannedNames builds a list from in-memory entries. Blank entries are skipped.
func NewBannedNames(entries ...string) *BannedNames {
	b := &BannedNames{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		b.entries = append(b.entries, foldKey(e))
		b.raw = append(b.raw, e)
	}
	return b
}

// LoadBannedNames reads one entry per line; lines starting with '#' are
// comments. A missing file yields an empty list.
func LoadBannedNames(path string) (*BannedNames, error) {
	return loadBannedNames(osReadFile, path)
}

func loadBannedNames(read readFileFunc, path string) (*BannedNames, error) {
	raw, err := read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewBannedNames(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrDataSourceUnavailable, path, err)
	}
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrMalformedData, path, err)
	}
	return NewBannedNames(lines...), nil
}

// Match returns the first banned entry contained in name, case-insensitively.
func (b *BannedNames) Match(name string) (string, bool) {
	if b == nil {
		return "", false
	}
	folded := foldKey(name)
	for i, e := range b.entries {
		if strings.Contains(folded, e) {
			return b.raw[i], true
		}
	}
	return "", false
}

// Len returns the number of entries.
func (b *BannedNames) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
