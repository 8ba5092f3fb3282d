// Package snapshot turns record sets into a deterministic text form and
// fingerprints it for cheap change comparison.
package snapshot

import (
	"sort"
	"strconv"
	"strings"

	"goldwatch/internal/record"
)

const fieldSeparator = " | "

// Canonicalize renders records as one line per record ("name | buy | sell"),
// sorted and newline-joined. Ordering compares whole rendered lines with Go's
// native byte-wise string comparison, which both fixes a locale-independent
// collation and tie-breaks duplicate names on the full record.
func Canonicalize(records []record.Record) string {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, renderLine(rec))
	}
	sort.Strings(lines)
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\r\n")
}

// CanonicalizeBlob normalizes previously stored text without reparsing it:
// line endings become \n, non-breaking spaces become spaces, trailing
// whitespace is trimmed. Stored text is already canonical from a prior run,
// so no re-sort happens here.
func CanonicalizeBlob(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, " ", " ")
	text = strings.ReplaceAll(text, " ", " ")
	return strings.TrimRight(text, " \t\n")
}

// ParseCanonical rebuilds records from canonical text. It is the inverse of
// Canonicalize for well-formed input; malformed lines are skipped.
func ParseCanonical(text string) []record.Record {
	text = CanonicalizeBlob(text)
	if text == "" {
		return nil
	}

	var records []record.Record
	for _, line := range strings.Split(text, "\n") {
		// Split on the bare pipe, consuming fields from the right: the
		// amounts can never contain a pipe but a product name can, and
		// the whole-result trailing trim in Canonicalize can leave a
		// final line ending in " |".
		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}
		name := strings.TrimSpace(strings.Join(parts[:len(parts)-2], "|"))
		if name == "" {
			continue
		}
		records = append(records, record.Record{
			Name: name,
			Buy:  parseField(parts[len(parts)-2]),
			Sell: parseField(parts[len(parts)-1]),
		})
	}
	return records
}

func renderLine(rec record.Record) string {
	return rec.Name + fieldSeparator + formatField(rec.Buy) + fieldSeparator + formatField(rec.Sell)
}

func formatField(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func parseField(text string) *int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil
	}
	return &value
}
