// Package record defines the canonical price record and the normalization
// of raw scraped rows into it.
package record

import (
	"strconv"
	"strings"
)

// Row is one raw scraped table row, exactly as the source reader saw it.
type Row struct {
	Name     string
	BuyText  string
	SellText string
}

// Record is a normalized priced item. Buy and Sell are minor-less integer
// amounts; nil means the source listed no value.
type Record struct {
	Name string
	Buy  *int64
	Sell *int64
}

// Normalize turns a raw row into a Record. The second return value is false
// when the row is rejected: empty name after cleanup, or both amounts absent.
func Normalize(row Row) (Record, bool) {
	name := CleanName(row.Name)
	if name == "" {
		return Record{}, false
	}

	buy := parseAmount(row.BuyText)
	sell := parseAmount(row.SellText)
	if buy == nil && sell == nil {
		return Record{}, false
	}

	return Record{Name: name, Buy: buy, Sell: sell}, true
}

// CleanName strips non-breaking spaces, trims, and collapses internal
// whitespace runs to a single space.
func CleanName(name string) string {
	name = strings.ReplaceAll(name, " ", " ")
	name = strings.ReplaceAll(name, " ", " ")
	return strings.Join(strings.Fields(name), " ")
}

// Placeholders the source renders when a price column has no value.
var noValuePlaceholders = map[string]struct{}{
	"-": {}, "–": {}, "—": {},
}

func parseAmount(text string) *int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if _, ok := noValuePlaceholders[text]; ok {
		return nil
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	// Separator-only strings ("...") legitimately normalize to nothing.
	if digits == "" {
		return nil
	}

	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	return &value
}
