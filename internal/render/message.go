// Package render builds the human-readable faces of a snapshot: the Telegram
// message and the optional PNG chart.
package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"goldwatch/internal/record"
)

var printer = message.NewPrinter(language.English)

// Message renders the Telegram-HTML notification body for a record set.
func Message(title string, records []record.Record, at time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(title)))
	sb.WriteString(fmt.Sprintf("%s\n\n", at.Format("2006-01-02 15:04:05")))

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("• <b>%s</b>\n    Buy: %s — Sell: %s",
			html.EscapeString(rec.Name), formatAmount(rec.Buy), formatAmount(rec.Sell)))
	}
	sb.WriteString(strings.Join(lines, "\n"))
	return sb.String()
}

func formatAmount(v *int64) string {
	if v == nil {
		return "-"
	}
	return printer.Sprintf("%d", *v)
}
