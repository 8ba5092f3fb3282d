package render

import (
	"bytes"
	"errors"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"goldwatch/internal/record"
)

// Chart renders the record set as a PNG bar chart of sell prices (buy when
// the sell side is absent), one bar per product.
func Chart(title string, records []record.Record) ([]byte, error) {
	bars := make([]chart.Value, 0, len(records))
	for _, rec := range records {
		amount := rec.Sell
		if amount == nil {
			amount = rec.Buy
		}
		if amount == nil {
			continue
		}
		bars = append(bars, chart.Value{
			Label: shortenLabel(rec.Name),
			Value: float64(*amount),
		})
	}
	if len(bars) == 0 {
		return nil, errors.New("no chartable records")
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    1280,
		Height:   720,
		BarWidth: 60,
		XAxis: chart.Style{
			TextRotationDegrees: 45,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return printer.Sprintf("%d", int64(f))
				}
				return fmt.Sprint(v)
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func shortenLabel(name string) string {
	const max = 18
	runes := []rune(name)
	if len(runes) <= max {
		return name
	}
	return string(runes[:max-1]) + "…"
}
