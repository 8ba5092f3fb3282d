package render

import (
	"strings"
	"testing"
	"time"

	"goldwatch/internal/record"
)

func TestMessage(t *testing.T) {
	buy, sell := int64(14780000), int64(14850000)
	records := []record.Record{
		{Name: "SJC 1L", Buy: &buy, Sell: &sell},
		{Name: "Ring <9999>", Buy: &buy},
	}
	at := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)

	got := Message("Gold price update", records, at)

	if !strings.Contains(got, "<b>Gold price update</b>") {
		t.Fatalf("missing title: %q", got)
	}
	if !strings.Contains(got, "2026-08-28 09:30:00") {
		t.Fatalf("missing timestamp: %q", got)
	}
	if !strings.Contains(got, "Buy: 14,780,000 — Sell: 14,850,000") {
		t.Fatalf("amounts not grouped: %q", got)
	}
	if !strings.Contains(got, "Ring &lt;9999&gt;") {
		t.Fatalf("name not HTML-escaped: %q", got)
	}
	if !strings.Contains(got, "Sell: -") {
		t.Fatalf("absent amount should render as a dash: %q", got)
	}
}

func TestChart(t *testing.T) {
	buy, sell := int64(1000), int64(2000)
	records := []record.Record{
		{Name: "A", Buy: &buy, Sell: &sell},
		{Name: "B", Buy: &buy},
	}

	png, err := Chart("Gold prices", records)
	if err != nil {
		t.Fatalf("chart render failed: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("chart should produce bytes")
	}
	// PNG magic header.
	if string(png[1:4]) != "PNG" {
		t.Fatalf("output is not a PNG: % x", png[:8])
	}
}

func TestChartNoRecords(t *testing.T) {
	if _, err := Chart("x", nil); err == nil {
		t.Fatal("empty record set should fail")
	}
}
