package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"goldwatch/internal/snapshot"
)

// Show prints the stored snapshot as an aligned table.
func (a *App) Show(ctx context.Context) error {
	st, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	text, err := st.Load(ctx)
	if err != nil {
		return err
	}

	records := snapshot.ParseCanonical(text)
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no stored snapshot")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Product\tBuy\tSell")
	for _, rec := range records {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", rec.Name, formatOptional(rec.Buy), formatOptional(rec.Sell))
	}
	return writer.Flush()
}

func formatOptional(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
