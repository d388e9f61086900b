package console

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rl1809/inventory-console/internal/core/domain"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printProducts(w io.Writer, products []domain.Product) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSKU\tNAME\tCATEGORY\tSUPPLIER\tSTOCK\tMIN\tMAX\tFILL\tSTATUS\tVALUE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%.0f%%\t%s\t%s\n",
			p.ID, p.SKU, p.Name, p.Category, p.Supplier,
			p.CurrentStock, p.MinStock, p.MaxStock, p.FillLevel()*100,
			p.Status, p.StockValue().StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d product(s)\n", len(products))
	return err
}

func printStats(w io.Writer, stats domain.Stats) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total products\t%d\n", stats.TotalProducts)
	fmt.Fprintf(tw, "In stock\t%d\n", stats.InStock)
	fmt.Fprintf(tw, "Low stock\t%d\n", stats.LowStock)
	fmt.Fprintf(tw, "Out of stock\t%d\n", stats.OutOfStock)
	fmt.Fprintf(tw, "Total value\t%s\n", stats.TotalValue.StringFixed(2))
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(stats.LowStockItems) == 0 {
		return nil
	}

	fmt.Fprintln(w, "\nAt or below minimum:")
	tw = newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSTOCK\tMIN")
	for _, p := range stats.LowStockItems {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", p.ID, p.Name, p.CurrentStock, p.MinStock)
	}
	return tw.Flush()
}

func printDashboard(w io.Writer, stats domain.Stats, byCategory []domain.CategoryStock, chartData, chartType string) error {
	if err := printStats(w, stats); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nStock by category (%s chart of %s):\n", chartType, chartData)
	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tSTOCK")
	for _, c := range byCategory {
		fmt.Fprintf(tw, "%s\t%d\n", c.Name, c.Stock)
	}
	return tw.Flush()
}
