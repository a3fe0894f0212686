package items

import (
	"strconv"
	"strings"
)

const exportDateLayout = "Jan 2, 2006 3:04 PM"

var exportHeader = []string{"Name", "Description", "Quantity", "Price", "Total Value", "Status", "Date Added"}

// ExportCSV renders the given (already filtered) items as CSV: a header row
// plus one row per item, every field double-quoted, rows newline-separated.
// encoding/csv only quotes fields that need it, so the fixed all-quoted
// layout is emitted by hand.
func ExportCSV(items []Item) string {
	rows := make([]string, 0, len(items)+1)
	rows = append(rows, csvRow(exportHeader))

	for _, it := range items {
		description := ""
		if it.Description != nil {
			description = *it.Description
		}
		price := "0"
		if it.Price != nil {
			price = it.Price.String()
		}
		rows = append(rows, csvRow([]string{
			it.Name,
			description,
			strconv.Itoa(it.Quantity),
			price,
			it.TotalValue().StringFixed(2),
			it.StockStatusLabel(),
			it.InsertedAt.Format(exportDateLayout),
		}))
	}

	return strings.Join(rows, "\n")
}

func csvRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
