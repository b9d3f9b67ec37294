package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"expensetracker/internal/core"

	"github.com/dustin/go-humanize"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes tab-separated rows aligned in columns.
func table(w io.Writer, header string, rows func(tw io.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func amount(e core.Expense) string {
	if e.TotalAmount == nil {
		return "-"
	}
	if e.Currency == "" {
		return e.TotalAmount.String()
	}
	return e.TotalAmount.String() + " " + e.Currency
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
