package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"salesops-backend/internal/dashboard"
)

func printView(w io.Writer, v dashboard.View) {
	if v.Error != "" {
		fmt.Fprintf(w, "error: %s\n", v.Error)
	}
	if v.Empty {
		fmt.Fprintln(w, "No pending orders match the current filters.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, g := range v.Groups {
		fmt.Fprintf(tw, "%s\t(%d rows, qty %d)\t\t\t\t\n", g.Key, g.Count, g.Qty)
		for _, r := range g.Rows {
			stock := "-"
			if r.StockTotal != nil {
				stock = fmt.Sprintf("%g", *r.StockTotal)
			}
			note := r.DispatchNote
			if r.VerifiedAt != nil {
				note = "verified " + r.VerifiedAt.Format("2006-01-02")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\tstock %s\t%s\n", r.OrderDate, r.OrderNo, r.Item+"/"+r.Color, r.OrderQty, stock, note)
			fmt.Fprintf(tw, "    %s\t\t\t\t\t\n", r.Key)
		}
	}
	tw.Flush()
	fmt.Fprintf(w, "showing %d of ~%d (%d pending verification)\n", len(v.Rows), v.Total, v.Pending)
}
