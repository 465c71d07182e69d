package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"salesops-backend/internal/dashboard"
	"salesops-backend/internal/notify"
)

var (
	orderNos    []string
	colorChoice map[string]string
	produced    map[string]int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the reconciled pending orders, grouped",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()
		printView(cmd.OutOrStdout(), b.View())
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [KEY...]",
	Short: "Request customer verification for rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()
		if err := selectRows(cmd, b, args); err != nil {
			return err
		}
		n, err := b.RequestVerification(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "requested verification for %d row(s)\n", n)
		return nil
	},
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch [KEY...]",
	Short: "Record rows as dispatched",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()
		if err := selectRows(cmd, b, args); err != nil {
			return err
		}
		for key, qty := range produced {
			if !b.SetProducedQty(key, qty) {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipping produced quantity for %s: not visible\n", key)
			}
		}
		n, err := b.SaveDispatched(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "dispatched %d row(s)\n", n)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel KEY|--order ORDER_NO",
	Short: "Cancel an order",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		targets := append([]string(nil), args...)
		for _, no := range orderNos {
			if key := firstKeyOfOrder(b.View(), no); key != "" {
				targets = append(targets, key)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "order %s is not visible\n", no)
			}
		}
		if len(targets) == 0 {
			return fmt.Errorf("nothing to cancel: pass a row key or --order")
		}
		for _, key := range targets {
			if err := b.CancelOrder(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s\n", key)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow verification confirmations from other sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		sub := notify.NewWSSubscriber(api.EventsURL(), logger)
		out := cmd.OutOrStdout()
		// One handler so the summary is printed after the merge.
		detach := sub.Subscribe(func(ev notify.Event) {
			b.ApplyEvent(ev)
			v := b.View()
			fmt.Fprintf(out, "%s %s\n  visible=%d total=%d pending=%d\n", ev.Type, ev.Key, len(v.Rows), v.Total, v.Pending)
		})
		defer detach()

		printView(out, b.View())
		fmt.Fprintf(out, "watching %s (Ctrl-C to stop)\n", api.EventsURL())
		return sub.Run(cmd.Context())
	},
}

func init() {
	for _, c := range []*cobra.Command{verifyCmd, dispatchCmd, cancelCmd} {
		c.Flags().StringSliceVar(&orderNos, "order", nil, "select every visible row of an order number")
	}
	for _, c := range []*cobra.Command{verifyCmd, dispatchCmd} {
		c.Flags().StringToStringVar(&colorChoice, "color", nil, "replacement color per row key (KEY=COLOR)")
	}
	dispatchCmd.Flags().StringToIntVar(&produced, "produced", nil, "produced quantity per row key (KEY=QTY)")
}

// selectRows checks the rows named by key or order number and applies any
// color choices.
func selectRows(cmd *cobra.Command, b *dashboard.Board, keys []string) error {
	picked := 0
	for _, key := range keys {
		if b.Select(key, true) {
			picked++
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "row %s is not visible\n", key)
	}
	for _, no := range orderNos {
		n := b.SelectOrder(no)
		if n == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "order %s is not visible\n", no)
		}
		picked += n
	}
	for key, color := range colorChoice {
		if b.SetColorChoice(key, color) {
			picked++
		}
	}
	if picked == 0 {
		return fmt.Errorf("no visible rows selected")
	}
	return nil
}

func firstKeyOfOrder(v dashboard.View, orderNo string) string {
	for _, r := range v.Rows {
		if strings.EqualFold(strings.TrimSpace(r.OrderNo), strings.TrimSpace(orderNo)) {
			return r.Key
		}
	}
	return ""
}
