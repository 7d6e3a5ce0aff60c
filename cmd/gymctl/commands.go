// cmd/gymctl/commands.go
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"gymdesk/internal/clients"
	"gymdesk/internal/membership"
)

type clientFunc func() *clients.GymClient

func newPlansCmd(client clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List the plan catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := client().Plans(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load plans: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPLAN\tDAYS\tPRICE")
			for _, p := range catalog {
				fmt.Fprintf(w, "%s\t%s\t%d\t$%s\n", p.ID, p.Label, p.DurationDays, p.Price.StringFixed(2))
			}
			return w.Flush()
		},
	}
}

func newSummaryCmd(client clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show members and income",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := client().Summary(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load summary: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Members\t%d (%d active, %d inactive)\n", s.TotalMembers, s.ActiveMembers, s.InactiveMembers)
			fmt.Fprintf(w, "Visits today\t%d\n", s.VisitsToday)
			fmt.Fprintf(w, "Today\t$%s\t%d payments\n", s.Today.Amount.StringFixed(2), s.Today.Count)
			fmt.Fprintf(w, "Last 7 days\t$%s\t%d payments\n", s.Week.Amount.StringFixed(2), s.Week.Count)
			fmt.Fprintf(w, "Last 30 days\t$%s\t%d payments\n", s.Month.Amount.StringFixed(2), s.Month.Count)
			fmt.Fprintf(w, "Total\t$%s\t%d payments\n", s.Total.StringFixed(2), s.Count)
			fmt.Fprintf(w, "Daily average\t$%s\n", s.AverageDaily.StringFixed(2))
			fmt.Fprintf(w, "Monthly projection\t$%s\n", s.MonthlyProjection.StringFixed(2))
			for _, p := range s.ByPlan {
				fmt.Fprintf(w, "  %s\t$%s\t%s%%\n", p.Label, p.Amount.StringFixed(2), p.Percent.StringFixed(2))
			}
			return w.Flush()
		},
	}
}

func newTodayCmd(client clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List today's payments and walk-ins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := client().Today(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load today: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tNAME\tCONCEPT\tAMOUNT")
			for _, it := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t$%s\n", it.At.Local().Format(time.Kitchen), it.Name, it.Label, it.Amount.StringFixed(2))
			}
			return w.Flush()
		},
	}
}

func newExportCmd(client clientFunc) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:       "export {payments|visits}",
		Short:     "Download a CSV export",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{clients.ExportPayments, clients.ExportVisits},
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := client().DownloadCSV(cmd.Context(), args[0], w); err != nil {
				return fmt.Errorf("failed to export %s: %w", args[0], err)
			}
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, stdout when empty")
	return cmd
}

func newBackfillCmd(client clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:       "backfill {visit-names|payment-names}",
		Short:     "Fill display names missing on old records",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{clients.BackfillVisitNames, clients.BackfillPaymentNames},
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := client().Backfill(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("backfill failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d records\n", n)
			return nil
		},
	}
}

func newWalkInCmd(client clientFunc) *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   "walkin NAME",
		Short: "Register a walk-in visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := membership.QuickVisitInput{Name: args[0]}
			if amount != "" {
				d, err := decimal.NewFromString(amount)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", amount, err)
				}
				in.Amount = &d
			}
			qv, err := client().RecordQuickVisit(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("failed to register walk-in: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s registered, $%s\n", qv.Name, qv.Amount.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount charged, day pass price when empty")
	return cmd
}
