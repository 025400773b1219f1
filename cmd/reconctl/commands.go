package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/evend-recon/internal/app"
	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/scheduler"
)

func runCmd() *cobra.Command {
	var (
		dateFlag string
		actor    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile one calendar date",
		Long: `Reconcile the ledger against the bank statement for one date.

Examples:
  # Reconcile yesterday (UTC)
  reconctl run

  # Re-run a specific date
  reconctl run --date 2024-03-01 --actor ops-lead`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			date := domain.DateOf(time.Now()).AddDays(-1)
			if dateFlag != "" {
				d, err := domain.ParseDate(dateFlag)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				date = d
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				summary, err := a.Reconciliation.Run(ctx, date, actor)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{
					"date":              summary.Date.String(),
					"status":            summary.Status,
					"system_count":      summary.SystemCount,
					"system_amount":     domain.FormatAmount(summary.SystemAmount),
					"bank_count":        summary.BankCount,
					"bank_amount":       domain.FormatAmount(summary.BankAmount),
					"adjustment_amount": domain.FormatAmount(summary.AdjustmentAmount),
					"discrepancy_count": summary.DiscrepancyCount,
					"variance":          domain.FormatAmount(summary.Variance),
				})
			})
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "date to reconcile, YYYY-MM-DD (default yesterday UTC)")
	cmd.Flags().StringVar(&actor, "actor", scheduler.SystemActor, "name recorded as processed_by")
	return cmd
}

func statementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statements",
		Short: "Vendor statement operations",
	}

	var period string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate draft statements for every active vendor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := domain.ParsePeriod(period)
			if err != nil {
				return fmt.Errorf("--period: %w", err)
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				out, err := a.Statements.Generate(ctx, p)
				if err != nil {
					return err
				}
				rows := make([]map[string]any, 0, len(out))
				for _, st := range out {
					rows = append(rows, map[string]any{
						"vendor_id":    st.VendorID,
						"status":       st.Status,
						"total_amount": domain.FormatAmount(st.TotalAmount),
						"commission":   domain.FormatAmount(st.Commission),
						"net_amount":   domain.FormatAmount(st.NetAmount),
					})
				}
				return printJSON(cmd, rows)
			})
		},
	}
	generate.Flags().StringVar(&period, "period", "", "statement month, YYYY-MM")
	_ = generate.MarkFlagRequired("period")

	cmd.AddCommand(generate)
	return cmd
}

func reportCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise reconciliation outcomes over a date range",
		Long: `Sum the stored daily summaries in [from, to] and count their open and
resolved exceptions.

Examples:
  reconctl report --from 2024-03-01 --to 2024-03-31`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := domain.ParseDate(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			t, err := domain.ParseDate(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				rep, err := a.Reconciliation.Report(ctx, f, t)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{
					"from":                   rep.From.String(),
					"to":                     rep.To.String(),
					"currency":               rep.Currency,
					"days":                   rep.Days,
					"days_by_status":         rep.DaysByStatus,
					"variance":               domain.FormatAmount(rep.Variance),
					"exceptions":             rep.Exceptions,
					"exceptions_by_status":   rep.ExceptionsByStatus,
					"exceptions_by_kind":     rep.ExceptionsByKind,
					"exceptions_by_priority": rep.ExceptionsByPriority,
				})
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
