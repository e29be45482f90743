package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"budgeteer/internal/core"
)

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Print savings insights across a user's budget history",
		RunE:  runInsights,
	}
	cmd.Flags().String("user-id", "", "user id")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func runInsights(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user-id")

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.Close()

	svc := be.Services()
	currency := core.DefaultCurrency
	if u, err := svc.Profile(ctx, userID); err == nil {
		currency = u.Currency
	} else if core.Kind(err) != core.ErrNotFound {
		return errors.New(core.UserMessage(err))
	}

	in, err := svc.Insights(ctx, userID)
	if err != nil {
		return errors.New(core.UserMessage(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderInsights(in, currency))
	return nil
}

func renderInsights(in core.Insights, currency string) string {
	if in.TotalMonths == 0 {
		return warnStyle.Render("No budget history yet.")
	}

	var b strings.Builder
	b.WriteString(renderTitle("Savings insights") + "\n")
	b.WriteString(renderStat("Months tracked", strconv.Itoa(in.TotalMonths)) + "\n")
	b.WriteString(renderStat("Average income", core.FormatMoney(in.AverageIncome, currency)) + "\n")
	b.WriteString(renderStat("Average savings rate", core.FormatPercent(in.AverageSavingsRate)) + "\n")
	b.WriteString(renderStat("Average saved", core.FormatMoney(in.AverageSavingsAmount, currency)) + "\n")
	b.WriteString(renderStat("Total saved", core.FormatMoney(in.TotalSaved, currency)) + "\n")

	low := strconv.Itoa(len(in.MonthsWithLowSavings))
	if len(in.MonthsWithLowSavings) > 0 {
		low = warnStyle.Render(low)
	}
	b.WriteString(renderStat("Months below 20%", low) + "\n")

	if len(in.MonthsWithLowSavings) > 0 {
		rows := make([][]string, 0, len(in.MonthsWithLowSavings))
		for _, t := range in.MonthsWithLowSavings {
			rows = append(rows, []string{t.YearMonth.Short(), core.FormatPercent(t.SavingsRate), t.AdjustmentReason})
		}
		b.WriteString("\n" + renderTable([]string{"Low month", "Rate", "Reason"}, rows) + "\n")
	}

	if len(in.TopCategories) > 0 {
		rows := make([][]string, 0, len(in.TopCategories))
		for _, c := range in.TopCategories {
			rows = append(rows, []string{c.Name, core.FormatMoney(c.Total, currency)})
		}
		b.WriteString("\n" + renderTable([]string{"Top category", "Total"}, rows) + "\n")
	}

	rows := make([][]string, 0, len(in.MonthlyTrends))
	for _, t := range in.MonthlyTrends {
		rows = append(rows, []string{
			t.YearMonth.Short(),
			core.FormatMoney(t.Income, currency),
			core.FormatPercent(t.SavingsRate),
			core.FormatMoney(t.SavingsAmount, currency),
			core.FormatMoney(t.TotalAllocated, currency),
		})
	}
	b.WriteString("\n" + renderTable([]string{"Month", "Income", "Rate", "Saved", "Allocated"}, rows))
	return b.String()
}
