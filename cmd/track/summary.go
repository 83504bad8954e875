package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show totals and ranked breakdowns for a date range",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	r, err := resolveRange()
	if err != nil {
		return err
	}

	service, closeService, err := openService()
	if err != nil {
		return err
	}
	defer closeService()

	result, err := service.Summarize(cmd.Context(), r)
	if err != nil {
		return err
	}

	fmt.Printf("%s to %s\n", r.Start.Key(), r.End.Key())
	fmt.Println("--------------------------------")
	fmt.Printf("%-24s%.2f h\n", "Total time", result.TotalHours)
	fmt.Printf("%-24s%s\n", "Total expenses", result.TotalMoney.Decimal())

	tasks := result.RankedTasks()
	if len(tasks) > 0 {
		fmt.Println("\nTime by task")
		for _, share := range tasks {
			fmt.Printf("  %-22s%.2f h\n", share.Task, share.Hours)
		}
	}

	expenses := result.RankedExpenses()
	if len(expenses) > 0 {
		fmt.Println("\nExpenses")
		for _, share := range expenses {
			fmt.Printf("  %-22s%s\n", share.Description, share.Amount.Decimal())
		}
	}

	return nil
}
