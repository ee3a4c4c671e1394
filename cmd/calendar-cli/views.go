package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ms-calendar/internal/calendar"
)

func addPriorityFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("priority", "p", "all", "show only this priority (all, 1-5)")
}

func applyPriorityFlag(a *app, cmd *cobra.Command) error {
	raw, _ := cmd.Flags().GetString("priority")
	f, err := calendar.ParsePriorityFilter(raw)
	if err != nil {
		return err
	}
	a.state.SetFilter(f)
	return nil
}

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List events, highest priority first",
		GroupID: "views",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyPriorityFlag(a, cmd); err != nil {
				return err
			}
			if err := a.refresh(cmd.Context()); err != nil {
				return err
			}

			events := a.state.ListView()
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return printJSON(out, events)
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "No events found.")
			} else {
				printEventTable(out, events)
			}
			fmt.Fprintf(out, "\n%s\n", a.state.Summary())
			return nil
		},
	}
	addPriorityFlag(cmd)
	return cmd
}

func newMonthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "month [YYYY-MM]",
		Short:   "Show a month grid (defaults to the current month)",
		GroupID: "views",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyPriorityFlag(a, cmd); err != nil {
				return err
			}
			if len(args) == 1 {
				m, err := time.Parse("2006-01", args[0])
				if err != nil {
					return fmt.Errorf("invalid month %q: want YYYY-MM", args[0])
				}
				a.state.SetMonth(m.Year(), m.Month())
			}
			next, _ := cmd.Flags().GetInt("next")
			for i := 0; i < next; i++ {
				a.state.NextMonth()
			}
			prev, _ := cmd.Flags().GetInt("prev")
			for i := 0; i < prev; i++ {
				a.state.PrevMonth()
			}

			if err := a.refresh(cmd.Context()); err != nil {
				return err
			}

			grid := a.state.MonthGrid(a.now())
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), grid)
			}
			printMonth(cmd.OutOrStdout(), grid)
			fmt.Fprintln(cmd.OutOrStdout(), a.state.Summary())
			return nil
		},
	}
	addPriorityFlag(cmd)
	cmd.Flags().Int("next", 0, "move forward this many months")
	cmd.Flags().Int("prev", 0, "move back this many months")
	return cmd
}
