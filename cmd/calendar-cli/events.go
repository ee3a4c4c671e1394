package main

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ms-calendar/internal/client"
	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"
	"ms-calendar/internal/viewstate"
)

// mutationResult separates a failed change from a failed reload after a
// successful change; the latter is only a warning.
func mutationResult(a *app, cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	var re *viewstate.RefreshError
	if errors.As(err, &re) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", a.state.Err())
		return nil
	}
	return fmt.Errorf("%s", a.state.Err())
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid event id %q", s)
	}
	return id, nil
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "show <id>",
		Short:   "Show one event",
		GroupID: "events",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ev, err := a.api.GetEvent(cmd.Context(), id)
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("event %d not found", id)
				}
				return fmt.Errorf("%s", client.UserMessage(err, "Failed to load event"))
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), ev)
			}
			printEvent(cmd.OutOrStdout(), *ev)
			return nil
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create <title>",
		Short:   "Create an event (one hour long)",
		GroupID: "events",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawStart, _ := cmd.Flags().GetString("start")
			start, err := utils.ParseDateTime(rawStart)
			if err != nil {
				return err
			}
			description, _ := cmd.Flags().GetString("description")
			priority, _ := cmd.Flags().GetInt("priority")

			in := models.NewEventInput(args[0], description, start, priority)
			out := cmd.OutOrStdout()
			if !a.jsonOutput {
				fmt.Fprintf(out, "Ends: %s\n", utils.FormatLocal(in.EndDate.Time))
			}

			ev, err := a.state.Create(cmd.Context(), in)
			if err := mutationResult(a, cmd, err); err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(out, ev)
			}
			fmt.Fprintf(out, "Created event %d: %s\n", ev.ID, ev.Title)
			return nil
		},
	}
	cmd.Flags().StringP("start", "s", "", "start, e.g. 2024-01-01T09:00 (local) or RFC 3339")
	cmd.Flags().StringP("description", "d", "", "description")
	cmd.Flags().IntP("priority", "p", models.DefaultPriority, "priority 1 (Low) to 5 (Critical)")
	cmd.MarkFlagRequired("start")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Edit an event; unchanged fields keep their current values",
		GroupID: "events",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := a.api.GetEvent(cmd.Context(), id)
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("event %d not found", id)
				}
				return fmt.Errorf("%s", client.UserMessage(err, "Failed to load event"))
			}

			// the API replaces every field, so start from the stored values
			title, description, start, priority := current.Title, current.Description, current.StartDate, current.Priority
			flags := cmd.Flags()
			if flags.Changed("title") {
				title, _ = flags.GetString("title")
			}
			if flags.Changed("description") {
				description, _ = flags.GetString("description")
			}
			if flags.Changed("start") {
				raw, _ := flags.GetString("start")
				if start, err = utils.ParseDateTime(raw); err != nil {
					return err
				}
			}
			if flags.Changed("priority") {
				priority, _ = flags.GetInt("priority")
			}

			ev, err := a.state.Update(cmd.Context(), id, models.NewEventInput(title, description, start, priority))
			if err := mutationResult(a, cmd, err); err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), ev)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated event %d\n", ev.ID)
			printEvent(cmd.OutOrStdout(), *ev)
			return nil
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().StringP("description", "d", "", "new description (empty clears it)")
	cmd.Flags().StringP("start", "s", "", "new start; the end moves with it")
	cmd.Flags().IntP("priority", "p", models.DefaultPriority, "new priority 1-5")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete an event",
		GroupID: "events",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to delete event %d? [y/N] ", id)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if ans := strings.ToLower(strings.TrimSpace(answer)); ans != "y" && ans != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			if err := mutationResult(a, cmd, a.state.Delete(cmd.Context(), id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted event %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	return cmd
}
