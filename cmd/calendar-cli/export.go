package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ms-calendar/internal/client"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Download all events as an iCalendar (.ics) file",
		GroupID: "events",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := a.api.ExportICS(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", client.UserMessage(err, "Failed to export events"))
			}

			path, _ := cmd.Flags().GetString("output")
			if path == "" || path == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(path, body, 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(body))
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "file to write (default stdout)")
	return cmd
}
