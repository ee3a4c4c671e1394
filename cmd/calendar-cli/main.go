package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ms-calendar/internal/client"
	"ms-calendar/internal/viewstate"
)

// app is what every subcommand shares once the root flags are parsed.
type app struct {
	apiURL     string
	jsonOutput bool
	noColor    bool

	api   *client.Client
	state *viewstate.State
	now   func() time.Time
}

func defaultAPIURL() string {
	if s := os.Getenv("CALENDAR_API_URL"); s != "" {
		return s
	}
	return client.DefaultBaseURL
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	rootCmd := &cobra.Command{
		Use:           "calendar",
		Short:         "Terminal client for the calendar service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.api = client.New(a.apiURL)
			a.state = viewstate.New(a.api, a.now())
			setColor(!a.noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api", defaultAPIURL(), "events API base URL")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(&cobra.Group{ID: "views", Title: "Views:"}, &cobra.Group{ID: "events", Title: "Events:"})
	rootCmd.AddCommand(
		newMonthCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
		newWatchCmd(a),
	)
	return rootCmd
}

// refresh loads events into the view state, turning failures into the
// user-facing message.
func (a *app) refresh(ctx context.Context) error {
	if err := a.state.Refresh(ctx); err != nil {
		return fmt.Errorf("%s", a.state.Err())
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
