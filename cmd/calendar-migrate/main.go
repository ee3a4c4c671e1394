package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"ms-calendar/internal/config"
	"ms-calendar/internal/database"
	"ms-calendar/internal/database/migrations"
	"ms-calendar/internal/events/db"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
)

type migrateCtx struct {
	dir    string
	cfg    *config.Config
	log    *logger.Logger
	bunDB  *bun.DB
	runner *migrations.Runner
}

func newRootCmd() *cobra.Command {
	m := &migrateCtx{}

	rootCmd := &cobra.Command{
		Use:          "calendar-migrate",
		Short:        "Manage the calendar database schema",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			m.cfg = config.Load()
			m.log = logger.NewConsoleLogger(cmd.ErrOrStderr(), logger.ParseLevel(m.cfg.Log.Level))

			bunDB, err := database.Connect(cmd.Context(), m.cfg.Database,
				database.RetryPolicy{Attempts: database.DefaultAttempts, Delay: database.DefaultRetryDelay}, m.log)
			if err != nil {
				return err
			}
			m.bunDB = bunDB

			dir := m.dir
			if dir == "" {
				dir = m.cfg.Migrations.Dir
			}
			m.runner = migrations.NewRunner(bunDB, migrations.MigrateOptions{MigrationsDir: dir}, m.log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if m.runner != nil {
				// the postgres driver may close the shared handle as well
				if err := m.runner.Close(); err != nil {
					m.log.Warn("MIGRATE", err.Error())
				}
			}
			if m.bunDB != nil {
				m.bunDB.Close()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&m.dir, "dir", "", "migrations directory (default: embedded, or MIGRATIONS_DIR)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := m.runner.MigrateUp(); err != nil {
					return err
				}
				return m.printVersion(cmd)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration (drops the events table)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := m.runner.MigrateDown(); err != nil {
					return err
				}
				return m.printVersion(cmd)
			},
		},
		&cobra.Command{
			Use:   "to <version>",
			Short: "Migrate up or down to a specific version",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				if err := m.runner.MigrateTo(uint(v)); err != nil {
					return err
				}
				return m.printVersion(cmd)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return m.printVersion(cmd)
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert sample events for the current week",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := m.runner.MigrateUp(); err != nil {
					return err
				}
				store := db.New(m.bunDB, m.cfg.Database.QueryTimeout)
				n, err := seed(cmd.Context(), store, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d sample events\n", n)
				return nil
			},
		},
	)
	return rootCmd
}

func (m *migrateCtx) printVersion(cmd *cobra.Command) error {
	version, dirty, err := m.runner.Version()
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d (%s)\n", version, state)
	return nil
}

type inserter interface {
	Insert(ctx context.Context, in models.EventInput) (*models.Event, error)
}

type sampleEvent struct {
	title       string
	description string
	dayOffset   int
	hour        int
	priority    int
}

var samples = []sampleEvent{
	{"Team standup", "Daily sync", 0, 9, models.PriorityNormal},
	{"Quarterly planning", "Roadmap review with leads", 1, 14, models.PriorityHigh},
	{"Dentist", "", 2, 11, models.PriorityMedium},
	{"Release cut", "Freeze and tag", 3, 16, models.PriorityCritical},
	{"Gym", "", 3, 7, models.PriorityLow},
	{"1:1 with manager", "", 4, 10, models.PriorityNormal},
}

// seed inserts samples relative to the start of today in local time.
func seed(ctx context.Context, store inserter, now time.Time) (int, error) {
	y, mo, d := now.Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, now.Location())

	for i, s := range samples {
		start := today.AddDate(0, 0, s.dayOffset).Add(time.Duration(s.hour) * time.Hour)
		if _, err := store.Insert(ctx, models.NewEventInput(s.title, s.description, start, s.priority)); err != nil {
			return i, fmt.Errorf("seed %q: %w", s.title, err)
		}
	}
	return len(samples), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
