package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/client"
	"ms-calendar/internal/kafka"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"
)

func defaultBrokers() string {
	if s := os.Getenv("KAFKA_BROKERS"); s != "" {
		return s
	}
	return "localhost:9092"
}

func defaultTopic() string {
	if s := os.Getenv("KAFKA_TOPIC_EVENTS"); s != "" {
		return s
	}
	return "calendar.events"
}

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Follow the event change feed until interrupted",
		GroupID: "views",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			priorityArg, _ := cmd.Flags().GetString("priority")
			filter, err := calendar.ParsePriorityFilter(priorityArg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			show := func(change models.EventChange) {
				if !filter.Match(change.Event) {
					return
				}
				if a.jsonOutput {
					printJSON(out, change)
					return
				}
				printChange(out, change)
			}

			switch source {
			case "api":
				fmt.Fprintf(out, "Watching %s/events/stream (Ctrl-C to stop)\n", a.api.BaseURL)
				if err := a.api.StreamChanges(ctx, int(filter), show); err != nil {
					return fmt.Errorf("%s", client.UserMessage(err, "Change stream failed."))
				}
				return nil
			case "kafka":
				brokers, _ := cmd.Flags().GetString("brokers")
				topic, _ := cmd.Flags().GetString("topic")
				group, _ := cmd.Flags().GetString("group")

				log := logger.NewConsoleLogger(cmd.ErrOrStderr(), logger.WARN)
				consumer := kafka.NewConsumer(splitList(brokers), topic, group, log)
				defer consumer.Close()

				fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", topic)
				return consumer.Start(ctx, show)
			default:
				return fmt.Errorf("unknown source %q (want api or kafka)", source)
			}
		},
	}
	cmd.Flags().String("source", "api", "where to read changes from: api (server-sent events) or kafka")
	cmd.Flags().String("priority", "all", "only show changes to events of this priority (1-5 or all)")
	cmd.Flags().String("brokers", defaultBrokers(), "comma-separated Kafka brokers")
	cmd.Flags().String("topic", defaultTopic(), "change feed topic")
	cmd.Flags().String("group", "", "consumer group (empty follows from the latest offset)")
	return cmd
}

func printChange(w io.Writer, c models.EventChange) {
	verb := strings.TrimPrefix(string(c.Type), "event.")
	fmt.Fprintf(w, "%s  %-8s #%d %s [%s] %s\n",
		c.OccurredAt.Local().Format("15:04:05"),
		verb,
		c.Event.ID,
		c.Event.Title,
		priorityLabel(c.Event.Priority),
		utils.FormatLocal(c.Event.StartDate),
	)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
