package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"
)

func setColor(enabled bool) {
	color.NoColor = !enabled
}

// priorityColor renders text in the priority's table color.
func priorityColor(level int) *color.Color {
	r, g, b := hexRGB(models.PriorityInfo(level).Color)
	return color.RGB(r, g, b)
}

func hexRGB(hex string) (int, int, int) {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 107, 114, 128
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func priorityLabel(level int) string {
	return priorityColor(level).Sprint(models.PriorityInfo(level).Name)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printEvent(w io.Writer, ev models.Event) {
	fmt.Fprintf(w, "ID:          %d\n", ev.ID)
	fmt.Fprintf(w, "Title:       %s\n", ev.Title)
	if ev.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", ev.Description)
	}
	fmt.Fprintf(w, "Priority:    %s (%d)\n", priorityLabel(ev.Priority), ev.Priority)
	fmt.Fprintf(w, "Start:       %s\n", utils.FormatLocal(ev.StartDate))
	fmt.Fprintf(w, "End:         %s\n", utils.FormatLocal(ev.EndDate))
	if !ev.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:  %s\n", ev.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if !ev.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated At:  %s\n", ev.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}

func printEventTable(w io.Writer, events []models.Event) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRIORITY\tSTART\tEND\tTITLE")
	for _, ev := range events {
		title := ev.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			ev.ID,
			models.PriorityInfo(ev.Priority).Name,
			utils.FormatLocal(ev.StartDate),
			ev.EndDate.Local().Format("15:04"),
			title,
		)
	}
	tw.Flush()
}

const cellWidth = 14

// printMonth draws the grid one week per block: a line of day numbers, then
// up to three event lines and a "+N more" line.
func printMonth(w io.Writer, grid calendar.MonthGrid) {
	header := fmt.Sprintf("%s %d", grid.Month, grid.Year)
	fmt.Fprintf(w, "%s\n\n", color.New(color.Bold).Sprint(header))
	for _, d := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		fmt.Fprint(w, pad(d, cellWidth))
	}
	fmt.Fprintln(w)

	for _, week := range grid.Weeks() {
		for _, c := range week {
			label := fmt.Sprintf("%2d", c.Day)
			switch {
			case c.IsToday:
				label = color.New(color.FgBlue, color.Bold).Sprint(label + "*")
			case !c.InMonth:
				label = color.New(color.FgHiBlack).Sprint(label)
			}
			fmt.Fprint(w, padVisible(label, labelWidth(c.IsToday), cellWidth))
		}
		fmt.Fprintln(w)

		for line := 0; line <= calendar.MaxVisibleEvents; line++ {
			var b strings.Builder
			used := false
			for _, c := range week {
				switch {
				case line < len(c.Events):
					ev := c.Events[line]
					text := truncate(ev.Title, cellWidth-2)
					b.WriteString(padVisible(priorityColor(ev.Priority).Sprint(text), len([]rune(text)), cellWidth))
					used = true
				case line == calendar.MaxVisibleEvents && c.Overflow > 0:
					b.WriteString(pad(fmt.Sprintf("+%d more", c.Overflow), cellWidth))
					used = true
				default:
					b.WriteString(pad("", cellWidth))
				}
			}
			if used {
				fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
			}
		}
		fmt.Fprintln(w)
	}
}

func labelWidth(today bool) int {
	if today {
		return 3
	}
	return 2
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func pad(s string, width int) string {
	return padVisible(s, len([]rune(s)), width)
}

// padVisible pads s, whose printed width is visible, out to width columns.
func padVisible(s string, visible, width int) string {
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}
