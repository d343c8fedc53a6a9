package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chauffeurjet/dispatch/core/ident"
	"github.com/chauffeurjet/dispatch/core/model"
	"github.com/chauffeurjet/dispatch/core/recurrence"
)

var (
	seriesStart       string
	seriesDuration    int
	seriesKind        string
	seriesDays        []string
	seriesOccurrences int
	seriesEndDate     string
)

var seriesCmd = &cobra.Command{
	Use:   "series-preview",
	Short: "Preview the occurrence dates of a repeat pattern",
	RunE:  runSeriesPreview,
}

func init() {
	seriesCmd.Flags().StringVar(&seriesStart, "start", "", "first occurrence start time (RFC3339)")
	seriesCmd.Flags().IntVar(&seriesDuration, "duration", 60, "booking duration in minutes")
	seriesCmd.Flags().StringVar(&seriesKind, "kind", "weekly", "pattern kind: daily, weekly or custom")
	seriesCmd.Flags().StringSliceVar(&seriesDays, "days", nil, "weekdays for a custom pattern, e.g. Monday,Friday")
	seriesCmd.Flags().IntVar(&seriesOccurrences, "occurrences", 0, "number of occurrences")
	seriesCmd.Flags().StringVar(&seriesEndDate, "end", "", "inclusive end date (2006-01-02)")
	rootCmd.AddCommand(seriesCmd)
}

func runSeriesPreview(cmd *cobra.Command, args []string) error {
	start, err := time.Parse(time.RFC3339, seriesStart)
	if err != nil {
		return fmt.Errorf("parse start: %w", err)
	}
	pattern := recurrence.Pattern{
		Kind:        recurrence.Kind(seriesKind),
		Occurrences: seriesOccurrences,
	}
	if seriesEndDate != "" {
		end, err := time.Parse("2006-01-02", seriesEndDate)
		if err != nil {
			return fmt.Errorf("parse end date: %w", err)
		}
		pattern.EndDate = end
	}
	for _, d := range seriesDays {
		day, err := parseWeekday(d)
		if err != nil {
			return err
		}
		pattern.Days = append(pattern.Days, day)
	}

	template := model.Booking{
		VehicleTypeID:   "preview",
		StartTime:       start,
		DurationMinutes: seriesDuration,
		Pickup:          "A",
		Dropoff:         "B",
	}
	gen := recurrence.NewGenerator(ident.NewCounter(0))
	series, err := gen.Expand(template, pattern, nil)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "group %s: %d occurrence(s)\n", series.GroupID, len(series.Bookings))
	for _, b := range series.Bookings {
		fmt.Fprintf(out, "%2d/%d  %s  %s\n", b.RepeatIndex, b.RepeatTotal, b.DisplayID, b.StartTime.Format("Mon 2006-01-02 15:04"))
	}
	return nil
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s == d.String() || s == d.String()[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
