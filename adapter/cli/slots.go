package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reserva/internal/reservation/application/queries"
	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
)

var (
	slotsDate     string
	slotsDuration int
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Show free start times for a date",
	Long: `Show the start times a booking of the given duration could take.

Examples:
  reserva slots                          # Today, 1 hour
  reserva slots --date 2024-06-10        # A specific date
  reserva slots --duration 90            # 1.5 hours`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.AvailableSlotsHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		if _, err := domain.LookupDuration(slotsDuration); err != nil {
			return fmt.Errorf("invalid duration %d: choose one of %s", slotsDuration, durationChoices())
		}
		date, err := parseDateFlag(slotsDate, app.Location)
		if err != nil {
			return err
		}

		slots, err := app.AvailableSlotsHandler.Handle(cmd.Context(), queries.AvailableSlotsQuery{
			Date:            date,
			DurationMinutes: slotsDuration,
		})
		if err != nil {
			return fmt.Errorf("failed to list slots: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(slots) == 0 {
			fmt.Fprintf(out, "No free slots on %s for %d minutes.\n", date.Format(domain.DateLayout), slotsDuration)
			return nil
		}
		fmt.Fprintf(out, "Free slots on %s for %d minutes:\n", date.Format(domain.DateLayout), slotsDuration)
		for _, slot := range slots {
			fmt.Fprintf(out, "  %s - %s\n", slot, slot.Add(slotsDuration))
		}
		return nil
	},
}

func init() {
	slotsCmd.Flags().StringVarP(&slotsDate, "date", "d", "", "date (YYYY-MM-DD), defaults to today")
	slotsCmd.Flags().IntVar(&slotsDuration, "duration", 60, "duration in minutes")
	rootCmd.AddCommand(slotsCmd)
}

// parseDateFlag parses a YYYY-MM-DD flag in loc; empty means today.
func parseDateFlag(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return domain.DateOf(time.Now().In(loc)), nil
	}
	date, err := domain.ParseDate(value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return date, nil
}

func durationChoices() string {
	options := domain.DurationOptions()
	choices := make([]string, len(options))
	for i, opt := range options {
		choices[i] = fmt.Sprint(opt.Minutes)
	}
	return strings.Join(choices, ", ")
}
