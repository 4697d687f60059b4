package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reserva/internal/reservation/application/queries"
	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
)

var (
	reservationsDate string
	reservationsDays int
)

var reservationsCmd = &cobra.Command{
	Use:     "reservations",
	Aliases: []string{"ls"},
	Short:   "List reservations",
	Long: `List reservations for a date, or for several days starting at it.

Examples:
  reserva reservations                      # Today
  reserva reservations --date 2024-06-10    # A specific date
  reserva reservations --days 14            # The whole booking window`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.ListReservationsHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		if reservationsDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}

		from, err := parseDateFlag(reservationsDate, app.Location)
		if err != nil {
			return err
		}
		query := queries.ListReservationsQuery{From: from}
		if reservationsDays > 1 {
			query.To = from.AddDate(0, 0, reservationsDays-1)
		}

		reservations, err := app.ListReservationsHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list reservations: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(reservations) == 0 {
			fmt.Fprintln(out, "No reservations.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tTIME\tPRICE\tSTATUS\tCONTACT\tUSER")
		for _, r := range reservations {
			status := "pending"
			if r.Confirmed {
				status = "confirmed"
			}
			user := ""
			if r.Username != "" {
				user = "@" + r.Username
			}
			fmt.Fprintf(w, "%d\t%s\t%s-%s\t%d\t%s\t%s\t%s\n",
				r.ID, r.Date.Format(domain.DateLayout), r.Start, r.End, r.Price, status, r.ContactInfo, user)
		}
		return w.Flush()
	},
}

func init() {
	reservationsCmd.Flags().StringVarP(&reservationsDate, "date", "d", "", "first date (YYYY-MM-DD), defaults to today")
	reservationsCmd.Flags().IntVar(&reservationsDays, "days", 1, "number of days to list")
	rootCmd.AddCommand(reservationsCmd)
}
