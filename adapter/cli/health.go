package cli

import (
	"errors"
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reserva/pkg/observability"
)

var errUnhealthy = errors.New("unhealthy")

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database and Redis connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		report := app.Health.Check(cmd.Context())
		names := make([]string, 0, len(report.Checks))
		for name := range report.Checks {
			names = append(names, name)
		}
		slices.Sort(names)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, name := range names {
			check := report.Checks[name]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, check.Status, check.Duration.Round(time.Microsecond), check.Message)
		}
		fmt.Fprintf(w, "overall\t%s\t\t\n", report.Status)
		if err := w.Flush(); err != nil {
			return err
		}
		if report.Status == observability.HealthStatusUnhealthy {
			return errUnhealthy
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
