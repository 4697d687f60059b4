package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the booking bot and the admin bot",
	Long: `Run both Telegram bots until interrupted.

Updates are long-polled unless TELEGRAM_MODE=webhook, in which case a
webhook server listens on WEBHOOK_ADDR. Without RABBITMQ_URL new
reservations are announced to the admins from this process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.NewServer == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		server, err := app.NewServer()
		if err != nil {
			return err
		}
		return server.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
