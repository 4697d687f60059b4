package admin

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reserva/adapter/cli"
	adminApp "github.com/felixgeelhaar/reserva/internal/admin/application"
	"github.com/felixgeelhaar/reserva/internal/admin/domain"
)

var password string

var addCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an admin",
	Long: `Create an admin with a bcrypt-hashed password. When --password is
omitted the password is read from the first line of stdin.

Examples:
  reserva admin add alice --password s3cret
  echo s3cret | reserva admin add alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RegisterAdminHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		secret := password
		if secret == "" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("password is required")
			}
			secret = strings.TrimRight(line, "\r\n")
		}
		if secret == "" {
			return fmt.Errorf("password is required")
		}

		admin, err := app.RegisterAdminHandler.Handle(cmd.Context(), adminApp.RegisterAdminCommand{
			Username: args[0],
			Password: secret,
		})
		switch {
		case errors.Is(err, domain.ErrAdminExists):
			return fmt.Errorf("admin %q already exists", args[0])
		case err != nil:
			return fmt.Errorf("failed to create admin: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created (id %d)\n", admin.Username(), admin.ID())
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&password, "password", "p", "", "admin password")
}
