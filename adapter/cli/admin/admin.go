package admin

import (
	"github.com/spf13/cobra"
)

// Cmd is the admin command group
var Cmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin credentials",
	Long:  `Create the operator accounts that may log in to the admin bot.`,
}

func init() {
	Cmd.AddCommand(addCmd)
}
