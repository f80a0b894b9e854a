package cli

import (
	"github.com/spf13/cobra"
)

var rootAdmCmd = &cobra.Command{
	Use:   "tmsadm",
	Short: "Administrative CLI for tms database lifecycle",
	Long: `tmsadm is the administrative companion to tms. It handles database
lifecycle (init, migrate), template catalog seeding, and permanent
transaction removal. These operations are kept off the day-to-day CLI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteAdmin runs the admin root command
func ExecuteAdmin() error {
	return rootAdmCmd.Execute()
}

func init() {
	rootAdmCmd.PersistentFlags().String("db", "", "Path to database file (overrides TMS_DB_PATH)")
	rootAdmCmd.PersistentFlags().String("as", "", "Actor to perform action as (slug or friendly ID)")
}
