package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tms",
	Short: "CLI for real-estate transaction checklists",
	Long: `tms manages real-estate transactions as they move through workflow
stages on a SQLite backend: anchor dates, templated task checklists, and
calendar-safe scheduling.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to database file (overrides TMS_DB_PATH)")
	rootCmd.PersistentFlags().String("as", "", "Actor to perform action as (slug or friendly ID)")
	rootCmd.PersistentFlags().String("output", "", "Output format: table, json, or yaml")
}
