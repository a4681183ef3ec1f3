package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "AI planner - scope a project, pick scan paths, generate and apply plans",
	Long: `planner drives an AI Plan Service from the terminal.

Pick a project root, choose which files and folders the model should scan,
generate a plan from a prompt, review its file changes and apply them.

Examples:
  planner root --pick                 # choose the project root interactively
  planner scan-paths browse           # pick scan paths in the drawer
  planner plan generate "add caching" # ask for a plan
  planner plan apply <plan-id>        # review and apply it`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/planner/config.json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")
}
