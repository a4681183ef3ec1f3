package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tormodhaugland/planner/internal/store"
)

var (
	historyAll   bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show plans generated or applied from this machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		root := ""
		if !historyAll {
			if root, err = s.requireProjectRoot(); err != nil {
				return err
			}
		}

		db, err := s.store()
		if err != nil {
			return err
		}
		records, err := db.History(root, historyLimit)
		if err != nil {
			return err
		}

		if jsonOut {
			if records == nil {
				records = []store.PlanRecord{}
			}
			return outputJSON(records)
		}
		if len(records) == 0 {
			fmt.Println("No plans yet")
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "PLAN\tTITLE\tCHANGES\tCREATED\tSTATUS\tAPPLIED")
		for _, r := range records {
			applied := "-"
			if r.LastAppliedAt != nil {
				applied = formatTime(*r.LastAppliedAt)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				r.PlanID, orDash(r.Title), r.ChangeCount, formatTime(r.CreatedAt), orDash(r.LastStatus), applied)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "include every project root")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum plans to show")
	rootCmd.AddCommand(historyCmd)
}
