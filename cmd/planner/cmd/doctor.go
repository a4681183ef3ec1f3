package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tormodhaugland/planner/internal/config"
	"github.com/tormodhaugland/planner/internal/doctor"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
	"github.com/tormodhaugland/planner/internal/scanpaths"
	"github.com/tormodhaugland/planner/internal/tui"
)

var (
	doctorYes    bool
	doctorDryRun bool
)

type doctorResult struct {
	ProjectRoot string         `json:"project_root"`
	Checks      []doctor.Check `json:"checks"`
	Stale       []string       `json:"stale_scan_paths"`
	Removed     []string       `json:"removed,omitempty"`
	DryRun      bool           `json:"dry_run"`
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, services and saved scan paths",
	Long: `Checks that the project root exists, the listing and plan services answer,
and that saved scan paths still exist. Stale scan paths can be removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		root, err := s.projectRoot()
		if err != nil {
			return err
		}
		local := s.cfg.EffectiveListingURL() == config.LocalListing || root == pathpolicy.Empty || pathExistsLocally(root)

		result := doctorResult{ProjectRoot: root, DryRun: doctorDryRun, Stale: []string{}}
		result.Checks = append(result.Checks,
			doctor.CheckProjectRoot(root, local),
			doctor.CheckGit(ctx, root),
			doctor.CheckListing(ctx, s.lister(), root),
			doctor.CheckPlanService(ctx, s.planClient()),
		)

		var set *scanpaths.Set
		if root != pathpolicy.Empty {
			db, err := s.store()
			if err != nil {
				return err
			}
			stored, err := db.ScanPaths(root)
			if err != nil {
				return err
			}
			set = scanpaths.New(stored)
			if local {
				result.Stale = doctor.FindStaleScanPaths(stored)
			}
		}

		if len(result.Stale) > 0 && !doctorDryRun {
			remove := doctorYes
			if !remove && !jsonOut {
				confirm, err := tui.RunConfirm(fmt.Sprintf("Remove %d stale scan path(s)?", len(result.Stale)), result.Stale, true)
				if err != nil {
					return fmt.Errorf("prompt failed: %w", err)
				}
				if confirm.Aborted {
					return fmt.Errorf("aborted")
				}
				remove = confirm.Confirmed
			}
			if remove {
				for _, p := range result.Stale {
					set.Remove(p)
				}
				if err := saveSelection(s, root, set); err != nil {
					return err
				}
				result.Removed = result.Stale
			}
		}

		if jsonOut {
			if err := outputJSON(result); err != nil {
				return err
			}
		} else {
			printDoctorResult(result)
		}

		if n := doctor.Failed(result.Checks); n > 0 {
			return fmt.Errorf("doctor found %d problem(s)", n)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVarP(&doctorYes, "yes", "y", false, "remove stale scan paths without prompting")
	doctorCmd.Flags().BoolVar(&doctorDryRun, "dry-run", false, "report stale scan paths without removing them")
	rootCmd.AddCommand(doctorCmd)
}

func pathExistsLocally(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func printDoctorResult(result doctorResult) {
	marks := map[doctor.Status]string{
		doctor.StatusOK:   "ok  ",
		doctor.StatusWarn: "warn",
		doctor.StatusFail: "FAIL",
	}
	for _, c := range result.Checks {
		fmt.Printf("[%s] %-16s %s\n", marks[c.Status], c.Name, c.Detail)
	}

	if len(result.Stale) == 0 {
		return
	}
	fmt.Printf("\nStale scan paths (%d):\n", len(result.Stale))
	for _, p := range result.Stale {
		fmt.Printf("  - %s\n", pathpolicy.Rel(result.ProjectRoot, p))
	}
	switch {
	case result.DryRun:
		fmt.Println("Dry run - no changes made")
	case len(result.Removed) > 0:
		fmt.Printf("Removed %d stale scan path(s)\n", len(result.Removed))
	}
}
