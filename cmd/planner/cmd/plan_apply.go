package cmd

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tormodhaugland/planner/internal/git"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/store"
	"github.com/tormodhaugland/planner/internal/tui"
)

var (
	applyAll     bool
	applyChanges []int
	applyYes     bool
)

// Statuses recorded in plan history.
const (
	statusApplied = "applied"
	statusPartial = "partial"
	statusFailed  = "failed"
)

var planApplyCmd = &cobra.Command{
	Use:   "apply <plan-id>",
	Short: "Apply a plan to the project root",
	Long: `Applies a plan's file changes to the project root. By default the plan is
shown first so individual changes can be left out.

When the project root is a git repository the commit before and after the
apply is printed, and an apply over uncommitted changes asks first.

Examples:
  planner plan apply <plan-id>             # review, then apply
  planner plan apply <plan-id> --all       # apply everything
  planner plan apply <plan-id> --change 0,2`,
	Args: cobra.ExactArgs(1),
	RunE: runPlanApply,
}

func init() {
	planApplyCmd.Flags().BoolVar(&applyAll, "all", false, "apply every change without review")
	planApplyCmd.Flags().IntSliceVar(&applyChanges, "change", nil, "apply only these change indexes")
	planApplyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "do not ask before applying over uncommitted changes")
}

// applyOutcome is what plan apply reports.
type applyOutcome struct {
	PlanID     string               `json:"planId"`
	Status     string               `json:"status"`
	Applied    []int                `json:"applied"`
	Failed     map[int]string       `json:"failed,omitempty"`
	HeadBefore string               `json:"headBefore,omitempty"`
	HeadAfter  string               `json:"headAfter,omitempty"`
	Results    []*model.ApplyResult `json:"results"`
}

func runPlanApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	root, err := s.requireProjectRoot()
	if err != nil {
		return err
	}

	client := s.planClient()
	plan, err := client.GetPlan(ctx, args[0])
	if err != nil {
		return err
	}
	if len(plan.Changes) == 0 {
		return fmt.Errorf("plan %s has no file changes", plan.ID)
	}

	indexes, all, err := chooseChanges(plan)
	if err != nil {
		return err
	}

	out := applyOutcome{PlanID: plan.ID, Failed: map[int]string{}}

	isRepo := git.IsRepo(ctx, root)
	if isRepo {
		before, err := git.GetInfo(ctx, root)
		if err != nil {
			s.logger.Warn("reading repo state", "root", root, "error", err)
		} else {
			out.HeadBefore = before.Head
			if before.Dirty && !applyYes {
				if err := confirmDirty(ctx, root); err != nil {
					return err
				}
			}
		}
	}

	if all {
		res, err := client.ApplyPlan(ctx, plan.ID, root)
		if err != nil {
			return err
		}
		out.Results = append(out.Results, res)
		if res.OK {
			out.Applied = indexes
		} else {
			for _, i := range indexes {
				out.Failed[i] = res.Error
			}
		}
	} else {
		for _, i := range indexes {
			res, err := client.ApplyChange(ctx, plan.ID, i, root)
			if err != nil {
				out.Failed[i] = err.Error()
				s.logger.Warn("applying change", "plan", plan.ID, "index", i, "error", err)
				continue
			}
			out.Results = append(out.Results, res)
			if res.OK {
				out.Applied = append(out.Applied, i)
			} else {
				out.Failed[i] = res.Error
			}
		}
	}

	switch {
	case len(out.Failed) == 0:
		out.Status = statusApplied
	case len(out.Applied) == 0:
		out.Status = statusFailed
	default:
		out.Status = statusPartial
	}

	if isRepo {
		if after, err := git.GetInfo(ctx, root); err == nil {
			out.HeadAfter = after.Head
		}
	}
	for _, r := range out.Results {
		if out.HeadAfter == "" && r.NewHead != "" {
			out.HeadAfter = r.NewHead
		}
	}

	recordApply(s, plan, root, out.Status)
	s.logger.Info("plan applied", "plan", plan.ID, "status", out.Status, "applied", len(out.Applied), "failed", len(out.Failed))

	if jsonOut {
		if err := outputJSON(out); err != nil {
			return err
		}
	} else {
		printApplyOutcome(plan, out)
	}

	if out.Status == statusFailed {
		return fmt.Errorf("plan %s was not applied", plan.ID)
	}
	return nil
}

// chooseChanges returns the change indexes to apply and whether they cover
// the whole plan.
func chooseChanges(plan *model.Plan) ([]int, bool, error) {
	n := len(plan.Changes)

	if len(applyChanges) > 0 {
		seen := make(map[int]bool)
		var indexes []int
		for _, i := range applyChanges {
			if i < 0 || i >= n {
				return nil, false, fmt.Errorf("change index %d out of range (plan has %d changes)", i, n)
			}
			if !seen[i] {
				seen[i] = true
				indexes = append(indexes, i)
			}
		}
		return indexes, false, nil
	}

	if applyAll || jsonOut {
		indexes := make([]int, n)
		for i := range indexes {
			indexes[i] = i
		}
		return indexes, true, nil
	}

	res, err := tui.RunPlanView(plan)
	if err != nil {
		return nil, false, err
	}
	if res.Aborted {
		return nil, false, fmt.Errorf("cancelled")
	}
	return res.Indexes, res.All, nil
}

func confirmDirty(ctx context.Context, root string) error {
	files, err := git.ChangedFiles(ctx, root)
	if err != nil {
		return err
	}
	const maxShown = 10
	details := files
	if len(files) > maxShown {
		details = append(append([]string{}, files[:maxShown]...), fmt.Sprintf("… and %d more", len(files)-maxShown))
	}

	res, err := tui.RunConfirm("The project has uncommitted changes. Apply anyway?", details, false)
	if err != nil {
		return err
	}
	if res.Aborted || !res.Confirmed {
		return fmt.Errorf("cancelled")
	}
	return nil
}

// recordApply keeps plan history current. Plans generated elsewhere are
// added on first apply.
func recordApply(s *session, plan *model.Plan, root, status string) {
	db, err := s.store()
	if err != nil {
		s.logger.Warn("recording apply", "plan", plan.ID, "error", err)
		return
	}
	if err := db.MarkApplied(plan.ID, status); err == nil {
		return
	}

	rec := store.PlanRecord{
		PlanID:      plan.ID,
		Title:       plan.Title,
		ProjectRoot: root,
		ChangeCount: len(plan.Changes),
		CreatedAt:   plan.CreatedAt,
	}
	if plan.LLMInput != nil {
		rec.Prompt = plan.LLMInput.UserPrompt
	}
	if err := db.RecordPlan(rec); err != nil {
		s.logger.Warn("recording plan", "plan", plan.ID, "error", err)
		return
	}
	if err := db.MarkApplied(plan.ID, status); err != nil {
		s.logger.Warn("recording apply", "plan", plan.ID, "error", err)
	}
}

func printApplyOutcome(plan *model.Plan, out applyOutcome) {
	if out.HeadBefore != "" {
		fmt.Printf("HEAD before: %s\n", shortHash(out.HeadBefore))
	}

	for _, i := range out.Applied {
		c := plan.Changes[i]
		fmt.Printf("  ✓ %-8s %s\n", c.Action, c.FilePath)
	}
	for _, i := range slices.Sorted(maps.Keys(out.Failed)) {
		c := plan.Changes[i]
		fmt.Fprintf(os.Stderr, "  ✗ %-8s %s: %s\n", c.Action, c.FilePath, orDash(out.Failed[i]))
	}

	if out.HeadAfter != "" {
		fmt.Printf("HEAD after:  %s\n", shortHash(out.HeadAfter))
	}
	fmt.Printf("Plan %s: %s (%d applied, %d failed)\n", plan.ID, out.Status, len(out.Applied), len(out.Failed))
}

func shortHash(h string) string {
	h = strings.TrimSpace(h)
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
