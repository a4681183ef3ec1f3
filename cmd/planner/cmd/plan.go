package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/store"
	"github.com/tormodhaugland/planner/internal/tui"
)

var (
	genInstructions string
	genRequestType  string
	genOutput       string
	genExpected     string
	genAttach       bool

	planListPage     int
	planListPageSize int
)

const defaultExpectedOutput = "JSON"

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate, inspect and apply plans",
	Long: `Plans are produced by the Plan Service from a prompt, the project root and
the selected scan paths. Each plan is a list of file changes that can be
applied to the project as a whole or one change at a time.

Examples:
  planner plan generate "extract the retry logic into a helper"
  planner plan list
  planner plan show <plan-id>
  planner plan apply <plan-id>`,
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Ask the Plan Service for a new plan",
	Long: `Sends the prompt, project root and scan paths to the Plan Service. Without
a prompt argument an input form is shown.`,
	RunE: runPlanGenerate,
}

var planShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show a plan and its file changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanShow,
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List plans known to the Plan Service",
	Args:  cobra.NoArgs,
	RunE:  runPlanList,
}

func init() {
	planGenerateCmd.Flags().StringVarP(&genInstructions, "instructions", "i", "", "additional instructions for the model")
	planGenerateCmd.Flags().StringVar(&genRequestType, "type", "", "request type (default from config, e.g. LLM_GENERATION)")
	planGenerateCmd.Flags().StringVar(&genOutput, "output", "", "output format (default from config, e.g. JSON)")
	planGenerateCmd.Flags().StringVar(&genExpected, "expected-output", defaultExpectedOutput, "expected output format description")
	planGenerateCmd.Flags().BoolVar(&genAttach, "attach", false, "send the content of scanned files along with the request")

	planListCmd.Flags().IntVar(&planListPage, "page", 1, "page number")
	planListCmd.Flags().IntVar(&planListPageSize, "page-size", 10, "plans per page")

	planCmd.AddCommand(planGenerateCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planApplyCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlanGenerate(cmd *cobra.Command, args []string) error {
	s, root, set, err := loadSelection()
	if err != nil {
		return err
	}
	defer s.Close()

	requestType := s.cfg.RequestType
	if genRequestType != "" {
		requestType = model.RequestType(strings.ToUpper(genRequestType))
	}
	output := s.cfg.OutputFormat
	if genOutput != "" {
		output = model.OutputFormat(strings.ToUpper(genOutput))
	}

	scanPaths := set.ToSortedList()
	prompt := strings.TrimSpace(strings.Join(args, " "))
	instructions := genInstructions
	if prompt == "" {
		res, err := tui.RunPlanPrompt(root, scanPaths, requestType)
		if err != nil {
			return err
		}
		if res.Abort {
			return fmt.Errorf("cancelled")
		}
		prompt = res.Prompt
		if res.Instructions != "" {
			instructions = res.Instructions
		}
	}

	in := model.LLMInput{
		UserPrompt:             prompt,
		ProjectRoot:            root,
		AdditionalInstructions: instructions,
		ExpectedOutputFormat:   genExpected,
		ScanPaths:              scanPaths,
		RequestType:            requestType,
		Output:                 output,
	}
	if genAttach {
		files, err := collectScannedFiles(cmd.Context(), root, scanPaths, s.excludeList(root))
		if err != nil {
			return fmt.Errorf("failed to read scan paths: %w", err)
		}
		in.RelevantFiles = files
	}

	fmt.Fprintln(os.Stderr, "Generating plan...")
	resp, err := s.planClient().GeneratePlan(cmd.Context(), in)
	if err != nil {
		return err
	}

	planID := resp.PlanID
	if planID == "" {
		planID = resp.Plan.ID
	}
	if db, err := s.store(); err == nil {
		rec := store.PlanRecord{
			PlanID:      planID,
			Title:       resp.Plan.Title,
			ProjectRoot: root,
			Prompt:      prompt,
			ChangeCount: len(resp.Plan.Changes),
		}
		if err := db.RecordPlan(rec); err != nil {
			s.logger.Warn("recording plan", "plan", planID, "error", err)
		}
	}
	s.logger.Info("plan generated", "plan", planID, "changes", len(resp.Plan.Changes))

	if jsonOut {
		return outputJSON(resp)
	}
	fmt.Printf("Plan %s: %s\n", planID, resp.Plan.Title)
	fmt.Printf("%d file change(s). Review with: planner plan apply %s\n", len(resp.Plan.Changes), planID)
	return nil
}

func runPlanShow(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	plan, err := s.planClient().GetPlan(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if jsonOut {
		return outputJSON(plan)
	}

	fmt.Printf("%s\n", plan.Title)
	fmt.Printf("ID:       %s\n", plan.ID)
	fmt.Printf("Created:  %s\n", formatTime(plan.CreatedAt))
	if plan.LastExecutionStatus != "" {
		fmt.Printf("Status:   %s\n", plan.LastExecutionStatus)
	}
	if plan.LastExecutionError != "" {
		fmt.Printf("Error:    %s\n", plan.LastExecutionError)
	}
	if plan.Summary != "" {
		fmt.Printf("\n%s\n", plan.Summary)
	}

	fmt.Printf("\nChanges (%d):\n", len(plan.Changes))
	w := newTable()
	for i, c := range plan.Changes {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", i, c.Action, c.FilePath, c.Reason)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(plan.GitInstructions) > 0 {
		fmt.Println("\nGit:")
		for _, g := range plan.GitInstructions {
			fmt.Printf("  %s\n", g)
		}
	}
	return nil
}

func runPlanList(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	page, err := s.planClient().ListPlans(cmd.Context(), planListPage, planListPageSize)
	if err != nil {
		return err
	}
	if jsonOut {
		return outputJSON(page)
	}
	if len(page.Items) == 0 {
		fmt.Println("No plans found")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tTITLE\tCREATED\tSTATUS")
	for _, p := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Title, formatTime(p.CreatedAt), orDash(p.LastExecutionStatus))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nPage %d/%d (%d plans)\n", page.Page, max(page.TotalPages, 1), page.Total)
	return nil
}
