package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tormodhaugland/planner/internal/fs"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
	"github.com/tormodhaugland/planner/internal/scanpaths"
	"github.com/tormodhaugland/planner/internal/suggest"
	"github.com/tormodhaugland/planner/internal/tui"
)

var (
	scanBrowsePrompt string
	scanBrowseAt     string
	scanSuggestLimit int
	scanSuggestAdd   bool
)

var scanPathsCmd = &cobra.Command{
	Use:     "scan-paths",
	Aliases: []string{"scan"},
	Short:   "Manage the files and folders sent to the planner",
	Long: `Scan paths narrow what the Plan Service reads from the project. They are
stored per project root. With no scan paths the whole project is scanned.

Examples:
  planner scan-paths list
  planner scan-paths add src/api README.md
  planner scan-paths browse --prompt "rate limit the login endpoint"
  planner scan-paths suggest "rate limit the login endpoint" --add`,
}

var scanListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the scan paths of the project root",
	Args:  cobra.NoArgs,
	RunE:  runScanList,
}

var scanAddCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Add scan paths (relative to the project root)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScanAdd,
}

var scanRemoveCmd = &cobra.Command{
	Use:     "remove <path>...",
	Aliases: []string{"rm"},
	Short:   "Remove scan paths",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runScanRemove,
}

var scanClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every scan path",
	Args:  cobra.NoArgs,
	RunE:  runScanClear,
}

var scanBrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Pick scan paths in an interactive drawer",
	Args:  cobra.NoArgs,
	RunE:  runScanBrowse,
}

var scanSuggestCmd = &cobra.Command{
	Use:   "suggest <prompt>",
	Short: "Suggest scan paths for a prompt",
	Long: `Ranks the project's source files against the words of a prompt, matching
file names, directories and the symbols declared in each file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScanSuggest,
}

func init() {
	scanBrowseCmd.Flags().StringVar(&scanBrowsePrompt, "prompt", "", "offer suggested paths for this prompt")
	scanBrowseCmd.Flags().StringVar(&scanBrowseAt, "at", "", "directory to open (default: project root)")

	scanSuggestCmd.Flags().IntVarP(&scanSuggestLimit, "limit", "n", suggest.DefaultLimit, "maximum suggestions")
	scanSuggestCmd.Flags().BoolVar(&scanSuggestAdd, "add", false, "add the suggestions to the scan paths")

	scanPathsCmd.AddCommand(scanListCmd)
	scanPathsCmd.AddCommand(scanAddCmd)
	scanPathsCmd.AddCommand(scanRemoveCmd)
	scanPathsCmd.AddCommand(scanClearCmd)
	scanPathsCmd.AddCommand(scanBrowseCmd)
	scanPathsCmd.AddCommand(scanSuggestCmd)
	rootCmd.AddCommand(scanPathsCmd)
}

// loadSelection opens the session and the stored selection of its project
// root.
func loadSelection() (*session, string, *scanpaths.Set, error) {
	s, err := openSession()
	if err != nil {
		return nil, "", nil, err
	}
	root, err := s.requireProjectRoot()
	if err != nil {
		s.Close()
		return nil, "", nil, err
	}
	db, err := s.store()
	if err != nil {
		s.Close()
		return nil, "", nil, err
	}
	stored, err := db.ScanPaths(root)
	if err != nil {
		s.Close()
		return nil, "", nil, err
	}
	return s, root, scanpaths.New(stored), nil
}

func saveSelection(s *session, root string, set *scanpaths.Set) error {
	db, err := s.store()
	if err != nil {
		return err
	}
	return db.ReplaceScanPaths(root, set.ToSortedList())
}

func printScanPaths(root string, paths []string) error {
	if jsonOut {
		return outputJSON(paths)
	}
	if len(paths) == 0 {
		fmt.Println("No scan paths (the whole project is scanned)")
		return nil
	}
	for _, p := range paths {
		fmt.Println(pathpolicy.Rel(root, p))
	}
	return nil
}

func runScanList(cmd *cobra.Command, args []string) error {
	s, root, set, err := loadSelection()
	if err != nil {
		return err
	}
	defer s.Close()
	return printScanPaths(root, set.ToSortedList())
}

func runScanAdd(cmd *cobra.Command, args []string) error {
	s, root, set, err := loadSelection()
	if err != nil {
		return err
	}
	defer s.Close()

	for _, arg := range args {
		p, err := resolvePath(root, arg)
		if err != nil {
			return err
		}
		if !pathpolicy.CanNavigateTo(p, root, s.cfg.AllowExternalPaths) {
			return fmt.Errorf("%s is outside the project root %s", p, root)
		}
		if !set.Add(p) {
			fmt.Printf("Already selected: %s\n", pathpolicy.Rel(root, p))
		}
	}

	if err := saveSelection(s, root, set); err != nil {
		return err
	}
	return printScanPaths(root, set.ToSortedList())
}

func runScanRemove(cmd *cobra.Command, args []string) error {
	s, root, set, err := loadSelection()
	if err != nil {
		return err
	}
	defer s.Close()

	for _, arg := range args {
		p, err := resolvePath(root, arg)
		if err != nil {
			return err
		}
		if !set.Remove(p) {
			fmt.Printf("Not selected: %s\n", pathpolicy.Rel(root, p))
		}
	}

	if err := saveSelection(s, root, set); err != nil {
		return err
	}
	return printScanPaths(root, set.ToSortedList())
}

func runScanClear(cmd *cobra.Command, args []string) error {
	s, root, set, err := loadSelection()
	if err != nil {
		return err
	}
	defer s.Close()

	set.Clear()
	if err := saveSelection(s, root, set); err != nil {
		return err
	}
	fmt.Println("Scan paths cleared")
	return nil
}

func runScanBrowse(cmd *cobra.Command, args []string) error {
	s, root, set, err := loadSelection()
	if err != nil {
		return err
	}
	defer s.Close()

	var suggested []string
	if strings.TrimSpace(scanBrowsePrompt) != "" {
		suggested, err = suggestPaths(cmd.Context(), s, root, scanBrowsePrompt, suggest.DefaultLimit)
		if err != nil {
			s.logger.Warn("suggestions unavailable", "error", err)
		}
	}

	start, err := resolvePath(root, scanBrowseAt)
	if err != nil {
		return err
	}

	var commitErr error
	ctrl := s.controller(root, set, true)
	res, err := tui.RunScanPathsDrawer(cmd.Context(), ctrl, start, suggested, func(paths []string) {
		db, err := s.store()
		if err != nil {
			commitErr = err
			return
		}
		commitErr = db.ReplaceScanPaths(root, paths)
	})
	if err != nil {
		return err
	}
	if !res.Committed {
		return fmt.Errorf("cancelled")
	}
	if commitErr != nil {
		return fmt.Errorf("failed to save scan paths: %w", commitErr)
	}
	return printScanPaths(root, res.Paths)
}

func runScanSuggest(cmd *cobra.Command, args []string) error {
	s, root, set, err := loadSelection()
	if err != nil {
		return err
	}
	defer s.Close()

	sg, err := newSuggester(s, root)
	if err != nil {
		return err
	}
	defer sg.Close()

	prompt := strings.Join(args, " ")
	results, err := sg.Suggest(cmd.Context(), prompt, scanSuggestLimit)
	if err != nil {
		return fmt.Errorf("failed to suggest paths: %w", err)
	}

	if scanSuggestAdd && len(results) > 0 {
		for _, r := range results {
			set.Add(r.Path)
		}
		if err := saveSelection(s, root, set); err != nil {
			return err
		}
	}

	if jsonOut {
		if results == nil {
			results = []suggest.Suggestion{}
		}
		return outputJSON(results)
	}
	if len(results) == 0 {
		fmt.Println("No suggestions")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "PATH\tHITS\tSYMBOLS")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%s\n", pathpolicy.Rel(root, r.Path), r.Hits, orDash(strings.Join(r.Symbols, ", ")))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if scanSuggestAdd {
		fmt.Printf("\nAdded to scan paths (%d selected)\n", set.Len())
	}
	return nil
}

// newSuggester walks the project on the local filesystem, so it is only
// available when the project root exists here.
func newSuggester(s *session, root string) (*suggest.Suggester, error) {
	if !fs.DirExists(root) {
		return nil, fmt.Errorf("suggestions need local access to %s", root)
	}
	base := append(append([]string{}, fs.BuiltinExcludes...), s.cfg.ExtraExcludes...)
	exclude, err := fs.LoadProjectExcludes(root, base)
	if err != nil {
		return nil, err
	}
	return suggest.New(suggest.Options{
		Root:    root,
		Exclude: exclude,
		Logger:  s.logger,
	}), nil
}

func suggestPaths(ctx context.Context, s *session, root, prompt string, limit int) ([]string, error) {
	sg, err := newSuggester(s, root)
	if err != nil {
		return nil, err
	}
	defer sg.Close()
	return sg.Paths(ctx, prompt, limit)
}
