package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tormodhaugland/planner/internal/browser"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
)

var (
	lsDirsOnly bool
	lsAll      bool
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a directory inside the project root",
	Long: `Lists a directory through the configured listing service. Relative
paths are taken against the project root.

Examples:
  planner ls              # the project root
  planner ls src/api      # a subdirectory
  planner ls --dirs-only  # directories only`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

func init() {
	lsCmd.Flags().BoolVarP(&lsDirsOnly, "dirs-only", "d", false, "only list directories")
	lsCmd.Flags().BoolVarP(&lsAll, "all", "a", false, "do not hide excluded entries")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	root, err := s.projectRoot()
	if err != nil {
		return err
	}

	arg := ""
	if len(args) == 1 {
		arg = args[0]
	}
	target, err := resolvePath(root, arg)
	if err != nil {
		return err
	}
	if target == pathpolicy.Empty {
		return errNoProjectRoot
	}

	ctrl := s.controller(root, nil, !lsAll)
	if err := ctrl.NavigateTo(cmd.Context(), target); err != nil {
		if errors.Is(err, browser.ErrOutsideBoundary) {
			return fmt.Errorf("%s is outside the project root %s", target, root)
		}
		return err
	}
	ctrl.Wait()

	state := ctrl.State()
	if state.FetchError != "" {
		return fmt.Errorf("failed to list %s: %s", state.CurrentPath, state.FetchError)
	}

	entries := state.Listing
	if lsDirsOnly {
		entries = model.Directories(entries)
	}
	if entries == nil {
		entries = []model.DirectoryEntry{}
	}

	if jsonOut {
		return outputJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("Empty directory")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "TYPE\tNAME\tPATH")
	for _, e := range entries {
		kind, name := "file", e.Name
		if e.IsDirectory {
			kind, name = "dir", e.Name+"/"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", kind, name, pathpolicy.Rel(root, e.Path))
	}
	return w.Flush()
}
