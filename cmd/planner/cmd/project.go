package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tormodhaugland/planner/internal/config"
	"github.com/tormodhaugland/planner/internal/fs"
	"github.com/tormodhaugland/planner/internal/git"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
	"github.com/tormodhaugland/planner/internal/tui"
)

var (
	rootPick   bool
	rootFind   bool
	rootDepth  int
	rootRecent bool
	rootClear  bool
)

var projectRootCmd = &cobra.Command{
	Use:   "root [path]",
	Short: "Show or set the project root",
	Long: `Shows or sets the project root. Browsing and scan paths are confined to
it unless allow_external_paths is set.

Examples:
  planner root                # print the current project root
  planner root ~/src/webapp   # set it
  planner root --pick         # choose it in a directory picker
  planner root --find ~/src   # list git repositories below ~/src
  planner root --recent       # list recently used roots`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProjectRoot,
}

func init() {
	projectRootCmd.Flags().BoolVarP(&rootPick, "pick", "p", false, "choose the root interactively")
	projectRootCmd.Flags().BoolVar(&rootFind, "find", false, "list git repositories below path instead of setting it")
	projectRootCmd.Flags().IntVar(&rootDepth, "depth", 3, "max depth for --find (-1 for unlimited)")
	projectRootCmd.Flags().BoolVar(&rootRecent, "recent", false, "list recently used roots")
	projectRootCmd.Flags().BoolVar(&rootClear, "clear", false, "forget the saved root")
	rootCmd.AddCommand(projectRootCmd)
}

func runProjectRoot(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	db, err := s.store()
	if err != nil {
		return err
	}

	arg := ""
	if len(args) == 1 {
		arg = args[0]
	}

	switch {
	case rootClear:
		return db.SetProjectRoot("")

	case rootRecent:
		roots, err := db.RecentRoots(10)
		if err != nil {
			return err
		}
		if jsonOut {
			return outputJSON(roots)
		}
		for _, r := range roots {
			fmt.Println(r)
		}
		return nil

	case rootFind:
		if arg == "" {
			arg = "."
		}
		base, err := resolvePath("", arg)
		if err != nil {
			return err
		}
		repos, err := git.FindGitRootsWithDepth(base, rootDepth)
		if err != nil {
			return fmt.Errorf("failed to search %s: %w", base, err)
		}
		if jsonOut {
			return outputJSON(repos)
		}
		for _, r := range repos {
			fmt.Println(r)
		}
		return nil

	case rootPick:
		current, err := s.projectRoot()
		if err != nil {
			return err
		}
		start, err := resolvePath(current, arg)
		if err != nil {
			return err
		}
		if start == pathpolicy.Empty {
			home, _ := os.UserHomeDir()
			start, _ = resolvePath("", home)
		}

		// the root itself is being chosen, so the picker is not confined
		ctrl := s.controller("", nil, true)
		res, err := tui.RunDirPicker(cmd.Context(), ctrl, start, "Select project root")
		if err != nil {
			return err
		}
		if res.Aborted {
			return fmt.Errorf("cancelled")
		}
		return setProjectRoot(s, res.Path)

	case arg != "":
		root, err := resolvePath("", arg)
		if err != nil {
			return err
		}
		return setProjectRoot(s, root)
	}

	root, err := s.projectRoot()
	if err != nil {
		return err
	}
	if root == pathpolicy.Empty {
		return errNoProjectRoot
	}
	if jsonOut {
		return outputJSON(map[string]string{"project_root": root})
	}
	fmt.Println(root)
	return nil
}

func setProjectRoot(s *session, root string) error {
	if s.cfg.EffectiveListingURL() == config.LocalListing && !fs.DirExists(root) {
		return fmt.Errorf("not a directory: %s", root)
	}
	db, err := s.store()
	if err != nil {
		return err
	}
	if err := db.SetProjectRoot(root); err != nil {
		return err
	}
	if s.cfg.ProjectRoot != "" && s.cfg.ProjectRoot != root {
		fmt.Fprintf(os.Stderr, "note: config project_root (%s) takes precedence\n", s.cfg.ProjectRoot)
	}
	s.logger.Info("project root set", "root", root)
	fmt.Println(root)
	return nil
}
