package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tormodhaugland/planner/internal/browser"
	"github.com/tormodhaugland/planner/internal/config"
	"github.com/tormodhaugland/planner/internal/fs"
	"github.com/tormodhaugland/planner/internal/listing"
	"github.com/tormodhaugland/planner/internal/logging"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
	"github.com/tormodhaugland/planner/internal/planclient"
	"github.com/tormodhaugland/planner/internal/scanpaths"
	"github.com/tormodhaugland/planner/internal/store"
)

var errNoProjectRoot = errors.New("no project root set (run: planner root <path> or planner root --pick)")

// session bundles what most commands need: config, logger and a lazily
// opened store.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
	db       *store.DB
}

func openSession() (*session, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts := logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.LogFile(),
	}.WithEnv()
	closeLog, err := logging.Init(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return &session{cfg: cfg, logger: slog.Default(), closeLog: closeLog}, nil
}

func (s *session) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("closing store", "error", err)
		}
	}
	_ = s.closeLog()
}

func (s *session) store() (*store.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	db, err := store.Open(s.cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	s.db = db
	return db, nil
}

// projectRoot returns the configured root, falling back to the one saved by
// "planner root". It may be empty.
func (s *session) projectRoot() (string, error) {
	if s.cfg.ProjectRoot != "" {
		return pathpolicy.Normalize(filepath.ToSlash(s.cfg.ProjectRoot)), nil
	}
	db, err := s.store()
	if err != nil {
		return "", err
	}
	return db.ProjectRoot()
}

func (s *session) requireProjectRoot() (string, error) {
	root, err := s.projectRoot()
	if err != nil {
		return "", err
	}
	if root == pathpolicy.Empty {
		return "", errNoProjectRoot
	}
	return root, nil
}

func (s *session) lister() listing.Lister {
	if s.cfg.EffectiveListingURL() == config.LocalListing {
		return &listing.LocalLister{}
	}
	return listing.NewHTTPLister(s.cfg.EffectiveListingURL(), s.cfg.AuthToken())
}

// controller builds a browsing session confined to boundary. Project ignore
// files are only read for local listings.
func (s *session) controller(boundary string, sel *scanpaths.Set, excludes bool) *browser.Controller {
	opts := browser.Options{
		Boundary:      boundary,
		AllowExternal: s.cfg.AllowExternalPaths,
		Selection:     sel,
		Logger:        s.logger,
	}
	if excludes {
		opts.Exclude = s.excludeList(boundary)
	}
	return browser.New(s.lister(), opts)
}

func (s *session) excludeList(root string) *fs.ExcludeList {
	base := append(append([]string{}, fs.ListingExcludes...), s.cfg.ExtraExcludes...)
	if root == pathpolicy.Empty || s.cfg.EffectiveListingURL() != config.LocalListing {
		return fs.BuildExcludeList(fs.ExcludeOptions{Base: base})
	}
	list, err := fs.LoadProjectExcludes(root, base)
	if err != nil {
		s.logger.Warn("reading ignore file", "root", root, "error", err)
		return fs.BuildExcludeList(fs.ExcludeOptions{Base: base})
	}
	return list
}

func (s *session) planClient() *planclient.Client {
	return planclient.New(s.cfg.APIURL, s.cfg.AuthToken(), s.logger)
}

// resolvePath turns a command-line path into normalized form. Relative paths
// are taken against base, or the working directory when base is empty.
func resolvePath(base, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return pathpolicy.Normalize(base), nil
	}
	if arg == "~" || strings.HasPrefix(arg, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		arg = filepath.Join(home, arg[1:])
	}

	slashed := filepath.ToSlash(arg)
	if filepath.IsAbs(arg) || strings.HasPrefix(slashed, "/") || filepath.VolumeName(arg) != "" {
		return pathpolicy.Normalize(slashed), nil
	}
	if base == pathpolicy.Empty {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return "", err
		}
		return pathpolicy.Normalize(filepath.ToSlash(abs)), nil
	}
	return pathpolicy.Join(base, slashed), nil
}
