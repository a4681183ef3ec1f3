package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tormodhaugland/planner/internal/git"
	"github.com/tormodhaugland/planner/internal/listing"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
)

type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// PlanLister is the part of the Plan Service client the service check needs.
type PlanLister interface {
	ListPlans(ctx context.Context, page, pageSize int) (*model.PaginatedPlans, error)
}

func CheckProjectRoot(root string, local bool) Check {
	c := Check{Name: "project root"}
	switch {
	case root == pathpolicy.Empty:
		c.Status = StatusFail
		c.Detail = "not set"
	case !local:
		c.Status = StatusOK
		c.Detail = root + " (remote listing, not checked locally)"
	default:
		info, err := os.Stat(filepath.FromSlash(root))
		if err != nil || !info.IsDir() {
			c.Status = StatusFail
			c.Detail = root + " does not exist"
		} else {
			c.Status = StatusOK
			c.Detail = root
		}
	}
	return c
}

// CheckGit reports the repository state of root. A missing repository is
// only a warning: plans still apply, but without a before/after commit.
func CheckGit(ctx context.Context, root string) Check {
	c := Check{Name: "git"}
	if root == pathpolicy.Empty || !git.IsRepo(ctx, filepath.FromSlash(root)) {
		c.Status = StatusWarn
		c.Detail = "project root is not a git repository"
		return c
	}
	info, err := git.GetInfo(ctx, filepath.FromSlash(root))
	if err != nil {
		c.Status = StatusWarn
		c.Detail = err.Error()
		return c
	}
	c.Status = StatusOK
	c.Detail = fmt.Sprintf("%s @ %.8s", orUnknown(info.Branch), info.Head)
	if info.Dirty {
		c.Status = StatusWarn
		c.Detail += " (uncommitted changes)"
	}
	return c
}

func CheckListing(ctx context.Context, lister listing.Lister, root string) Check {
	c := Check{Name: "listing service"}
	target := root
	if target == pathpolicy.Empty {
		target = "/"
	}
	entries, err := lister.List(ctx, target)
	if err != nil {
		c.Status = StatusFail
		c.Detail = err.Error()
		return c
	}
	c.Status = StatusOK
	c.Detail = fmt.Sprintf("%d entries in %s", len(entries), target)
	return c
}

func CheckPlanService(ctx context.Context, plans PlanLister) Check {
	c := Check{Name: "plan service"}
	page, err := plans.ListPlans(ctx, 1, 1)
	if err != nil {
		c.Status = StatusFail
		c.Detail = err.Error()
		return c
	}
	c.Status = StatusOK
	c.Detail = fmt.Sprintf("%d plans", page.Total)
	return c
}

// FindStaleScanPaths returns the scan paths that no longer exist on disk.
func FindStaleScanPaths(paths []string) []string {
	stale := make([]string, 0)
	for _, p := range paths {
		if _, err := os.Stat(filepath.FromSlash(p)); os.IsNotExist(err) {
			stale = append(stale, p)
		}
	}
	return stale
}

// Failed counts the failing checks.
func Failed(checks []Check) int {
	n := 0
	for _, c := range checks {
		if c.Status == StatusFail {
			n++
		}
	}
	return n
}

func orUnknown(s string) string {
	if s == "" {
		return "detached"
	}
	return s
}
