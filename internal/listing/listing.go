// Package listing provides directory listings to the browser, either from the
// remote Directory Listing Service or from the local filesystem.
package listing

import (
	"context"
	"errors"

	"github.com/tormodhaugland/planner/internal/model"
)

// Lister returns the children of a directory. Errors carry a human-readable
// message; callers do not distinguish not-found, permission and transport
// failures.
type Lister interface {
	List(ctx context.Context, path string) ([]model.DirectoryEntry, error)
}

// FuncLister adapts a function to the Lister interface.
type FuncLister func(ctx context.Context, path string) ([]model.DirectoryEntry, error)

func (f FuncLister) List(ctx context.Context, path string) ([]model.DirectoryEntry, error) {
	return f(ctx, path)
}

// ErrOutsideRoot is returned by a confined LocalLister for paths outside its root.
var ErrOutsideRoot = errors.New("path is outside the listing root")
