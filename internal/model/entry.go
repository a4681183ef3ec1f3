package model

import (
	"sort"
	"strings"
)

// DirectoryEntry is one child returned by a directory listing.
type DirectoryEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsDirectory bool   `json:"isDirectory"`
}

// SortEntries orders entries for display: directories before files, each
// group alphabetical by name. The input slice is sorted in place.
func SortEntries(entries []DirectoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDirectory != entries[j].IsDirectory {
			return entries[i].IsDirectory
		}
		li, lj := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
		if li != lj {
			return li < lj
		}
		return entries[i].Name < entries[j].Name
	})
}

// Directories returns only the directory entries, preserving order.
func Directories(entries []DirectoryEntry) []DirectoryEntry {
	var dirs []DirectoryEntry
	for _, e := range entries {
		if e.IsDirectory {
			dirs = append(dirs, e)
		}
	}
	return dirs
}
