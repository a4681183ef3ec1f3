// Package pathpolicy normalizes browser paths and decides which of them a
// browsing session may reach. Every function is pure and never fails; bad
// input collapses to Empty instead.
package pathpolicy

import (
	"path"
	"regexp"
	"strings"
)

// Empty is what Normalize returns for blank input. Callers must reject it
// before navigating.
const Empty = ""

var driveRootPattern = regexp.MustCompile(`^[A-Za-z]:/?$`)

// Normalize converts raw into canonical forward-slash form with "." and ".."
// resolved, duplicate slashes collapsed and no trailing slash (except for a
// root such as "/" or "C:/").
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return Empty
	}
	p := strings.ReplaceAll(raw, `\`, "/")

	if drive, rest, ok := splitDrive(p); ok {
		// Drive-relative forms like "C:foo" are anchored at the drive root.
		return drive + path.Clean("/"+rest)
	}
	p = path.Clean(p)
	// Cleaning can expose a drive, as in "./C:x" or "a/../C:foo".
	if drive, rest, ok := splitDrive(p); ok {
		return drive + path.Clean("/"+rest)
	}
	return p
}

// IsRoot reports whether p is "/" or a bare drive root like "C:/".
func IsRoot(p string) bool {
	return p == "/" || driveRootPattern.MatchString(p)
}

// Contains reports whether target equals boundary or lies beneath it,
// comparing whole segments so "/foo2" is not inside "/foo".
func Contains(boundary, target string) bool {
	b := Normalize(boundary)
	t := Normalize(target)
	if b == Empty || t == Empty {
		return false
	}
	if t == b {
		return true
	}
	switch {
	case IsRoot(b):
		return strings.HasPrefix(t, strings.TrimSuffix(b, "/")+"/")
	case b == ".":
		return !path.IsAbs(t) && !hasDrive(t) && t != ".." && !strings.HasPrefix(t, "../")
	default:
		return strings.HasPrefix(t, b+"/")
	}
}

// CanNavigateTo reports whether target may be browsed. With allowExternal
// every non-empty target is allowed. An empty boundary means no boundary is
// configured.
func CanNavigateTo(target, boundary string, allowExternal bool) bool {
	if Normalize(target) == Empty {
		return false
	}
	if allowExternal || Normalize(boundary) == Empty {
		return true
	}
	return Contains(boundary, target)
}

// CanGoUp reports whether "go up" from current is legal. Roots never go up;
// when external paths are disallowed the boundary itself is the ceiling.
func CanGoUp(current, boundary string, allowExternal bool) bool {
	c := Normalize(current)
	if c == Empty || IsRoot(c) || ParentOf(c) == c {
		return false
	}
	if allowExternal {
		return true
	}
	b := Normalize(boundary)
	if b == Empty {
		return true
	}
	return c != b && Contains(b, c)
}

// ParentOf returns the directory containing p. A root is its own parent.
func ParentOf(p string) string {
	n := Normalize(p)
	if n == Empty || IsRoot(n) {
		return n
	}
	if drive, rest, ok := splitDrive(n); ok {
		return drive + path.Dir(rest)
	}
	if n == ".." || strings.HasSuffix(n, "/..") {
		return n + "/.."
	}
	return path.Dir(n)
}

// Join appends name to base and normalizes the result.
func Join(base, name string) string {
	if Normalize(base) == Empty {
		return Normalize(name)
	}
	return Normalize(base + "/" + name)
}

// Rel returns target relative to boundary when target is inside it, and the
// normalized target otherwise.
func Rel(boundary, target string) string {
	t := Normalize(target)
	if !Contains(boundary, t) {
		return t
	}
	b := Normalize(boundary)
	if t == b {
		return "."
	}
	if IsRoot(b) {
		return strings.TrimPrefix(t, strings.TrimSuffix(b, "/")+"/")
	}
	if b == "." {
		return t
	}
	return strings.TrimPrefix(t, b+"/")
}

func hasDrive(p string) bool {
	_, _, ok := splitDrive(p)
	return ok
}

// splitDrive splits "C:/x" into "C:" and "/x".
func splitDrive(p string) (drive, rest string, ok bool) {
	if len(p) < 2 || p[1] != ':' {
		return "", p, false
	}
	c := p[0]
	if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
		return "", p, false
	}
	return p[:2], p[2:], true
}
