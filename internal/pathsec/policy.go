package pathsec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsgate/fsgate/internal/protocol"
)

// reservedNames are platform device names that must never reach a
// filesystem primitive, with or without extension, regardless of
// directory containment.
var reservedNames = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
	"com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
	"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// Policy decides whether a normalized path may be handed to a
// filesystem primitive. Roots are canonicalized once at construction
// and immutable afterwards.
type Policy struct {
	roots           []string
	symlinksAllowed bool
}

// NewPolicy canonicalizes the allowed directories and returns the
// policy. At least one allowed directory is required.
func NewPolicy(allowedDirs []string, symlinksAllowed bool) (*Policy, error) {
	if len(allowedDirs) == 0 {
		return nil, fmt.Errorf("at least one allowed directory is required")
	}
	roots := make([]string, 0, len(allowedDirs))
	for _, dir := range allowedDirs {
		normalized, err := Normalize(dir)
		if err != nil {
			return nil, fmt.Errorf("allowed directory %q: %w", dir, err)
		}
		canonical, err := canonicalize(normalized)
		if err != nil {
			return nil, fmt.Errorf("allowed directory %q: %w", dir, err)
		}
		roots = append(roots, canonical)
	}
	return &Policy{roots: roots, symlinksAllowed: symlinksAllowed}, nil
}

// Roots returns the canonical allowed directories in configuration
// order.
func (p *Policy) Roots() []string {
	out := make([]string, len(p.roots))
	copy(out, p.roots)
	return out
}

// SymlinksAllowed reports the symlink policy flag.
func (p *Policy) SymlinksAllowed() bool {
	return p.symlinksAllowed
}

// IsAllowed reports whether the normalized path passes the policy.
func (p *Policy) IsAllowed(normalized string) bool {
	return p.Check("access", normalized) == nil
}

// Check validates the normalized path and returns a SecurityError on
// DENY. Op names the attempted operation for the error message.
func (p *Policy) Check(op, normalized string) error {
	if isReservedName(filepath.Base(normalized)) {
		return &protocol.SecurityError{Op: op, Path: normalized, Reason: "reserved device name"}
	}

	abs := hostPath(normalized)

	if !p.symlinksAllowed {
		if fi, err := os.Lstat(abs); err == nil && fi.Mode()&os.ModeSymlink != 0 {
			return &protocol.SecurityError{Op: op, Path: normalized, Reason: "symbolic links are not allowed"}
		}
	}

	canonical, err := canonicalize(abs)
	if err != nil {
		return &protocol.SecurityError{Op: op, Path: normalized, Reason: "path cannot be resolved"}
	}

	for _, root := range p.roots {
		if containsPath(root, canonical) {
			return nil
		}
	}
	return &protocol.SecurityError{Op: op, Path: normalized, Reason: "path is outside the allowed directories"}
}

// HostPath converts a normalized path into the form handed to the
// operating system, resolved to an absolute path.
func (p *Policy) HostPath(normalized string) string {
	return hostPath(normalized)
}

func hostPath(normalized string) string {
	host := filepath.FromSlash(normalized)
	abs, err := filepath.Abs(host)
	if err != nil {
		return host
	}
	return abs
}

// canonicalize resolves symlinks where the path exists; for a target
// that does not exist yet (a future write destination) it resolves the
// deepest existing parent and rejoins the remainder.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(filepath.FromSlash(p))
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	dir := abs
	var tail []string
	for {
		parent := filepath.Dir(dir)
		tail = append([]string{filepath.Base(dir)}, tail...)
		if parent == dir {
			return abs, nil
		}
		dir = parent
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
	}
}

// containsPath reports whether p equals root or is a path-segment
// descendant of it. Comparison is segment-wise, never a raw string
// prefix, so "/allowed-2" does not satisfy "/allowed".
func containsPath(root, p string) bool {
	if p == root {
		return true
	}
	sep := string(os.PathSeparator)
	if root == sep {
		return strings.HasPrefix(p, sep)
	}
	return strings.HasPrefix(p, root+sep)
}

func isReservedName(name string) bool {
	base := strings.ToLower(name)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	_, ok := reservedNames[base]
	return ok
}

// IsReservedName reports whether the file name matches a platform
// device name, with or without extension, case-insensitive.
func IsReservedName(name string) bool {
	return isReservedName(name)
}
