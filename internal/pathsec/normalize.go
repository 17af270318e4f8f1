package pathsec

import (
	"path"
	"strings"

	"github.com/fsgate/fsgate/internal/protocol"
)

// Normalize converts a raw path into the canonical forward-slash form
// used for all comparisons: backslashes become slashes, a drive-letter
// prefix becomes a POSIX-style mount ("C:\Users" -> "/c/Users"), and
// the result is lexically cleaned. It performs no filesystem access
// and is idempotent.
func Normalize(raw string) (string, error) {
	if raw == "" {
		return "", &protocol.FormatError{Reason: "path is empty"}
	}
	if strings.ContainsRune(raw, 0) {
		return "", &protocol.FormatError{Reason: "path contains NUL byte"}
	}

	p := strings.ReplaceAll(raw, "\\", "/")
	if len(p) >= 2 && p[1] == ':' && isDriveLetter(p[0]) {
		rest := p[2:]
		if !strings.HasPrefix(rest, "/") {
			rest = "/" + rest
		}
		p = "/" + strings.ToLower(p[:1]) + rest
	}

	// path.Clean collapses "." and ".." segments and duplicate
	// separators; it never re-introduces a drive prefix, so a second
	// Normalize is a no-op.
	return path.Clean(p), nil
}

func isDriveLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
