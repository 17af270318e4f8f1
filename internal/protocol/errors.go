package protocol

import (
	"errors"
	"fmt"
)

// SecurityError marks a sandbox violation: a path outside the allowed
// directories, a disallowed symlink, a reserved device name, or a
// mutation attempted while writes are disabled.
type SecurityError struct {
	Op     string
	Path   string
	Reason string
}

func (e *SecurityError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Reason)
}

// NotFoundError marks a missing file or directory.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// InvalidArgumentError marks a malformed or out-of-range parameter:
// wrong type, oversized file, non-directory where a directory was
// expected, and the like.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

// FormatError marks input that cannot be parsed at all, such as an
// empty path or one with an embedded NUL byte.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return e.Reason
}

// MethodNotFoundError marks an unknown method or tool name. Kind is
// "method" or "tool".
type MethodNotFoundError struct {
	Kind string
	Name string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// CodeFor maps a typed error onto its reserved wire code. Anything
// outside the taxonomy is an internal error.
func CodeFor(err error) int {
	var (
		secErr    *SecurityError
		nfErr     *NotFoundError
		argErr    *InvalidArgumentError
		fmtErr    *FormatError
		methodErr *MethodNotFoundError
	)
	switch {
	case errors.As(err, &secErr):
		return CodeSecurity
	case errors.As(err, &nfErr):
		return CodeNotFound
	case errors.As(err, &methodErr):
		return CodeMethodNotFound
	case errors.As(err, &argErr), errors.As(err, &fmtErr):
		return CodeInvalidParams
	default:
		return CodeInternal
	}
}
