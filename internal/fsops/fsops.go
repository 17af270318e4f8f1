package fsops

import (
	"fmt"

	"github.com/fsgate/fsgate/internal/config"
	"github.com/fsgate/fsgate/internal/logging"
	"github.com/fsgate/fsgate/internal/pathsec"
	"github.com/fsgate/fsgate/internal/protocol"
)

// Operations implements the filesystem tool set against the real
// filesystem, guarded by the path security policy and the
// write-enabled flag.
type Operations struct {
	policy *pathsec.Policy
	cfg    *config.Config
	log    *logging.Logger
}

// New creates the operations set.
func New(policy *pathsec.Policy, cfg *config.Config, log *logging.Logger) *Operations {
	return &Operations{policy: policy, cfg: cfg, log: log}
}

// NormalizePath converts a path into the canonical notation without
// touching the filesystem.
func (o *Operations) NormalizePath(params map[string]interface{}) (map[string]interface{}, error) {
	raw, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	normalized, err := pathsec.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"path":       raw,
		"normalized": normalized,
	}, nil
}

// AllowedDirectories returns the configured allow-list roots.
func (o *Operations) AllowedDirectories() map[string]interface{} {
	roots := o.policy.Roots()
	dirs := make([]interface{}, len(roots))
	for i, r := range roots {
		dirs[i] = r
	}
	return map[string]interface{}{
		"directories": dirs,
		"count":       len(dirs),
	}
}

// SymlinksAllowed reports the symlink policy flag.
func (o *Operations) SymlinksAllowed() map[string]interface{} {
	return map[string]interface{}{
		"symlinksAllowed": o.policy.SymlinksAllowed(),
	}
}

// resolve normalizes a raw path, checks it against the policy, and
// returns the normalized form plus the host form handed to the OS.
func (o *Operations) resolve(op, raw string) (normalized, host string, err error) {
	normalized, err = pathsec.Normalize(raw)
	if err != nil {
		return "", "", err
	}
	if err := o.policy.Check(op, normalized); err != nil {
		return "", "", err
	}
	return normalized, o.policy.HostPath(normalized), nil
}

// gateWrite rejects the mutation when writes are disabled.
func (o *Operations) gateWrite(op string) error {
	if !o.cfg.WriteEnabled {
		return &protocol.SecurityError{Op: op, Reason: "write operations are disabled"}
	}
	return nil
}

func stringParam(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", &protocol.InvalidArgumentError{Reason: fmt.Sprintf("%s parameter required", key)}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", &protocol.InvalidArgumentError{Reason: fmt.Sprintf("%s parameter must be a non-empty string", key)}
	}
	return s, nil
}

func optionalStringParam(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &protocol.InvalidArgumentError{Reason: fmt.Sprintf("%s parameter must be a string", key)}
	}
	return s, nil
}

func boolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}
