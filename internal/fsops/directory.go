package fsops

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/pathsec"
	"github.com/fsgate/fsgate/internal/protocol"
)

// ListDirectory lists a directory, flat by default or as a full
// subtree walk when recursive is set. Reserved device names are
// filtered out, as are entries not matching the optional filename
// pattern. A per-entry stat failure degrades that entry to type
// "unknown" with an error field.
func (o *Operations) ListDirectory(params map[string]interface{}) (map[string]interface{}, error) {
	raw, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	pattern, err := optionalStringParam(params, "pattern")
	if err != nil {
		return nil, err
	}
	if pattern != "" {
		if !doublestar.ValidatePattern(pattern) {
			return nil, &protocol.InvalidArgumentError{Reason: fmt.Sprintf("invalid pattern: %s", pattern)}
		}
	}
	recursive := boolParam(params, "recursive", false)

	normalized, host, err := o.resolve("list", raw)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(host)
	if os.IsNotExist(err) {
		return nil, &protocol.NotFoundError{Path: normalized}
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", normalized, err)
	}
	if !fi.IsDir() {
		return nil, &protocol.InvalidArgumentError{Reason: fmt.Sprintf("%s is not a directory", normalized)}
	}

	var entries []interface{}
	if recursive {
		entries, err = o.walkEntries(host, pattern)
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", normalized, err)
		}
	} else {
		entries, err = o.listEntries(host, pattern)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", normalized, err)
		}
	}

	return map[string]interface{}{
		"path":    normalized,
		"entries": entries,
		"count":   len(entries),
	}, nil
}

func (o *Operations) listEntries(host, pattern string) ([]interface{}, error) {
	dirEntries, err := os.ReadDir(host)
	if err != nil {
		return nil, err
	}
	entries := make([]interface{}, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if skipEntry(entry.Name(), pattern) {
			continue
		}
		entries = append(entries, entryResult(entry, entry.Name()))
	}
	return entries, nil
}

func (o *Operations) walkEntries(host, pattern string) ([]interface{}, error) {
	var mu sync.Mutex
	entries := []interface{}{}
	conf := fastwalk.Config{Follow: o.policy.SymlinksAllowed()}

	err := fastwalk.Walk(&conf, host, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			o.log.Warn("walk error", zap.String("path", p), zap.Error(err))
			return nil
		}
		if p == host {
			return nil
		}
		rel, relErr := filepath.Rel(host, p)
		if relErr != nil {
			rel = d.Name()
		}
		if skipEntry(d.Name(), pattern) {
			return nil
		}
		mu.Lock()
		entries = append(entries, entryResult(d, filepath.ToSlash(rel)))
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		a := entries[i].(map[string]interface{})["path"].(string)
		b := entries[j].(map[string]interface{})["path"].(string)
		return a < b
	})
	return entries, nil
}

// skipEntry filters reserved device names and pattern misses.
func skipEntry(name, pattern string) bool {
	if pathsec.IsReservedName(name) {
		return true
	}
	if pattern == "" {
		return false
	}
	matched, err := doublestar.Match(pattern, name)
	return err != nil || !matched
}

func entryResult(d os.DirEntry, relPath string) map[string]interface{} {
	kind := "file"
	if d.IsDir() {
		kind = "directory"
	}
	info, err := d.Info()
	if err != nil {
		return map[string]interface{}{
			"name":  d.Name(),
			"path":  relPath,
			"type":  "unknown",
			"error": err.Error(),
		}
	}
	return map[string]interface{}{
		"name":     d.Name(),
		"path":     relPath,
		"type":     kind,
		"size":     info.Size(),
		"modified": info.ModTime().UTC().Format(time.RFC3339),
	}
}

// CreateDirectory creates the directory and any missing parents.
func (o *Operations) CreateDirectory(params map[string]interface{}) (map[string]interface{}, error) {
	if err := o.gateWrite("createDirectory"); err != nil {
		return nil, err
	}
	raw, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}

	normalized, host, err := o.resolve("createDirectory", raw)
	if err != nil {
		return nil, err
	}

	existedBefore := false
	if fi, statErr := os.Stat(host); statErr == nil {
		if !fi.IsDir() {
			return nil, &protocol.InvalidArgumentError{Reason: fmt.Sprintf("%s exists and is not a directory", normalized)}
		}
		existedBefore = true
	}

	if err := os.MkdirAll(host, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", normalized, err)
	}

	_, statErr := os.Stat(host)
	return map[string]interface{}{
		"path":    normalized,
		"created": !existedBefore,
		"exists":  statErr == nil,
	}, nil
}
