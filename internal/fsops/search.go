package fsops

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/pathsec"
	"github.com/fsgate/fsgate/internal/protocol"
)

// Per-file cap keeps one pathological file from flooding the result.
const maxMatchesPerFile = 100

// SearchFiles walks files under a directory whose names match a
// pattern (default "*.go") and scans each line by line for a query
// string, returning per-file match lists with 1-based line numbers.
// Unreadable files are logged and skipped, never fatal.
func (o *Operations) SearchFiles(params map[string]interface{}) (map[string]interface{}, error) {
	raw, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	query, err := stringParam(params, "query")
	if err != nil {
		return nil, err
	}
	pattern, err := optionalStringParam(params, "pattern")
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = "*.go"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, &protocol.InvalidArgumentError{Reason: fmt.Sprintf("invalid pattern: %s", pattern)}
	}

	normalized, host, err := o.resolve("search", raw)
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

	var mu sync.Mutex
	results := []interface{}{}
	conf := fastwalk.Config{Follow: o.policy.SymlinksAllowed()}

	walkErr := fastwalk.Walk(&conf, host, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			o.log.Warn("search walk error", zap.String("path", p), zap.Error(err))
			return nil
		}
		if d.IsDir() || pathsec.IsReservedName(d.Name()) {
			return nil
		}
		if matched, mErr := doublestar.Match(pattern, d.Name()); mErr != nil || !matched {
			return nil
		}

		matches, scanErr := scanFile(p, query)
		if scanErr != nil {
			o.log.Warn("skipping unreadable file", zap.String("path", p), zap.Error(scanErr))
			return nil
		}
		if len(matches) == 0 {
			return nil
		}

		rel, relErr := filepath.Rel(host, p)
		if relErr != nil {
			rel = d.Name()
		}
		mu.Lock()
		results = append(results, map[string]interface{}{
			"path":    filepath.ToSlash(rel),
			"name":    d.Name(),
			"matches": matches,
		})
		mu.Unlock()
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("search %s: %w", normalized, walkErr)
	}

	sort.Slice(results, func(i, j int) bool {
		a := results[i].(map[string]interface{})["path"].(string)
		b := results[j].(map[string]interface{})["path"].(string)
		return a < b
	})

	return map[string]interface{}{
		"path":    normalized,
		"query":   query,
		"pattern": pattern,
		"results": results,
		"files":   len(results),
	}, nil
}

func scanFile(path, query string) ([]interface{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	matches := []interface{}{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if strings.Contains(scanner.Text(), query) {
			matches = append(matches, map[string]interface{}{
				"lineNumber": lineNum,
				"line":       scanner.Text(),
			})
			if len(matches) >= maxMatchesPerFile {
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}
