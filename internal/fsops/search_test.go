package fsops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsgate/fsgate/internal/protocol"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestSearchFiles(t *testing.T) {
	ops, root := newTestOps(t, true)
	writeTree(t, root, map[string]string{
		"main.go":       "package main\n\nfunc main() {\n\tneedle()\n}\n",
		"sub/helper.go": "package sub\n// needle here too\n",
		"sub/data.txt":  "needle in a text file\n",
	})

	result, err := ops.SearchFiles(params("path", filepath.ToSlash(root), "query", "needle"))
	require.NoError(t, err)
	// Default pattern only matches Go sources.
	assert.Equal(t, 2, result["files"])

	results := result["results"].([]interface{})
	require.Len(t, results, 2)

	first := results[0].(map[string]interface{})
	assert.Equal(t, "main.go", first["path"])
	matches := first["matches"].([]interface{})
	require.Len(t, matches, 1)
	match := matches[0].(map[string]interface{})
	assert.Equal(t, 4, match["lineNumber"])
	assert.Equal(t, "\tneedle()", match["line"])

	second := results[1].(map[string]interface{})
	assert.Equal(t, "sub/helper.go", second["path"])
}

func TestSearchFilesCustomPattern(t *testing.T) {
	ops, root := newTestOps(t, true)
	writeTree(t, root, map[string]string{
		"a.txt": "needle\n",
		"b.go":  "needle\n",
	})

	result, err := ops.SearchFiles(params(
		"path", filepath.ToSlash(root),
		"query", "needle",
		"pattern", "*.txt",
	))
	require.NoError(t, err)
	assert.Equal(t, 1, result["files"])
	first := result["results"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "a.txt", first["path"])
}

func TestSearchFilesNoMatches(t *testing.T) {
	ops, root := newTestOps(t, true)
	writeTree(t, root, map[string]string{"a.go": "nothing here\n"})

	result, err := ops.SearchFiles(params("path", filepath.ToSlash(root), "query", "absent"))
	require.NoError(t, err)
	assert.Equal(t, 0, result["files"])
	assert.Empty(t, result["results"])
}

func TestSearchFilesErrors(t *testing.T) {
	ops, root := newTestOps(t, true)

	var argErr *protocol.InvalidArgumentError
	_, err := ops.SearchFiles(params("path", filepath.ToSlash(root), "query", "x", "pattern", "[bad"))
	require.Error(t, err)
	assert.ErrorAs(t, err, &argErr)

	var secErr *protocol.SecurityError
	_, err = ops.SearchFiles(params("path", "/etc", "query", "root"))
	require.Error(t, err)
	assert.ErrorAs(t, err, &secErr)

	_, err = ops.SearchFiles(params("path", filepath.ToSlash(root), "query", ""))
	require.Error(t, err)
	assert.ErrorAs(t, err, &argErr)
}

func TestReadFileEncodings(t *testing.T) {
	ops, root := newTestOps(t, true)
	utf8Content := "héllo wörld, çà et là, déjà vu über alles\n"
	utf8File := filepath.Join(root, "u.txt")
	require.NoError(t, os.WriteFile(utf8File, []byte(utf8Content), 0o644))

	// ISO-8859-1 bytes for "héllo".
	latinFile := filepath.Join(root, "l.txt")
	require.NoError(t, os.WriteFile(latinFile, []byte{'h', 0xe9, 'l', 'l', 'o'}, 0o644))

	auto, err := ops.ReadFile(params("path", filepath.ToSlash(utf8File), "encoding", "auto"))
	require.NoError(t, err)
	assert.Equal(t, utf8Content, auto["content"])

	latin, err := ops.ReadFile(params("path", filepath.ToSlash(latinFile), "encoding", "ISO-8859-1"))
	require.NoError(t, err)
	assert.Equal(t, "héllo", latin["content"])

	var argErr *protocol.InvalidArgumentError
	_, err = ops.ReadFile(params("path", filepath.ToSlash(utf8File), "encoding", "not-a-charset"))
	require.Error(t, err)
	assert.ErrorAs(t, err, &argErr)
}
