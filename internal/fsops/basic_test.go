package fsops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsgate/fsgate/internal/config"
	"github.com/fsgate/fsgate/internal/logging"
	"github.com/fsgate/fsgate/internal/pathsec"
	"github.com/fsgate/fsgate/internal/protocol"
)

func newTestOps(t *testing.T, writeEnabled bool) (*Operations, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.AllowedDirs = []string{root}
	cfg.WriteEnabled = writeEnabled
	cfg.MaxFileSizeMB = 1

	policy, err := pathsec.NewPolicy(cfg.AllowedDirs, cfg.SymlinksAllowed)
	require.NoError(t, err)
	return New(policy, cfg, logging.NewNop()), root
}

func params(kv ...interface{}) map[string]interface{} {
	p := make(map[string]interface{}, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		p[kv[i].(string)] = kv[i+1]
	}
	return p
}

func TestWriteReadRoundTrip(t *testing.T) {
	ops, root := newTestOps(t, true)
	target := filepath.ToSlash(filepath.Join(root, "a.txt"))

	wrote, err := ops.WriteFile(params("path", target, "content", "hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, wrote["size"])
	assert.Nil(t, wrote["backup"])

	read, err := ops.ReadFile(params("path", target))
	require.NoError(t, err)
	assert.Equal(t, "hello", read["content"])
	assert.Equal(t, "utf-8", read["encoding"])
	assert.Equal(t, int64(5), read["size"])
}

func TestWriteBackup(t *testing.T) {
	ops, root := newTestOps(t, true)
	target := filepath.ToSlash(filepath.Join(root, "a.txt"))

	// First write: nothing to back up even when requested.
	first, err := ops.WriteFile(params("path", target, "content", "v1", "backup", true))
	require.NoError(t, err)
	assert.Nil(t, first["backup"])

	second, err := ops.WriteFile(params("path", target, "content", "v2", "backup", true))
	require.NoError(t, err)
	assert.Equal(t, target+".backup", second["backup"])

	backed, err := os.ReadFile(filepath.Join(root, "a.txt.backup"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(backed))

	current, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(current))
}

func TestWriteGating(t *testing.T) {
	ops, root := newTestOps(t, false)
	target := filepath.ToSlash(filepath.Join(root, "a.txt"))
	var secErr *protocol.SecurityError

	_, err := ops.WriteFile(params("path", target, "content", "x"))
	require.Error(t, err)
	assert.ErrorAs(t, err, &secErr)

	_, err = ops.DeleteFile(params("path", target))
	require.Error(t, err)
	assert.ErrorAs(t, err, &secErr)

	_, err = ops.CreateDirectory(params("path", filepath.ToSlash(filepath.Join(root, "d"))))
	require.Error(t, err)
	assert.ErrorAs(t, err, &secErr)

	_, err = ops.CopyFile(params("source", target, "destination", target+".2"))
	require.Error(t, err)
	assert.ErrorAs(t, err, &secErr)

	_, err = ops.MoveFile(params("source", target, "destination", target+".2"))
	require.Error(t, err)
	assert.ErrorAs(t, err, &secErr)

	// No mutation happened.
	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestReadContainment(t *testing.T) {
	ops, _ := newTestOps(t, true)
	var secErr *protocol.SecurityError

	_, err := ops.ReadFile(params("path", "/etc/passwd"))
	require.Error(t, err)
	assert.ErrorAs(t, err, &secErr)

	_, err = ops.DeleteFile(params("path", "/etc/passwd"))
	require.Error(t, err)
	assert.ErrorAs(t, err, &secErr)
	assert.Equal(t, protocol.CodeSecurity, protocol.CodeFor(err))
}

func TestReadMissingFile(t *testing.T) {
	ops, root := newTestOps(t, true)
	var nfErr *protocol.NotFoundError

	_, err := ops.ReadFile(params("path", filepath.ToSlash(filepath.Join(root, "nope.txt"))))
	require.Error(t, err)
	assert.ErrorAs(t, err, &nfErr)
}

func TestReadSizeLimit(t *testing.T) {
	ops, root := newTestOps(t, true)
	big := filepath.Join(root, "big.bin")
	require.NoError(t, os.WriteFile(big, make([]byte, 2*1024*1024), 0o644))

	var argErr *protocol.InvalidArgumentError
	_, err := ops.ReadFile(params("path", filepath.ToSlash(big)))
	require.Error(t, err)
	assert.ErrorAs(t, err, &argErr)
}

func TestReadDirectoryRejected(t *testing.T) {
	ops, root := newTestOps(t, true)
	var argErr *protocol.InvalidArgumentError

	_, err := ops.ReadFile(params("path", filepath.ToSlash(root)))
	require.Error(t, err)
	assert.ErrorAs(t, err, &argErr)
}

func TestDeleteFile(t *testing.T) {
	ops, root := newTestOps(t, true)
	target := filepath.Join(root, "x.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	result, err := ops.DeleteFile(params("path", filepath.ToSlash(target)))
	require.NoError(t, err)
	assert.Equal(t, true, result["deleted"])
	assert.NoFileExists(t, target)
}

func TestDeleteNonEmptyDirectoryNeedsRecursive(t *testing.T) {
	ops, root := newTestOps(t, true)
	dir := filepath.Join(root, "d")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644))

	var argErr *protocol.InvalidArgumentError
	_, err := ops.DeleteFile(params("path", filepath.ToSlash(dir)))
	require.Error(t, err)
	assert.ErrorAs(t, err, &argErr)
	assert.DirExists(t, dir)

	result, err := ops.DeleteFile(params("path", filepath.ToSlash(dir), "recursive", true))
	require.NoError(t, err)
	assert.Equal(t, true, result["deleted"])
	assert.NoDirExists(t, dir)
}

func TestDeleteRecursiveDeep(t *testing.T) {
	ops, root := newTestOps(t, true)
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(deep, "leaf.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "top.txt"), []byte("y"), 0o644))

	result, err := ops.DeleteFile(params("path", filepath.ToSlash(filepath.Join(root, "a")), "recursive", true))
	require.NoError(t, err)
	assert.Equal(t, true, result["deleted"])
	assert.NoDirExists(t, filepath.Join(root, "a"))
}

func TestNormalizePathTool(t *testing.T) {
	ops, _ := newTestOps(t, false)

	result, err := ops.NormalizePath(params("path", "C:\\Users\\me\\doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "/c/Users/me/doc.txt", result["normalized"])

	var fmtErr *protocol.FormatError
	_, err = ops.NormalizePath(params("path", "x\x00y"))
	require.Error(t, err)
	assert.ErrorAs(t, err, &fmtErr)
}

func TestAllowedDirectoriesAndSymlinkFlag(t *testing.T) {
	ops, root := newTestOps(t, false)

	dirs := ops.AllowedDirectories()
	assert.Equal(t, 1, dirs["count"])
	list := dirs["directories"].([]interface{})
	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, resolved, list[0])

	assert.Equal(t, false, ops.SymlinksAllowed()["symlinksAllowed"])
}
