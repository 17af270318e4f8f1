package fsops

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/protocol"
)

// ReadFile reads a file, enforcing the size cap before any bytes are
// read, and decodes it with the requested encoding ("utf-8" default,
// "auto" detects).
func (o *Operations) ReadFile(params map[string]interface{}) (map[string]interface{}, error) {
	raw, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	encoding, err := optionalStringParam(params, "encoding")
	if err != nil {
		return nil, err
	}

	normalized, host, err := o.resolve("read", raw)
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
	if fi.IsDir() {
		return nil, &protocol.InvalidArgumentError{Reason: fmt.Sprintf("%s is a directory", normalized)}
	}
	if fi.Size() > o.cfg.MaxFileBytes() {
		return nil, &protocol.InvalidArgumentError{
			Reason: fmt.Sprintf("file exceeds maximum size of %d MB", o.cfg.MaxFileSizeMB),
		}
	}

	data, err := os.ReadFile(host)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", normalized, err)
	}

	content, usedEncoding, err := decodeText(data, encoding)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"path":     normalized,
		"content":  content,
		"size":     fi.Size(),
		"encoding": usedEncoding,
	}, nil
}

// WriteFile overwrites the target with the given content. When backup
// is requested and the target already exists, a copy is kept at
// path+".backup" before the write.
func (o *Operations) WriteFile(params map[string]interface{}) (map[string]interface{}, error) {
	if err := o.gateWrite("write"); err != nil {
		return nil, err
	}
	raw, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	content, ok := params["content"].(string)
	if !ok {
		return nil, &protocol.InvalidArgumentError{Reason: "content parameter must be a string"}
	}
	backup := boolParam(params, "backup", false)

	normalized, host, err := o.resolve("write", raw)
	if err != nil {
		return nil, err
	}

	var backupPath interface{}
	if backup {
		if _, statErr := os.Stat(host); statErr == nil {
			bp := host + ".backup"
			if err := copyFileContents(host, bp); err != nil {
				return nil, fmt.Errorf("backup %s: %w", normalized, err)
			}
			backupPath = normalized + ".backup"
		}
	}

	if err := os.WriteFile(host, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", normalized, err)
	}

	return map[string]interface{}{
		"path":   normalized,
		"size":   len(content),
		"backup": backupPath,
	}, nil
}

// DeleteFile removes a file or directory. Non-recursive deletes fail
// on a non-empty directory; recursive deletes walk deepest-first so
// children go before parents, skipping (and logging) entries that
// refuse to die. Success is judged by whether the root is gone.
func (o *Operations) DeleteFile(params map[string]interface{}) (map[string]interface{}, error) {
	if err := o.gateWrite("delete"); err != nil {
		return nil, err
	}
	raw, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	recursive := boolParam(params, "recursive", false)

	normalized, host, err := o.resolve("delete", raw)
	if err != nil {
		return nil, err
	}

	fi, err := os.Lstat(host)
	if os.IsNotExist(err) {
		return nil, &protocol.NotFoundError{Path: normalized}
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", normalized, err)
	}

	if !recursive || !fi.IsDir() {
		if err := os.Remove(host); err != nil {
			if fi.IsDir() {
				return nil, &protocol.InvalidArgumentError{
					Reason: fmt.Sprintf("%s is a non-empty directory; use recursive delete", normalized),
				}
			}
			return nil, fmt.Errorf("delete %s: %w", normalized, err)
		}
		return map[string]interface{}{"path": normalized, "deleted": true}, nil
	}

	o.deleteTree(host)

	_, statErr := os.Lstat(host)
	deleted := os.IsNotExist(statErr)
	return map[string]interface{}{"path": normalized, "deleted": deleted}, nil
}

// deleteTree removes a subtree deepest-first. Individual failures are
// logged and skipped.
func (o *Operations) deleteTree(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		o.log.Warn("failed to list directory during recursive delete",
			zap.String("path", root), zap.Error(err))
	}
	for _, entry := range entries {
		child := root + string(os.PathSeparator) + entry.Name()
		if entry.IsDir() {
			o.deleteTree(child)
			continue
		}
		if err := os.Remove(child); err != nil {
			o.log.Warn("failed to delete entry", zap.String("path", child), zap.Error(err))
		}
	}
	if err := os.Remove(root); err != nil {
		o.log.Warn("failed to delete directory", zap.String("path", root), zap.Error(err))
	}
}

func copyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
