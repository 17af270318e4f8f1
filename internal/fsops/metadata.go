package fsops

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fsgate/fsgate/internal/protocol"
)

// GetFileInfo returns metadata for a file or directory, including the
// detected MIME type for regular files.
func (o *Operations) GetFileInfo(params map[string]interface{}) (map[string]interface{}, error) {
	raw, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}

	normalized, host, err := o.resolve("getInfo", raw)
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

	result := map[string]interface{}{
		"path":        normalized,
		"name":        fi.Name(),
		"size":        fi.Size(),
		"isDirectory": fi.IsDir(),
		"mode":        fi.Mode().String(),
		"modified":    fi.ModTime().UTC().Format(time.RFC3339),
	}
	if !fi.IsDir() {
		result["extension"] = filepath.Ext(fi.Name())
		if mtype, mErr := mimetype.DetectFile(host); mErr == nil {
			result["mimeType"] = mtype.String()
		}
	}
	return result, nil
}
