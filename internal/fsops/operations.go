package fsops

import (
	"fmt"
	"os"

	"github.com/fsgate/fsgate/internal/protocol"
)

// CopyFile copies a single file. Both endpoints are subject to the
// allow-list; the overwrite flag controls collision behavior.
func (o *Operations) CopyFile(params map[string]interface{}) (map[string]interface{}, error) {
	if err := o.gateWrite("copy"); err != nil {
		return nil, err
	}
	srcNorm, srcHost, dstNorm, dstHost, err := o.resolvePair("copy", params)
	if err != nil {
		return nil, err
	}
	overwrite := boolParam(params, "overwrite", false)

	fi, err := os.Stat(srcHost)
	if os.IsNotExist(err) {
		return nil, &protocol.NotFoundError{Path: srcNorm}
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", srcNorm, err)
	}
	if fi.IsDir() {
		return nil, &protocol.InvalidArgumentError{Reason: fmt.Sprintf("%s is a directory; only files can be copied", srcNorm)}
	}

	if err := o.checkCollision(dstNorm, dstHost, overwrite); err != nil {
		return nil, err
	}

	if err := copyFileContents(srcHost, dstHost); err != nil {
		return nil, fmt.Errorf("copy %s to %s: %w", srcNorm, dstNorm, err)
	}

	return map[string]interface{}{
		"source":      srcNorm,
		"destination": dstNorm,
		"size":        fi.Size(),
	}, nil
}

// MoveFile moves or renames a file or directory. This is rename
// semantics, not copy-and-delete.
func (o *Operations) MoveFile(params map[string]interface{}) (map[string]interface{}, error) {
	if err := o.gateWrite("move"); err != nil {
		return nil, err
	}
	srcNorm, srcHost, dstNorm, dstHost, err := o.resolvePair("move", params)
	if err != nil {
		return nil, err
	}
	overwrite := boolParam(params, "overwrite", false)

	if _, err := os.Lstat(srcHost); os.IsNotExist(err) {
		return nil, &protocol.NotFoundError{Path: srcNorm}
	}

	if err := o.checkCollision(dstNorm, dstHost, overwrite); err != nil {
		return nil, err
	}

	if err := os.Rename(srcHost, dstHost); err != nil {
		return nil, fmt.Errorf("move %s to %s: %w", srcNorm, dstNorm, err)
	}

	return map[string]interface{}{
		"source":      srcNorm,
		"destination": dstNorm,
		"moved":       true,
	}, nil
}

// resolvePair normalizes and checks the source and destination paths
// of a two-endpoint operation.
func (o *Operations) resolvePair(op string, params map[string]interface{}) (srcNorm, srcHost, dstNorm, dstHost string, err error) {
	src, err := stringParam(params, "source")
	if err != nil {
		return "", "", "", "", err
	}
	dst, err := stringParam(params, "destination")
	if err != nil {
		return "", "", "", "", err
	}
	srcNorm, srcHost, err = o.resolve(op, src)
	if err != nil {
		return "", "", "", "", err
	}
	dstNorm, dstHost, err = o.resolve(op, dst)
	if err != nil {
		return "", "", "", "", err
	}
	return srcNorm, srcHost, dstNorm, dstHost, nil
}

func (o *Operations) checkCollision(dstNorm, dstHost string, overwrite bool) error {
	if _, err := os.Lstat(dstHost); err == nil && !overwrite {
		return &protocol.InvalidArgumentError{Reason: fmt.Sprintf("%s already exists; set overwrite to replace it", dstNorm)}
	}
	return nil
}
