package fsops

import (
	"fmt"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/fsgate/fsgate/internal/protocol"
)

// decodeText decodes file bytes using the requested character
// encoding. An empty name defaults to UTF-8; "auto" detects the
// charset from the content.
func decodeText(data []byte, name string) (string, string, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return string(data), "utf-8", nil
	case "auto":
		detected, err := chardet.NewTextDetector().DetectBest(data)
		if err != nil || detected == nil {
			// Undetectable content (e.g. empty file) falls back to UTF-8.
			return string(data), "utf-8", nil
		}
		name = detected.Charset
		switch strings.ToLower(name) {
		case "utf-8", "utf8", "us-ascii", "ascii":
			return string(data), "utf-8", nil
		}
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return "", "", &protocol.InvalidArgumentError{
			Reason: fmt.Sprintf("unsupported encoding: %s", name),
		}
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", &protocol.InvalidArgumentError{
			Reason: fmt.Sprintf("failed to decode content as %s", name),
		}
	}
	return string(decoded), name, nil
}
