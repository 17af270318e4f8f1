package sanitize

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/bytedance/sonic"

	"github.com/fsgate/fsgate/internal/protocol"
)

// fallbackFrame is the hardcoded last-resort response: emitted when
// even the sanitized frame cannot be encoded as valid JSON.
const fallbackFrame = `{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"response serialization failed"}}`

// Sanitize recursively rewrites every string leaf, deleting ASCII
// control bytes other than '\n' and '\t' and any remaining
// non-printable, non-whitespace characters. Mapping keys are sanitized
// too; structure and non-string scalars pass through untouched. It
// never fails.
func Sanitize(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return CleanString(val)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[CleanString(k)] = Sanitize(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Sanitize(item)
		}
		return out
	default:
		return v
	}
}

// CleanString strips control bytes (except '\n' and '\t') and other
// non-printable characters from s.
func CleanString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			// dropped
		case unicode.IsPrint(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EncodeValue sanitizes v and encodes it as JSON text. On encoder
// failure it returns a fixed placeholder string instead of
// propagating the error.
func EncodeValue(v interface{}) string {
	data, err := sonic.Marshal(Sanitize(v))
	if err != nil {
		return `"[unserializable]"`
	}
	return string(scrubEncoded(data))
}

// EncodeFrame sanitizes and encodes a response frame. The returned
// bytes are always one valid JSON object with no trailing newline.
func EncodeFrame(resp *protocol.Response) []byte {
	clean := &protocol.Response{
		JSONRPC: resp.JSONRPC,
		ID:      Sanitize(resp.ID),
		Result:  Sanitize(resp.Result),
		Error:   sanitizeError(resp.Error),
	}

	data, err := sonic.Marshal(clean)
	if err != nil {
		return []byte(fallbackFrame)
	}
	data = scrubEncoded(data)
	if !json.Valid(data) {
		return []byte(fallbackFrame)
	}
	return data
}

// Fallback returns the hardcoded minimal error frame.
func Fallback() []byte {
	return []byte(fallbackFrame)
}

func sanitizeError(e *protocol.ErrorObject) *protocol.ErrorObject {
	if e == nil {
		return nil
	}
	return &protocol.ErrorObject{
		Code:    e.Code,
		Message: CleanString(e.Message),
		Data:    Sanitize(e.Data),
	}
}

// scrubEncoded removes raw control bytes from already-encoded JSON
// text. Structural sanitization makes this a no-op on the happy path;
// it guards against encoder-introduced bytes.
func scrubEncoded(data []byte) []byte {
	clean := data[:0]
	dirty := false
	for _, c := range data {
		if c < 0x20 {
			dirty = true
			continue
		}
		clean = append(clean, c)
	}
	if !dirty {
		return data
	}
	return clean
}
