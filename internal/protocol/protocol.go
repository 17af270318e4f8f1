package protocol

// Version is the JSON-RPC protocol version constant.
const Version = "2.0"

// SupportedVersions lists the protocol revisions this server speaks,
// newest first. Initialize negotiation echoes a client version found
// here and otherwise answers with the newest entry.
var SupportedVersions = []string{"2025-06-18", "2025-03-26", "2024-11-05"}

// Reserved error codes.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeSecurity       = -32001
	CodeNotFound       = -32002
)

// Request is a single inbound frame. ID may be a string, a number, or
// nil; a nil ID marks a notification.
type Request struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      interface{}            `json:"id,omitempty"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// IsNotification reports whether the request must be processed without
// producing a response frame.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response is a single outbound frame carrying exactly one of Result
// or Error.
type Response struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      interface{}  `json:"id"`
	Result  interface{}  `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// ErrorObject is the error member of a response frame.
type ErrorObject struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewResponse builds a success frame.
func NewResponse(id, result interface{}) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewError builds an error frame.
func NewError(id interface{}, code int, message string) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error:   &ErrorObject{Code: code, Message: message},
	}
}

// IsSupportedVersion reports whether v is a protocol revision this
// server speaks.
func IsSupportedVersion(v string) bool {
	for _, s := range SupportedVersions {
		if s == v {
			return true
		}
	}
	return false
}

// LatestVersion returns the newest supported protocol revision.
func LatestVersion() string {
	return SupportedVersions[0]
}
