// Package dispatch routes parsed requests to handlers: protocol
// negotiation on initialize, the static catalog on tools/list, and
// the filesystem/script/watch tools on tools/call.
//
// The dispatcher is stateless across requests and is the single place
// where typed errors become wire codes. It guarantees exactly one
// response (or none, for a notification) per request, no matter how
// deep a handler failed.
package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/fsops"
	"github.com/fsgate/fsgate/internal/logging"
	"github.com/fsgate/fsgate/internal/protocol"
	"github.com/fsgate/fsgate/internal/sanitize"
	"github.com/fsgate/fsgate/internal/watch"
)

const (
	serverName    = "fsgate"
	serverVersion = "1.2.0"
)

// ScriptExecutor runs a sandboxed script. Consumed opaquely.
type ScriptExecutor interface {
	Execute(ctx context.Context, script, workingDir string) (map[string]interface{}, error)
}

// Dispatcher maps method and tool names to handlers.
type Dispatcher struct {
	ops     *fsops.Operations
	watches *watch.Registry
	script  ScriptExecutor
	log     *logging.Logger
}

// New creates a dispatcher.
func New(ops *fsops.Operations, watches *watch.Registry, script ScriptExecutor, log *logging.Logger) *Dispatcher {
	return &Dispatcher{ops: ops, watches: watches, script: script, log: log}
}

// Handle processes one request and returns its response frame, or nil
// for a notification. Panics in handlers are recovered into internal
// error frames so a single request can never kill the session.
func (d *Dispatcher) Handle(ctx context.Context, req *protocol.Request) (resp *protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("handler panic", zap.String("method", req.Method), zap.Any("panic", r))
			if req.IsNotification() {
				resp = nil
				return
			}
			resp = protocol.NewError(req.ID, protocol.CodeInternal, "internal error")
		}
	}()

	result, err := d.route(ctx, req)
	if req.IsNotification() {
		if err != nil {
			d.log.Warn("notification failed", zap.String("method", req.Method), zap.Error(err))
		}
		return nil
	}
	if err != nil {
		return protocol.NewError(req.ID, protocol.CodeFor(err), err.Error())
	}
	return protocol.NewResponse(req.ID, result)
}

func (d *Dispatcher) route(ctx context.Context, req *protocol.Request) (interface{}, error) {
	switch req.Method {
	case "initialize":
		return d.initialize(req.Params), nil
	case "notifications/initialized", "notifications/cancelled":
		return nil, nil
	case "tools/list":
		return map[string]interface{}{"tools": Tools()}, nil
	case "tools/call":
		return d.callTool(ctx, req.Params)
	case "ping":
		return map[string]interface{}{}, nil
	default:
		return nil, &protocol.MethodNotFoundError{Kind: "method", Name: req.Method}
	}
}

// initialize negotiates the protocol version: a supported client
// version is echoed back, anything else gets the newest we speak.
// This method never fails.
func (d *Dispatcher) initialize(params map[string]interface{}) map[string]interface{} {
	version := protocol.LatestVersion()
	if requested, ok := params["protocolVersion"].(string); ok && protocol.IsSupportedVersion(requested) {
		version = requested
	}
	return map[string]interface{}{
		"protocolVersion": version,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    serverName,
			"version": serverVersion,
		},
	}
}

func (d *Dispatcher) callTool(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	name, ok := params["name"].(string)
	if !ok || name == "" {
		return nil, &protocol.InvalidArgumentError{Reason: "name parameter must be a non-empty string"}
	}
	args, ok := params["arguments"].(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	result, err := d.invoke(ctx, name, args)
	if err != nil {
		return nil, err
	}

	// Tool results travel as sanitized JSON text inside the uniform
	// content envelope.
	return map[string]interface{}{
		"content": []interface{}{
			map[string]interface{}{
				"type": "text",
				"text": sanitize.EncodeValue(result),
			},
		},
	}, nil
}

func (d *Dispatcher) invoke(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	switch name {
	case "readFile":
		return d.ops.ReadFile(args)
	case "writeFile":
		return d.ops.WriteFile(args)
	case "listDirectory":
		return d.ops.ListDirectory(args)
	case "searchFiles":
		return d.ops.SearchFiles(args)
	case "normalizePath":
		return d.ops.NormalizePath(args)
	case "copyFile":
		return d.ops.CopyFile(args)
	case "moveFile":
		return d.ops.MoveFile(args)
	case "deleteFile":
		return d.ops.DeleteFile(args)
	case "createDirectory":
		return d.ops.CreateDirectory(args)
	case "getFileInfo":
		return d.ops.GetFileInfo(args)
	case "getAllowedDirectories":
		return d.ops.AllowedDirectories(), nil
	case "isSymlinksAllowed":
		return d.ops.SymlinksAllowed(), nil
	case "watchDirectory":
		return d.watches.Watch(args)
	case "pollDirectoryWatch":
		return d.watches.Poll(args)
	case "executeScript":
		script, _ := args["script"].(string)
		workingDir, _ := args["workingDir"].(string)
		return d.script.Execute(ctx, script, workingDir)
	default:
		return nil, &protocol.MethodNotFoundError{Kind: "tool", Name: name}
	}
}
