// Package transport runs the newline-delimited request/response loop
// over a byte stream, one JSON object per line.
//
// The loop is strictly sequential: one request is fully handled before
// the next line is read. It is also the last-resort safety net: any
// failure that escapes the dispatcher still yields a valid minimal
// JSON error line, and only end-of-input ends the session.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/dispatch"
	"github.com/fsgate/fsgate/internal/logging"
	"github.com/fsgate/fsgate/internal/protocol"
	"github.com/fsgate/fsgate/internal/sanitize"
)

// maxLineBytes bounds a single request line.
const maxLineBytes = 16 * 1024 * 1024

// Loop reads requests from in and writes response lines to out.
type Loop struct {
	in         io.Reader
	out        *bufio.Writer
	dispatcher *dispatch.Dispatcher
	log        *logging.Logger
}

// New creates a transport loop.
func New(in io.Reader, out io.Writer, dispatcher *dispatch.Dispatcher, log *logging.Logger) *Loop {
	return &Loop{
		in:         in,
		out:        bufio.NewWriter(out),
		dispatcher: dispatcher,
		log:        log,
	}
}

// Run processes requests until end-of-input. A per-request failure
// never terminates the loop.
func (l *Loop) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(l.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		l.handleLine(ctx, line)
	}
	return scanner.Err()
}

// handleLine parses, dispatches and answers a single line. Its
// recover is the final guarantee that one request produces at most
// one valid JSON line.
func (l *Loop) handleLine(ctx context.Context, line []byte) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("transport panic", zap.Any("panic", r))
			l.writeRaw(sanitize.Fallback())
		}
	}()

	var req protocol.Request
	if err := json.Unmarshal(line, &req); err != nil {
		// A parse failure is answered under a synthetic id rather
		// than silently dropped.
		l.log.Warn("unparseable request line", zap.Error(err))
		l.write(protocol.NewError(uuid.NewString(), protocol.CodeParseError, "parse error: invalid JSON"))
		return
	}

	resp := l.dispatcher.Handle(ctx, &req)
	if resp == nil {
		return
	}
	l.write(resp)
}

func (l *Loop) write(resp *protocol.Response) {
	l.writeRaw(sanitize.EncodeFrame(resp))
}

func (l *Loop) writeRaw(frame []byte) {
	if _, err := l.out.Write(frame); err != nil {
		l.log.Error("failed to write response", zap.Error(err))
		return
	}
	if err := l.out.WriteByte('\n'); err != nil {
		l.log.Error("failed to write response", zap.Error(err))
		return
	}
	if err := l.out.Flush(); err != nil {
		l.log.Error("failed to flush response", zap.Error(err))
	}
}
