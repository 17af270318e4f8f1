// Package watch implements the best-effort directory-watch tools.
//
// watchDirectory registers interest in a directory for a subset of
// CREATE/MODIFY/DELETE events; pollDirectoryWatch drains whatever has
// been buffered since the last poll and never blocks. Delivery is not
// guaranteed: the buffer is capped and drops the oldest events first.
package watch

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/logging"
	"github.com/fsgate/fsgate/internal/pathsec"
	"github.com/fsgate/fsgate/internal/protocol"
)

// maxBuffered caps the per-registration event buffer.
const maxBuffered = 256

var validKinds = map[string]struct{}{"CREATE": {}, "MODIFY": {}, "DELETE": {}}

// Event is one buffered filesystem event.
type Event struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type registration struct {
	id      string
	dir     string
	kinds   map[string]bool
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu      sync.Mutex
	events  []Event
	dropped int
}

// Registry tracks directory-watch registrations for the process
// lifetime.
type Registry struct {
	policy *pathsec.Policy
	log    *logging.Logger

	mu      sync.Mutex
	watches map[string]*registration
}

// NewRegistry creates an empty registry.
func NewRegistry(policy *pathsec.Policy, log *logging.Logger) *Registry {
	return &Registry{
		policy:  policy,
		log:     log,
		watches: make(map[string]*registration),
	}
}

// Watch registers interest in a directory and returns the watch id.
// Events must be a subset of {CREATE, MODIFY, DELETE}; an empty list
// means all three.
func (r *Registry) Watch(params map[string]interface{}) (map[string]interface{}, error) {
	raw, ok := params["path"].(string)
	if !ok || raw == "" {
		return nil, &protocol.InvalidArgumentError{Reason: "path parameter must be a non-empty string"}
	}

	kinds, err := parseKinds(params["events"])
	if err != nil {
		return nil, err
	}

	normalized, err := pathsec.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if err := r.policy.Check("watch", normalized); err != nil {
		return nil, err
	}
	host := r.policy.HostPath(normalized)

	fi, err := os.Stat(host)
	if os.IsNotExist(err) {
		return nil, &protocol.NotFoundError{Path: normalized}
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", normalized, err)
	}
	if !fi.IsDir() {
		return nil, &protocol.InvalidArgumentError{Reason: fmt.Sprintf("%s is not a directory", normalized)}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(host); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", normalized, err)
	}

	reg := &registration{
		id:      uuid.NewString(),
		dir:     normalized,
		kinds:   kinds,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go reg.consume(r.log)

	r.mu.Lock()
	r.watches[reg.id] = reg
	r.mu.Unlock()

	kindList := make([]interface{}, 0, len(kinds))
	for k := range validKinds {
		if kinds[k] {
			kindList = append(kindList, k)
		}
	}
	return map[string]interface{}{
		"watchId": reg.id,
		"path":    normalized,
		"events":  kindList,
	}, nil
}

// Poll drains the buffered events for a registration. It never
// blocks; an empty set is a valid answer.
func (r *Registry) Poll(params map[string]interface{}) (map[string]interface{}, error) {
	id, ok := params["watchId"].(string)
	if !ok || id == "" {
		return nil, &protocol.InvalidArgumentError{Reason: "watchId parameter must be a non-empty string"}
	}

	r.mu.Lock()
	reg, ok := r.watches[id]
	r.mu.Unlock()
	if !ok {
		return nil, &protocol.NotFoundError{Path: id}
	}

	reg.mu.Lock()
	events := reg.events
	dropped := reg.dropped
	reg.events = nil
	reg.dropped = 0
	reg.mu.Unlock()

	out := make([]interface{}, len(events))
	for i, ev := range events {
		out[i] = map[string]interface{}{"type": ev.Type, "path": ev.Path}
	}
	return map[string]interface{}{
		"watchId": id,
		"events":  out,
		"count":   len(out),
		"dropped": dropped,
	}, nil
}

// Close stops every watcher. Called once at shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, reg := range r.watches {
		close(reg.done)
		reg.watcher.Close()
		delete(r.watches, id)
	}
}

func (reg *registration) consume(log *logging.Logger) {
	for {
		select {
		case <-reg.done:
			return
		case ev, ok := <-reg.watcher.Events:
			if !ok {
				return
			}
			kind := eventKind(ev.Op)
			if kind == "" || !reg.kinds[kind] {
				continue
			}
			reg.buffer(Event{Type: kind, Path: ev.Name})
		case err, ok := <-reg.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error", zap.String("dir", reg.dir), zap.Error(err))
		}
	}
}

func (reg *registration) buffer(ev Event) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if len(reg.events) >= maxBuffered {
		reg.events = reg.events[1:]
		reg.dropped++
	}
	reg.events = append(reg.events, ev)
}

func eventKind(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "CREATE"
	case op.Has(fsnotify.Write):
		return "MODIFY"
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return "DELETE"
	default:
		return ""
	}
}

func parseKinds(v interface{}) (map[string]bool, error) {
	kinds := make(map[string]bool)
	if v == nil {
		for k := range validKinds {
			kinds[k] = true
		}
		return kinds, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, &protocol.InvalidArgumentError{Reason: "events parameter must be an array of strings"}
	}
	if len(list) == 0 {
		for k := range validKinds {
			kinds[k] = true
		}
		return kinds, nil
	}
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, &protocol.InvalidArgumentError{Reason: "events parameter must be an array of strings"}
		}
		if _, ok := validKinds[s]; !ok {
			return nil, &protocol.InvalidArgumentError{Reason: fmt.Sprintf("unknown event kind: %s", s)}
		}
		kinds[s] = true
	}
	return kinds, nil
}
