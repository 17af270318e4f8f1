package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsgate/fsgate/internal/logging"
	"github.com/fsgate/fsgate/internal/pathsec"
	"github.com/fsgate/fsgate/internal/protocol"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	root := t.TempDir()
	policy, err := pathsec.NewPolicy([]string{root}, false)
	require.NoError(t, err)
	reg := NewRegistry(policy, logging.NewNop())
	t.Cleanup(reg.Close)
	return reg, root
}

func TestWatchAndPoll(t *testing.T) {
	reg, root := newTestRegistry(t)

	watched, err := reg.Watch(map[string]interface{}{
		"path":   filepath.ToSlash(root),
		"events": []interface{}{"CREATE"},
	})
	require.NoError(t, err)
	id := watched["watchId"].(string)
	require.NotEmpty(t, id)

	// Nothing happened yet: poll returns an empty set without blocking.
	empty, err := reg.Poll(map[string]interface{}{"watchId": id})
	require.NoError(t, err)
	assert.Equal(t, 0, empty["count"])

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		result, pollErr := reg.Poll(map[string]interface{}{"watchId": id})
		if pollErr != nil {
			return false
		}
		return result["count"].(int) > 0
	}, 2*time.Second, 25*time.Millisecond, "buffered CREATE event should surface")
}

func TestWatchFiltersEventKinds(t *testing.T) {
	reg, root := newTestRegistry(t)

	watched, err := reg.Watch(map[string]interface{}{
		"path":   filepath.ToSlash(root),
		"events": []interface{}{"DELETE"},
	})
	require.NoError(t, err)
	id := watched["watchId"].(string)

	// CREATE events are not of interest for this registration.
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)

	result, err := reg.Poll(map[string]interface{}{"watchId": id})
	require.NoError(t, err)
	assert.Equal(t, 0, result["count"])
}

func TestPollUnknownRegistration(t *testing.T) {
	reg, _ := newTestRegistry(t)

	var nfErr *protocol.NotFoundError
	_, err := reg.Poll(map[string]interface{}{"watchId": "nope"})
	require.Error(t, err)
	assert.ErrorAs(t, err, &nfErr)
}

func TestWatchValidation(t *testing.T) {
	reg, root := newTestRegistry(t)
	var argErr *protocol.InvalidArgumentError
	var secErr *protocol.SecurityError
	var nfErr *protocol.NotFoundError

	_, err := reg.Watch(map[string]interface{}{
		"path":   filepath.ToSlash(root),
		"events": []interface{}{"EXPLODE"},
	})
	require.Error(t, err)
	assert.ErrorAs(t, err, &argErr)

	_, err = reg.Watch(map[string]interface{}{"path": "/etc"})
	require.Error(t, err)
	assert.ErrorAs(t, err, &secErr)

	_, err = reg.Watch(map[string]interface{}{
		"path": filepath.ToSlash(filepath.Join(root, "missing")),
	})
	require.Error(t, err)
	assert.ErrorAs(t, err, &nfErr)

	file := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = reg.Watch(map[string]interface{}{"path": filepath.ToSlash(file)})
	require.Error(t, err)
	assert.ErrorAs(t, err, &argErr)
}
