package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Ignored(t *testing.T) {
	w := &Watcher{config: WatcherConfig{Dir: "/ws/src", Ignore: DefaultIgnore}}
	assert.False(t, w.ignored("/ws/src/index.ts"))
	assert.False(t, w.ignored("/ws/src"))
	assert.True(t, w.ignored("/ws/src/__tests__/index.spec.ts"))
	assert.True(t, w.ignored("/ws/src/.index.ts.swp"))
	assert.True(t, w.ignored("/ws/src/index.ts~"))
	assert.False(t, w.ignored("/build/ws/src/index.ts"), "components above the watched dir are not matched")
}

func TestWatcher_DebouncesPerPath(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(WatcherConfig{Dir: dir, Ignore: DefaultIgnore, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	file := filepath.Join(dir, "index.ts")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(file, []byte{byte('a' + i)}, 0o644))
	}

	select {
	case ev := <-w.Events():
		assert.Equal(t, file, ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("burst produced a second event: %v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(WatcherConfig{Dir: dir, Debounce: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	sub := filepath.Join(dir, "components")
	require.NoError(t, os.Mkdir(sub, 0o755))
	<-w.Events()

	file := filepath.Join(sub, "button.ts")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(file, []byte("export {}"), 0o644)
		select {
		case ev := <-w.Events():
			return ev.Path == file
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "created", EventCreated.String())
	assert.Equal(t, "renamed", EventRenamed.String())
	assert.Equal(t, "unknown", EventType(0).String())
}
