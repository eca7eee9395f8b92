package preview

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeSync_CopyAll(t *testing.T) {
	src, dst := t.TempDir(), filepath.Join(t.TempDir(), "_static")
	writeTree(t, src, map[string]string{"app.umd.js": "app", "icons.svg": "<svg/>"})
	rec := &countingRecorder{}
	s := &ThemeSync{Src: src, Dst: dst, Names: []string{"app.umd.js", "icons.svg"}, Recorder: rec}

	require.NoError(t, s.CopyAll())
	data, err := os.ReadFile(filepath.Join(dst, "icons.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))
	assert.Equal(t, 2, rec.syncs)
}

func TestThemeSync_CopyAllMissingOutput(t *testing.T) {
	s := &ThemeSync{Src: t.TempDir(), Dst: t.TempDir(), Names: []string{"app.umd.js"}}
	require.Error(t, s.CopyAll())
}

func TestThemeSync_CopiesRewrittenOutputs(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{"style.min.css": "a{}"})

	var synced atomic.Int32
	s := &ThemeSync{
		Src:    src,
		Dst:    dst,
		Names:  ThemeOutputs,
		OnSync: func() { synced.Add(1) },
	}
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	target := filepath.Join(dst, "style.min.css")
	require.Eventually(t, func() bool {
		// Rewrite until the watcher has been registered and picked it up.
		_ = os.WriteFile(filepath.Join(src, "style.min.css"), []byte("b{}"), 0o644)
		_ = os.WriteFile(filepath.Join(src, "unrelated.txt"), []byte("x"), 0o644)
		data, err := os.ReadFile(target)
		return err == nil && string(data) == "b{}"
	}, 5*time.Second, 100*time.Millisecond)
	assert.Eventually(t, func() bool { return synced.Load() > 0 }, time.Second, 20*time.Millisecond)
	_, err := os.Stat(filepath.Join(dst, "unrelated.txt"))
	assert.True(t, os.IsNotExist(err))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("theme sync did not stop")
	}
}
