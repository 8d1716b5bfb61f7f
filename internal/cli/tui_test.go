package cli

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLogFile_KeepsDiagnostics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tui.log")

	f, err := openLogFile(path)
	require.NoError(t, err)

	log.SetOutput(f)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	log.WithField("kind", "network").Error("image analysis failed")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "image analysis failed")
	assert.Contains(t, string(data), "kind=network")
}

func TestOpenLogFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tui.log")
	require.NoError(t, os.WriteFile(path, []byte("earlier\n"), 0o600))

	f, err := openLogFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("later\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "earlier\nlater\n", string(data))
}

func TestDefaultTUILogPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("cache dir is read from XDG_CACHE_HOME on linux only")
	}
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)

	path, err := defaultTUILogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "agroscan", "tui.log"), path)
}
