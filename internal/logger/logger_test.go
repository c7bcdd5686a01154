package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signin.log")

	log, closer, err := New(false, path)
	require.NoError(t, err)
	log.Debug("hidden")
	log.Info("sign-in run finished", "accounts", 2)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sign-in run finished")
	assert.Contains(t, string(data), "accounts=2")
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_AppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signin.log")

	for _, msg := range []string{"first", "second"} {
		log, closer, err := New(true, path)
		require.NoError(t, err)
		log.Debug(msg)
		require.NoError(t, closer.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.Contains(t, string(data), "second")
}

func TestNew_WithoutFile(t *testing.T) {
	log, closer, err := New(false, "")
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.NoError(t, closer.Close())
}

func TestNew_BadPath(t *testing.T) {
	_, _, err := New(false, filepath.Join(t.TempDir(), "missing", "dir", "signin.log"))
	assert.Error(t, err)
}
