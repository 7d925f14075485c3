package pid_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"codeberg.org/mutker/servoctl/internal/errors"
	"codeberg.org/mutker/servoctl/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, pid.Write(dir))

	bytes, err := os.ReadFile(pid.Path(dir))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(bytes))

	require.NoError(t, pid.Remove(dir))
	_, err = os.Stat(pid.Path(dir))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteDetectsRunningProcess(t *testing.T) {
	dir := t.TempDir()

	// The test process itself is alive
	require.NoError(t, os.WriteFile(pid.Path(dir), []byte(strconv.Itoa(os.Getpid())), 0o600))

	err := pid.Write(dir)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}

func TestWriteReplacesStaleFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(pid.Path(dir), []byte("not a pid\n"), 0o600))
	require.NoError(t, pid.Write(dir))

	bytes, err := os.ReadFile(pid.Path(dir))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(bytes))
}

func TestRemoveMissing(t *testing.T) {
	assert.NoError(t, pid.Remove(t.TempDir()))
}

func TestPathDefaultsToTempDir(t *testing.T) {
	assert.Equal(t, filepath.Clean(os.TempDir()), filepath.Dir(pid.Path("")))
}
