package controlpipe

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "p2poolmain.stdin")

	// a regular file left behind is replaced by a pipe
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, Reset(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeNamedPipe)

	// resetting twice is fine
	require.NoError(t, Reset(path))
}

func TestWrite(t *testing.T) {
	t.Run("missing pipe", func(t *testing.T) {
		err := Write(filepath.Join(t.TempDir(), "absent.stdin"), CmdStatus, time.Second)
		require.Error(t, err)
		assert.True(t, types.IsType(err, types.NotFound))
	})
	t.Run("not a pipe", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "regular.stdin")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		err := Write(path, CmdStatus, time.Second)
		require.Error(t, err)
		assert.True(t, types.IsType(err, types.NotFound))
	})
	t.Run("no reader", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "p2pool.stdin")
		require.NoError(t, Reset(path))

		err := Write(path, CmdStatus, time.Second)
		require.ErrorIs(t, err, ErrNoReader)
		assert.True(t, types.IsType(err, types.TransientIO))
	})
	t.Run("reader receives commands", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "p2pool.stdin")
		require.NoError(t, Reset(path))

		// open the read end without blocking, as the daemon would hold it
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
		require.NoError(t, err)
		reader := os.NewFile(uintptr(fd), path)
		defer reader.Close()

		require.NoError(t, Write(path, CmdStatus, time.Second))
		require.NoError(t, Write(path, CmdWorkers, time.Second))

		require.NoError(t, reader.SetReadDeadline(time.Now().Add(time.Second)))
		scanner := bufio.NewScanner(reader)
		var got []string
		for len(got) < 2 && scanner.Scan() {
			got = append(got, scanner.Text())
		}
		assert.Equal(t, []string{CmdStatus, CmdWorkers}, got)
	})
}
