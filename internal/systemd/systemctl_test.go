package systemd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeSystemctl = `#!/bin/sh
case "$1" in
is-active)
	[ "$3" = "p2pool@main" ] && exit 0
	exit 3
	;;
start)
	[ "$2" = "xmrig@slow" ] && exec sleep 5
	echo "started $2"
	;;
stop)
	echo "Failed to stop $2: Unit $2 not loaded." >&2
	exit 5
	;;
esac
`

func newFakeSystemctl(t *testing.T) *Systemctl {
	t.Helper()

	path := filepath.Join(t.TempDir(), "systemctl")
	require.NoError(t, os.WriteFile(path, []byte(fakeSystemctl), 0o755))

	return &Systemctl{
		binary:  path,
		timeout: 200 * time.Millisecond,
	}
}

func TestSystemctl(t *testing.T) {
	ctx := t.Context()
	s := newFakeSystemctl(t)

	t.Run("is active", func(t *testing.T) {
		active, err := s.IsActive(ctx, "p2pool@main")
		require.NoError(t, err)
		assert.True(t, active)

		active, err = s.IsActive(ctx, "p2pool@other")
		require.NoError(t, err)
		assert.False(t, active)
	})
	t.Run("start returns stdout", func(t *testing.T) {
		out, err := s.Start(ctx, "xmrig@rig1")
		require.NoError(t, err)
		assert.Equal(t, "started xmrig@rig1", out)
	})
	t.Run("stop failure carries stderr", func(t *testing.T) {
		_, err := s.Stop(ctx, "xmrig@ghost")
		require.Error(t, err)
		assert.True(t, types.IsType(err, types.ExternalCommandFailure))
		assert.Contains(t, err.Error(), "Unit xmrig@ghost not loaded")
	})
	t.Run("timeout", func(t *testing.T) {
		start := time.Now()
		_, err := s.Start(ctx, "xmrig@slow")
		require.Error(t, err)
		assert.True(t, types.IsType(err, types.ExternalCommandFailure))
		assert.Contains(t, err.Error(), "timed out")
		assert.Less(t, time.Since(start), 3*time.Second)
	})
	t.Run("missing binary", func(t *testing.T) {
		broken := &Systemctl{binary: filepath.Join(t.TempDir(), "absent"), timeout: time.Second}

		_, err := broken.IsActive(ctx, "p2pool@main")
		require.Error(t, err)
		assert.True(t, types.IsType(err, types.ExternalCommandFailure))
	})
}
