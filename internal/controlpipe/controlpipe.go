// Package controlpipe writes console commands into daemon stdin FIFOs.
package controlpipe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/db4e/db4e-supervisor/internal/types"
	"golang.org/x/sys/unix"
)

// Console commands understood by the pool daemon.
const (
	CmdStatus  = "status"
	CmdWorkers = "workers"
	CmdExit    = "exit"
)

const fifoMode = 0o660

// ErrNoReader means the FIFO exists but no daemon has it open, so a write
// would block.
var ErrNoReader = errors.New("control pipe has no reader")

// Write sends cmd followed by a newline. The pipe is opened non-blocking so
// a missing reader fails fast with ErrNoReader, and the write itself is
// bounded by timeout.
func Write(path, cmd string, timeout time.Duration) error {
	if err := checkFifo(path); err != nil {
		return err
	}

	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.ENXIO) {
			return types.NewError(types.TransientIO, fmt.Errorf("%s: %w", path, ErrNoReader))
		}
		return types.NewError(types.TransientIO, fmt.Errorf("failed to open %s: %w", path, err))
	}

	// os.NewFile registers the non-blocking descriptor with the runtime
	// poller, which makes the write deadline effective
	f := os.NewFile(uintptr(fd), path)
	defer f.Close()

	if err := f.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return types.NewError(types.TransientIO, fmt.Errorf("failed to set deadline on %s: %w", path, err))
	}

	if _, err := f.WriteString(cmd + "\n"); err != nil {
		return types.NewError(types.TransientIO, fmt.Errorf("failed to write %q to %s: %w", cmd, path, err))
	}

	return nil
}

// Reset replaces whatever is at path with a fresh FIFO. A daemon started
// afterwards opens the new pipe, never a stale one left by a crash.
func Reset(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale pipe %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create pipe dir for %s: %w", path, err)
	}

	if err := unix.Mkfifo(path, fifoMode); err != nil {
		return fmt.Errorf("failed to create pipe %s: %w", path, err)
	}

	return nil
}

func checkFifo(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.NewErrorWithMsg(types.NotFound, "control pipe %s not found", path)
		}
		return types.NewError(types.TransientIO, err)
	}

	if info.Mode()&fs.ModeNamedPipe == 0 {
		return types.NewErrorWithMsg(types.NotFound, "%s is not a named pipe", path)
	}

	return nil
}
