// Package tailer follows growing log files line by line.
//
// Rotation and truncation are not detected: if the followed file is
// replaced, Follow keeps polling the old descriptor and yields nothing.
package tailer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/db4e/db4e-supervisor/internal/types"
)

// LineFunc receives one line without its terminator. Returning an error
// stops the tailer and propagates the error.
type LineFunc func(line string) error

type Tailer struct {
	path     string
	interval time.Duration
}

func New(path string, interval time.Duration) *Tailer {
	return &Tailer{
		path:     path,
		interval: interval,
	}
}

func (t *Tailer) Path() string {
	return t.path
}

// Follow delivers lines appended to the file after the call. It returns
// only when ctx is done, the file cannot be read or fn fails.
func (t *Tailer) Follow(ctx context.Context, fn LineFunc) error {
	f, err := open(t.path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return types.NewError(types.TransientIO, fmt.Errorf("failed to seek %s: %w", t.path, err))
	}

	return t.follow(ctx, bufio.NewReader(f), fn)
}

func (t *Tailer) follow(ctx context.Context, r *bufio.Reader, fn LineFunc) error {
	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	var partial strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := r.ReadString('\n')
		if err == nil {
			partial.WriteString(chunk)
			line := trimEOL(partial.String())
			partial.Reset()
			if err := fn(line); err != nil {
				return err
			}
			continue
		}
		if !errors.Is(err, io.EOF) {
			return types.NewError(types.TransientIO, fmt.Errorf("failed to read %s: %w", t.path, err))
		}

		// keep an unterminated tail until the writer completes the line
		partial.WriteString(chunk)

		timer.Reset(t.interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Scan delivers every complete line currently in the file, from the
// beginning, then returns. A trailing unterminated line is delivered too.
func Scan(ctx context.Context, path string, fn LineFunc) error {
	f, err := open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(trimEOL(scanner.Text())); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.NewErrorWithMsg(types.NotFound, "log file %s not found", path)
		}
		return nil, types.NewError(types.TransientIO, err)
	}
	return f, nil
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}
