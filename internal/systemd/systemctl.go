package systemd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/observability/metrics"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/rs/zerolog/log"
)

const defaultBinary = "systemctl"

// Systemctl drives units through the systemctl binary, optionally via sudo.
// Every call is bounded by the configured timeout.
type Systemctl struct {
	binary  string
	useSudo bool
	timeout time.Duration
}

func NewSystemctl(cfg *config.SupervisorConfig) *Systemctl {
	return &Systemctl{
		binary:  defaultBinary,
		useSudo: cfg.UseSudo,
		timeout: cfg.ServiceManagerTimeout,
	}
}

func (s *Systemctl) IsActive(ctx context.Context, unit string) (bool, error) {
	_, err := s.run(ctx, "is-active", "--quiet", unit)
	if err == nil {
		return true, nil
	}

	// is-active exits non-zero for inactive, failed and unknown units
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}

	return false, types.NewError(types.ExternalCommandFailure, err)
}

func (s *Systemctl) Start(ctx context.Context, unit string) (string, error) {
	return s.change(ctx, "start", unit)
}

func (s *Systemctl) Stop(ctx context.Context, unit string) (string, error) {
	return s.change(ctx, "stop", unit)
}

func (s *Systemctl) change(ctx context.Context, action, unit string) (string, error) {
	out, err := s.run(ctx, action, unit)
	if err != nil {
		return out, types.NewError(types.ExternalCommandFailure, fmt.Errorf("systemctl %s %s: %w", action, unit, err))
	}

	log.Ctx(ctx).Info().Str("unit", unit).Str("action", action).Msg("service manager command succeeded")
	return out, nil
}

func (s *Systemctl) run(ctx context.Context, action string, rest ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append([]string{action}, rest...)
	name := s.binary
	if s.useSudo {
		args = append([]string{s.binary}, args...)
		name = "sudo"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// children that inherited the output pipes must not outlive the timeout
	cmd.WaitDelay = time.Second

	startTime := time.Now()
	err := cmd.Run()
	metrics.RecordServiceManagerLatency(time.Since(startTime), action, err != nil)

	out := strings.TrimSpace(stdout.String())
	if err != nil {
		if ctx.Err() != nil {
			return out, fmt.Errorf("timed out after %s: %w", s.timeout, ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w: %s", err, msg)
		}
		return out, err
	}

	return out, nil
}
