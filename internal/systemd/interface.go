package systemd

import "context"

// Manager starts, stops and queries service units.
//
//go:generate mockery --name=Manager --output=../../tests/mocks --outpkg=mocks --filename=mock_service_manager.go
type Manager interface {
	IsActive(ctx context.Context, unit string) (bool, error)
	// Start and Stop return the command's standard output.
	Start(ctx context.Context, unit string) (string, error)
	Stop(ctx context.Context, unit string) (string, error)
}
