// Package component describes how each deployable component is managed on
// the host: its service unit, control pipe, log location and cleanup.
package component

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/types"
)

type StopPolicy int

const (
	// StopViaServiceManager stops the unit through systemctl.
	StopViaServiceManager StopPolicy = iota
	// StopViaControlPipe writes "exit" into the daemon's control pipe so it
	// shuts down from its own console.
	StopViaControlPipe
)

type Kind struct {
	component types.Component
	// installName is the vendor directory prefix and control pipe stem
	installName string
	// unitTemplate receives the instance name, singleton units have no verb
	unitTemplate string
	supervised   bool
	controlPipe  bool
	logPipeline  bool
	stopPolicy   StopPolicy
	cleanup      func(k *Kind, paths config.PathsConfig, d *model.DeploymentDocument) error
}

var kinds = map[types.Component]*Kind{
	types.ComponentNode: {
		component:    types.ComponentNode,
		installName:  "monerod",
		unitTemplate: "monerod@%s",
		controlPipe:  true,
		stopPolicy:   StopViaServiceManager,
	},
	types.ComponentPool: {
		component:    types.ComponentPool,
		installName:  "p2pool",
		unitTemplate: "p2pool@%s",
		supervised:   true,
		controlPipe:  true,
		logPipeline:  true,
		stopPolicy:   StopViaControlPipe,
		cleanup:      cleanupPool,
	},
	types.ComponentMiner: {
		component:    types.ComponentMiner,
		installName:  "xmrig",
		unitTemplate: "xmrig@%s",
		supervised:   true,
		stopPolicy:   StopViaServiceManager,
		cleanup:      cleanupMiner,
	},
	types.ComponentCore: {
		component:    types.ComponentCore,
		installName:  "db4e",
		unitTemplate: "db4e",
		stopPolicy:   StopViaServiceManager,
	},
	types.ComponentRepo: {
		component:   types.ComponentRepo,
		installName: "repo",
	},
}

func For(c types.Component) (*Kind, error) {
	k, ok := kinds[c]
	if !ok {
		return nil, fmt.Errorf("unknown component: %s", c)
	}
	return k, nil
}

// Supervised returns the kinds the reconciliation loop converges.
func Supervised() []*Kind {
	var out []*Kind
	for _, c := range types.Components() {
		if k := kinds[c]; k.supervised {
			out = append(out, k)
		}
	}
	return out
}

func (k *Kind) Component() types.Component {
	return k.component
}

func (k *Kind) Supervised() bool {
	return k.supervised
}

func (k *Kind) HasControlPipe() bool {
	return k.controlPipe
}

func (k *Kind) HasLogPipeline() bool {
	return k.logPipeline
}

func (k *Kind) StopPolicy() StopPolicy {
	return k.stopPolicy
}

// UnitName maps an instance to its systemd unit. Components without a unit
// report an error.
func (k *Kind) UnitName(instance string) (string, error) {
	if k.unitTemplate == "" {
		return "", fmt.Errorf("component %s has no service unit", k.component)
	}
	if k.unitTemplate == k.installName {
		return k.unitTemplate, nil
	}
	if instance == "" {
		return "", fmt.Errorf("component %s requires an instance name", k.component)
	}
	return fmt.Sprintf(k.unitTemplate, instance), nil
}

// InstallDir is <vendor-dir>/<name>-<version>, or <vendor-dir>/<name> for
// unversioned records.
func (k *Kind) InstallDir(paths config.PathsConfig, d *model.DeploymentDocument) string {
	name := k.installName
	if d.Version != "" {
		name += "-" + d.Version
	}
	return filepath.Join(paths.VendorDir, name)
}

// ControlPipePath returns the record's stdin override or
// <install-dir>/<run-dir>/<name><instance>.stdin.
func (k *Kind) ControlPipePath(paths config.PathsConfig, d *model.DeploymentDocument) (string, error) {
	if !k.controlPipe {
		return "", fmt.Errorf("component %s has no control pipe", k.component)
	}
	if d.Stdin != "" {
		return d.Stdin, nil
	}
	return filepath.Join(k.InstallDir(paths, d), paths.RunDir, k.installName+d.Instance+".stdin"), nil
}

// LogPath returns the record's log_file override or
// <install-dir>/logs-<instance>/p2pool.log.
func (k *Kind) LogPath(paths config.PathsConfig, d *model.DeploymentDocument) (string, error) {
	if !k.logPipeline {
		return "", fmt.Errorf("component %s has no log pipeline", k.component)
	}
	if d.LogFile != "" {
		return d.LogFile, nil
	}
	return filepath.Join(k.logDir(paths, d), k.installName+".log"), nil
}

// APIDir is where the pool daemon writes its JSON status files.
func (k *Kind) APIDir(paths config.PathsConfig, d *model.DeploymentDocument) string {
	return filepath.Join(k.InstallDir(paths, d), "api-"+d.Instance)
}

func (k *Kind) logDir(paths config.PathsConfig, d *model.DeploymentDocument) string {
	return filepath.Join(k.InstallDir(paths, d), "logs-"+d.Instance)
}

// Cleanup removes the per-instance files of a deleted deployment. Files
// that are already gone count as removed.
func (k *Kind) Cleanup(paths config.PathsConfig, d *model.DeploymentDocument) error {
	if k.cleanup == nil {
		return nil
	}
	return k.cleanup(k, paths, d)
}

func cleanupPool(k *Kind, paths config.PathsConfig, d *model.DeploymentDocument) error {
	for _, dir := range []string{k.logDir(paths, d), k.APIDir(paths, d)} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	return nil
}

func cleanupMiner(_ *Kind, _ config.PathsConfig, d *model.DeploymentDocument) error {
	if d.Config == "" {
		return nil
	}
	if err := os.Remove(d.Config); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", d.Config, err)
	}
	return nil
}
