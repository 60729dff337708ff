package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/db4e/db4e-supervisor/internal/types"
)

// StatsModFile is written by the pool daemon into its API directory.
const StatsModFile = "stats_mod"

type statsMod struct {
	Pool struct {
		Miners *int64 `json:"miners"`
	} `json:"pool"`
}

// ReadSidechainMiners returns pool.miners from <apiDir>/stats_mod.
func ReadSidechainMiners(apiDir string) (int64, error) {
	path := filepath.Join(apiDir, StatsModFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, types.NewErrorWithMsg(types.NotFound, "pool api file %s not found", path)
		}
		return 0, types.NewError(types.TransientIO, err)
	}

	var stats statsMod
	if err := json.Unmarshal(data, &stats); err != nil {
		// the daemon rewrites the file in place, a torn read parses badly
		return 0, types.NewError(types.TransientIO, fmt.Errorf("failed to parse %s: %w", path, err))
	}
	if stats.Pool.Miners == nil {
		return 0, types.NewErrorWithMsg(types.NotFound, "pool.miners missing in %s", path)
	}

	return *stats.Pool.Miners, nil
}
