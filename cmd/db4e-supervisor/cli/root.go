package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/db4e/db4e-supervisor/pkg"
	"github.com/spf13/cobra"
)

const (
	defaultConfigFileName = "config.yml"
	configPathEnv         = "DB4E_CONFIG"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:           "db4e-supervisor",
		Short:         "Supervises the local Monero mining daemons and records their pool logs",
		SilenceUsage:  true,
	}
)

func Setup() error {
	homePath, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	defaultConfigPath := pkg.Getenv(configPathEnv, getDefaultConfigFile(homePath, defaultConfigFileName))

	rootCmd.AddCommand(StartServerCmd())
	rootCmd.AddCommand(CtlCmd())
	rootCmd.AddCommand(ReplayLogCmd())
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath, fmt.Sprintf("config file (default %s)", defaultConfigPath))

	return rootCmd.ExecuteContext(context.Background())
}

func getDefaultConfigFile(homePath, filename string) string {
	return filepath.Join(homePath, filename)
}

func GetConfigPath() string {
	return cfgPath
}
