package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/ipc"
	"github.com/spf13/cobra"
)

func CtlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ctl <ping|start|stop> [component] [instance]",
		Short: "Sends one request to a running supervisor's control socket",
		Args:  cobra.RangeArgs(1, 3),
		RunE:  ctl,
	}

	cmd.Flags().String("socket", "", "control socket path (default taken from config)")
	cmd.Flags().Duration("timeout", 2*time.Minute, "how long to wait for the reply")

	return cmd
}

func ctl(cmd *cobra.Command, args []string) error {
	socketPath, err := cmd.Flags().GetString("socket")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	if socketPath == "" {
		cfg, err := config.New(GetConfigPath())
		if err != nil {
			return err
		}
		socketPath = cfg.Paths.SocketPath()
	}

	req := &ipc.Request{Op: args[0]}
	if len(args) > 1 {
		req.Component = args[1]
	}
	if len(args) > 2 {
		req.Instance = args[2]
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	resp, err := ipc.Call(ctx, socketPath, req)
	if err != nil {
		return err
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))

	if resp.Failed() {
		return errors.New("request failed")
	}
	return nil
}
