package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"idlemark/internal/config"
	"idlemark/internal/daemon"
	"idlemark/internal/marker"
	"idlemark/pkg/detector"
	"idlemark/pkg/utils"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon is running and the marker is present",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "idlemark version %s\n", rootCmd.Version)
	},
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if running {
		fmt.Fprintf(out, "Status: Running (PID: %d)\n", pid)
	} else {
		fmt.Fprintln(out, "Status: Not running")
	}

	backend := cfg.Backend
	if backend == config.BackendAuto {
		backend = fmt.Sprintf("auto (%s)", detector.DetectDisplayServer())
	}
	fmt.Fprintf(out, "Backend: %s\n", backend)

	if cfg.Idle.File == "" {
		return nil
	}
	m := marker.New(cfg.Idle.File, cfg.MarkerMode())
	fmt.Fprintf(out, "Marker: %s (%s, on conflict: %s)\n", m.Path(), markerState(m.Path()), m.Mode())
	return nil
}

func markerState(path string) string {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return "idle for " + utils.FormatRoundedUnit(time.Since(info.ModTime()))
	case os.IsNotExist(err):
		return "active"
	default:
		return fmt.Sprintf("unknown: %v", err)
	}
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	fmt.Fprintf(out, "Stopping daemon (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	fmt.Fprintln(out, "Stop signal sent")
	return nil
}
