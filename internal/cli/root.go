// Package cli implements the idlemark command-line interface using Cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"idlemark/internal/config"
	"idlemark/internal/daemon"
	"idlemark/internal/marker"
	"idlemark/internal/metrics"
	"idlemark/internal/tracker"
	"idlemark/pkg/detector"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "TOML config file")
	pf.StringVar(&pidFile, "pid-file", "", "PID file path (overrides config)")

	f := rootCmd.Flags()
	f.Uint32VarP(&timeoutMinutes, "time", "t", 0, "idle timeout in minutes")
	f.StringVarP(&markerFile, "file", "f", "", "marker file created while idle")
	f.StringVar(&onConflict, "on-conflict", "", "marker conflict handling: strict or heal")
	f.StringVar(&backend, "backend", "", "idle backend: auto, wayland or x11")
	f.StringVar(&metricsFile, "metrics-file", "", "Prometheus textfile to rewrite on every transition")
	f.StringVar(&logFile, "log-file", "", "append logs to this file instead of stderr")
}

var (
	configPath string
	pidFile    string

	timeoutMinutes uint32
	markerFile     string
	onConflict     string
	backend        string
	metricsFile    string
	logFile        string
)

var rootCmd = &cobra.Command{
	Use:   "idlemark -t MINUTES -f PATH",
	Short: "Mirror the compositor's idle state into a marker file",
	Long: `idlemark asks the compositor to report when the user has been idle for
the given number of minutes. It creates an empty marker file when that
happens and removes it again as soon as the user is active.

Settings come from defaults, then --config, then IDLEMARK_* environment
variables, then flags. The timeout and the marker file are required.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDaemon,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// loadConfig layers flags that were set explicitly over file and env values
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("pid-file") {
		cfg.Daemon.PIDFile = pidFile
	}
	if flags.Lookup("time") == nil {
		// subcommands only share the persistent flags
		return cfg, nil
	}

	if flags.Changed("time") {
		if err := cfg.SetTimeoutMinutes(timeoutMinutes); err != nil {
			return nil, err
		}
	}
	if flags.Changed("file") {
		cfg.Idle.File = markerFile
	}
	if flags.Changed("on-conflict") {
		cfg.Idle.OnConflict = onConflict
	}
	if flags.Changed("backend") {
		if err := cfg.SetBackend(backend); err != nil {
			return nil, err
		}
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.TextfilePath = metricsFile
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}

	return cfg, nil
}

func runDaemon(cmd *cobra.Command, args []string) (runErr error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w (see --help)", err)
	}

	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		log.SetOutput(f)
		// Execute reports runErr after this returns, on stderr
		defer func() {
			if runErr != nil {
				log.Printf("Error: %v", runErr)
			}
			log.SetOutput(os.Stderr)
			f.Close()
		}()
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("%w (PID: %d)", daemon.ErrAlreadyRunning, pid)
	}

	m := marker.New(cfg.Idle.File, cfg.MarkerMode())
	log.Printf("Marker file %s (on conflict: %s)", m.Path(), m.Mode())
	recorder := metrics.NewRecorder(m, cfg.Metrics.TextfilePath)

	src, err := detector.New(cfg.Backend, cfg.Timeout(), recorder)
	if err != nil {
		return err
	}
	log.Printf("Idle source initialized: %s", src.Name())

	if err := dm.Acquire(); err != nil {
		src.Close()
		return err
	}
	defer dm.RemovePID()
	log.Printf("PID file: %s", dm.PIDFile())

	if err := recorder.Flush(); err != nil {
		log.Printf("Failed to write metrics textfile: %v", err)
	}

	svc := tracker.NewService(src)
	// closes the source on every exit path, so X11 settings are restored
	defer svc.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			log.Println("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Println("Starting idlemark daemon...")
	log.Printf("Configuration:\n%s", cfg.String())

	if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Println("Daemon stopped successfully")
	return nil
}
