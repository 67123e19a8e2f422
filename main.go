package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"deej-manager/config"
	"deej-manager/device"
	"deej-manager/worker"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errNoDevice = errors.New("no mixer detected")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "deej-manager",
		Short:         "Configure deej sliders and run deej while the mixer is plugged in",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			logger, closeLog, err := newLogger(s)
			if err != nil {
				return err
			}
			defer closeLog()

			a := newAppContext(s, logger, device.SystemPorts, worker.ExecStarter{})
			logger.Info().
				Str("deej_dir", s.DeejDir).
				Str("config", s.ConfigPath).
				Str("worker", s.WorkerPath).
				Bool("headless", s.Headless).
				Msg("starting deej manager")

			if s.Headless {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				a.runHeadless(ctx)
				return nil
			}
			runGUI(cmd.Context(), a)
			return nil
		},
	}

	defaultLog := ""
	if dir, err := managerDir(); err == nil {
		defaultLog = filepath.Join(dir, logFileName)
	}

	flags := root.PersistentFlags()
	flags.String("deej-dir", "", "directory holding deej and its config (default ~/deej)")
	flags.String("config", "", "path to deej's config.yaml (default <deej-dir>/config.yaml)")
	flags.String("worker", "", "deej executable to run (default <deej-dir>/"+workerBinary()+")")
	flags.String("log-file", defaultLog, "log file, empty to log to stderr only")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Duration("poll-interval", device.DefaultInterval, "how often to look for the mixer")
	root.Flags().Bool("headless", false, "run without a window until interrupted")
	_ = v.BindPFlags(flags)
	_ = v.BindPFlags(root.Flags())

	root.AddCommand(newPortsCmd(v), newDetectCmd(v), newMonitorCmd(v))
	return root
}

// newDetector builds a detector for the one-shot subcommands, logging to stderr only.
func newDetector(v *viper.Viper) (*device.Detector, error) {
	s, err := loadSettings(v)
	if err != nil {
		return nil, err
	}
	s.LogFile = ""
	logger, _, err := newLogger(s)
	if err != nil {
		return nil, err
	}
	return device.NewDetector(device.SystemPorts, device.DefaultMatcher, logger), nil
}

func newPortsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports and whether each looks like a mixer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDetector(v)
			if err != nil {
				return err
			}
			ports, err := d.Ports()
			if err != nil {
				return fmt.Errorf("failed to list ports: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(out, "no serial ports found")
				return nil
			}
			for _, p := range ports {
				mark := " "
				if p.Matched {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %-24s %4s:%-4s %s\n", mark, p.Name, p.VID, p.PID, p.Description)
			}
			return nil
		},
	}
}

func newDetectCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Print the mixer's serial port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDetector(v)
			if err != nil {
				return err
			}
			path, ok := d.Detect()
			if !ok {
				return errNoDevice
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newMonitorCmd(v *viper.Viper) *cobra.Command {
	var portName string
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print slider moves read from the mixer (deej must not be running)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			s.LogFile = ""
			logger, _, err := newLogger(s)
			if err != nil {
				return err
			}

			doc, err := config.NewStore(s.ConfigPath, logger).Load()
			if err != nil {
				return err
			}
			if portName == "" {
				path, ok := device.NewDetector(device.SystemPorts, device.DefaultMatcher, logger).Detect()
				if !ok {
					return errNoDevice
				}
				portName = path
			}

			m := device.NewMonitor(device.MonitorOptions{
				BaudRate:       doc.BaudRate,
				InvertSliders:  doc.InvertSliders,
				NoiseReduction: doc.NoiseReduction,
			}, logger)
			if err := m.Open(portName); err != nil {
				return err
			}
			defer m.Close()

			moves, errCh, err := m.Start()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					return nil
				case err := <-errCh:
					return fmt.Errorf("serial port error: %w", err)
				case ev, ok := <-moves:
					if !ok {
						select {
						case err := <-errCh:
							return fmt.Errorf("serial port error: %w", err)
						default:
							return nil
						}
					}
					fmt.Fprintf(out, "slider %d: %3.0f%%\n", ev.SliderID+1, ev.PercentValue*100)
				}
			}
		},
	}
	cmd.Flags().StringVar(&portName, "port", "", "serial port to read (default: detected mixer)")
	return cmd
}

// shutdown stops the watcher and the worker.
func shutdown(cancel context.CancelFunc, a *appContext) {
	cancel()
	a.supervisor.Shutdown()
}
