package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"deej-manager/config"
	"deej-manager/device"

	"github.com/spf13/viper"
)

const (
	configDirName = "deej-manager"
	logFileName   = "manager.log"
	envPrefix     = "DEEJ_MANAGER"
)

// settings are the manager's own options, as opposed to deej's config.yaml.
type settings struct {
	DeejDir      string
	ConfigPath   string
	WorkerPath   string
	LogFile      string
	LogLevel     string
	PollInterval time.Duration
	Headless     bool
}

// managerDir returns the path to the manager's own directory in the user config dir.
func managerDir() (string, error) {
	appData, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config dir: %w", err)
	}
	dir := filepath.Join(appData, configDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}
	return dir, nil
}

func workerBinary() string {
	if runtime.GOOS == "windows" {
		return "deej.exe"
	}
	return "deej"
}

// loadSettings resolves flags and DEEJ_MANAGER_* environment variables,
// filling in paths relative to the deej directory.
func loadSettings(v *viper.Viper) (settings, error) {
	s := settings{
		DeejDir:      v.GetString("deej-dir"),
		ConfigPath:   v.GetString("config"),
		WorkerPath:   v.GetString("worker"),
		LogFile:      v.GetString("log-file"),
		LogLevel:     v.GetString("log-level"),
		PollInterval: v.GetDuration("poll-interval"),
		Headless:     v.GetBool("headless"),
	}

	if s.DeejDir == "" {
		dir, err := config.DefaultDeejDir()
		if err != nil {
			return settings{}, err
		}
		s.DeejDir = dir
	}
	if s.ConfigPath == "" {
		s.ConfigPath = config.DefaultPath(s.DeejDir)
	}
	if s.WorkerPath == "" {
		s.WorkerPath = filepath.Join(s.DeejDir, workerBinary())
	}
	if s.PollInterval <= 0 {
		s.PollInterval = device.DefaultInterval
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	return s, nil
}
