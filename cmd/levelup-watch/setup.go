package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shandysiswandi/levelup/internal/liveclient"
	"github.com/shandysiswandi/levelup/internal/pkg/config"
	"github.com/shandysiswandi/levelup/internal/pkg/instrument"
	"gopkg.in/natefinch/lumberjack.v2"
)

//go:embed config.yaml
var defaultConfig []byte

// loadConfig reads the --config file or the embedded defaults and applies the persistent flags.
func loadConfig() (*config.Viper, error) {
	var (
		cfg *config.Viper
		err error
	)
	if flagConfig != "" {
		cfg, err = config.NewViper(flagConfig)
	} else {
		cfg, err = config.NewViperFromBytes("yaml", defaultConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	overrides := map[string]string{
		"server.url": flagServer,
		"token":      flagToken,
		"log.file":   flagLogFile,
	}
	for key, value := range overrides {
		if value != "" {
			cfg.Set(key, value)
		}
	}

	return cfg, nil
}

// setupLogging sends slog JSON to a rotating file so the terminal only shows the watch view.
func setupLogging(cfg config.Config) (*lumberjack.Logger, error) {
	file, err := expandHome(cfg.GetString("log.file"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.GetString("log.level"))); err != nil {
		level = slog.LevelInfo
	}

	w := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    max(cfg.GetInt("log.max_size_mb"), 1),
		MaxBackups: cfg.GetInt("log.max_backups"),
	}
	instrument.SetupLogging(instrument.LogOptions{
		ServiceName: "levelup-watch",
		Writer:      w,
		Level:       level,
		MaskFields:  cfg.GetArray("log.mask_fields"),
	}, nil)

	return w, nil
}

func openKeyring(cfg config.Config) (*liveclient.Keyring, error) {
	dir, err := expandHome(cfg.GetString("keyring.file_dir"))
	if err != nil {
		return nil, err
	}
	return liveclient.OpenKeyring(dir)
}

// credentials orders the token sources: flag or LEVELUP_TOKEN (both land on "token"), then the keyring.
func credentials(cfg config.Config, ring *liveclient.Keyring) liveclient.Credentials {
	creds := liveclient.Credentials{liveclient.StaticToken(cfg.GetString("token"))}
	if ring != nil {
		creds = append(creds, ring)
	}
	return creds
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
