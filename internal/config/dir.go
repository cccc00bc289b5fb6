package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// configDirName is a directory in the user's config directory where standup configuration is stored
	configDirName string = "standup"
)

func MustStandupConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		panic(fmt.Errorf("cannot obtain user config dir: %w", err))
	}

	standupConfigDir := filepath.Join(configDir, configDirName)
	return standupConfigDir
}
