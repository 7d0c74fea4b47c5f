package cmd

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const rcFileName = ".stackscoperc"

// configLocations lists the rc files read for default arguments, lowest
// priority first
func configLocations() []string {
	locations := []string{
		filepath.Join(xdg.ConfigHome, "stackscope", "stackscoperc"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, rcFileName))
	}
	return append(locations, rcFileName)
}

// defaultConfigFile is the user's TOML config when it exists
func defaultConfigFile() string {
	path := filepath.Join(xdg.ConfigHome, "stackscope", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
