package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default input file name.
const DefaultConfigFile = ".jobharvest.yaml"

// ErrConfigNotFound is returned when the input file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadInputFile loads a search Input from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Missing quotas are filled with defaults.
func LoadInputFile(path string) (*Input, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	in := NewInput()
	if err := yaml.Unmarshal(data, in); err != nil {
		return nil, err
	}
	in.Normalize()

	return in, nil
}

// FindConfigFile searches for the input file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .jobharvest.yaml in the current directory
// 3. Look for .jobharvest.yaml in the XDG config directory
// 4. Look for .jobharvest.yaml in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), DefaultConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
