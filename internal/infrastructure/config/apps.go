package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

type appsFile struct {
	Apps []types.AppDefinition `yaml:"apps" toml:"apps"`
}

// LoadApps reads the app definitions to register on startup from a YAML or
// TOML file with a top-level "apps" list.
func LoadApps(path string) ([]types.AppDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read apps file: %w", err)
	}

	var file appsFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".toml":
		err = toml.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("unsupported apps file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i, app := range file.Apps {
		if app.ID == "" {
			return nil, fmt.Errorf("app %d in %s has no id", i, path)
		}
	}
	return file.Apps, nil
}
