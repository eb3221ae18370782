package roof

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the CLI's unified configuration, loaded from a YAML file,
// grounded on mesh/config_loader.go's LoadConfig/SaveConfig shape.
type Config struct {
	Mapbox struct {
		AccessToken string  `yaml:"access_token"`
		TilesetID   string  `yaml:"tileset_id"`
		RadiusM     float64 `yaml:"radius_m"`
	} `yaml:"mapbox"`
	Skeleton struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"skeleton"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if cfg.Mapbox.AccessToken == "" {
		return nil, fmt.Errorf("mapbox.access_token is required")
	}

	if cfg.Mapbox.RadiusM <= 0 {
		cfg.Mapbox.RadiusM = defaultRadiusM
	}
	if cfg.Mapbox.TilesetID == "" {
		cfg.Mapbox.TilesetID = defaultTilesetID
	}

	return &cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// FootprintOptionsFromConfig builds FootprintOptions from cfg.
func (c *Config) FootprintOptionsFromConfig() FootprintOptions {
	opts := DefaultFootprintOptions()
	opts.RadiusM = c.Mapbox.RadiusM
	opts.TilesetID = c.Mapbox.TilesetID
	return opts
}
