package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/StrategicUser/smcroute/internal/log"
)

const (
	// DefaultRefreshInterval is the default interface refresh period in
	// seconds.
	DefaultRefreshInterval = 10
)

// LoadConfig reads and parses the TOML configuration file. Defaults are
// applied after parsing; validation is a separate step (ValidateConfig).
func LoadConfig(configPath string) (*Config, error) {
	configFile := filepath.Clean(configPath)

	if !filepath.IsAbs(configFile) {
		if path, err := filepath.Abs(configFile); err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %v", err)
		} else {
			configFile = path
		}
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var config Config
	if err := toml.Unmarshal(content, &config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			log.Errorf(derr.String())
			row, col := derr.Position()
			log.Errorf("Error at line %d, column %d", row, col)
			return nil, fmt.Errorf("failed to parse config file")
		}
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	config.absConfigFilePath = configFile
	config.applyDefaults()

	log.Debugf("Configuration file path: %s", configFile)

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.General == nil {
		c.General = &GeneralConfig{}
	}
	if c.General.RefreshIntervalSeconds == 0 {
		c.General.RefreshIntervalSeconds = DefaultRefreshInterval
	}
	for _, phyint := range c.Phyint {
		if phyint.TTLThreshold == 0 {
			phyint.TTLThreshold = 1
		}
	}
}

// ConfigPath returns the absolute path the configuration was loaded from.
func (c *Config) ConfigPath() string {
	return c.absConfigFilePath
}
