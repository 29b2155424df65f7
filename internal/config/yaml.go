package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML renders cfg the way a config file is written.
func MarshalYAML(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
