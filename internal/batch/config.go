package batch

import (
	"errors"
	"fmt"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Parallel processing
	Workers  int
	FailFast bool

	// File discovery
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress is called after each file, from the worker that finished it.
	Progress func(done, total int, item Item)
}

// DefaultConfig returns four workers, non-recursive discovery and no
// pattern filters.
func DefaultConfig() Config {
	return Config{Workers: 4}
}

// Validate checks the worker count and glob patterns.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("invalid workers: %d (must be positive)", c.Workers)
	}
	for _, p := range append(append([]string{}, c.IncludePatterns...), c.ExcludePatterns...) {
		if p == "" {
			return errors.New("empty file pattern")
		}
		if err := validatePattern(p); err != nil {
			return err
		}
	}
	return nil
}
