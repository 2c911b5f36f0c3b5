package monitoring

import (
	"errors"
	"fmt"
	"strings"
)

// Config controls the /metrics exporter.
type Config struct {
	Enabled bool
	Path    string
}

func DefaultConfig() *Config {
	return &Config{Enabled: false, Path: "/metrics"}
}

func (c *Config) Validate() error {
	switch {
	case c.Path == "":
		return errors.New("monitoring path cannot be empty")
	case c.Path[0] != '/':
		return fmt.Errorf("monitoring path must start with '/': got %s", c.Path)
	case strings.HasPrefix(c.Path, "/api/"):
		return errors.New("monitoring path cannot be under /api/")
	case strings.ContainsRune(c.Path, '?'):
		return errors.New("monitoring path cannot contain query parameters")
	}
	return nil
}
