package config

import "fmt"

// PaginationConfig holds list pagination configuration.
type PaginationConfig struct {
	DefaultPageSize int `env:"STAYOPS_DEFAULT_PAGE_SIZE" default:"25"`
	MaxPageSize     int `env:"STAYOPS_MAX_PAGE_SIZE" default:"100"`
}

// Validate validates pagination configuration.
func (c *PaginationConfig) Validate() error {
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("STAYOPS_DEFAULT_PAGE_SIZE (%d) must be >= 1", c.DefaultPageSize)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("STAYOPS_MAX_PAGE_SIZE (%d) must be >= STAYOPS_DEFAULT_PAGE_SIZE (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	return nil
}
