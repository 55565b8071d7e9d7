package app

import (
	"errors"
	"fmt"
)

// Supported values of Config.Compiler and Config.Format.
const (
	CompilerJS    = "js"
	CompilerHCL   = "hcl"
	CompilerRisor = "risor"

	FormatHTML    = "html"
	FormatOutline = "outline"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	MarkupPath string // html file or directory
	DataPath   string // yaml, json or hcl file; optional

	Compiler  string
	Format    string
	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.MarkupPath == "" {
		return nil, errors.New("MarkupPath is a required configuration field and cannot be empty")
	}
	if cfg.Compiler == "" {
		cfg.Compiler = CompilerJS
	}
	switch cfg.Compiler {
	case CompilerJS, CompilerHCL, CompilerRisor:
	default:
		return nil, fmt.Errorf("unknown compiler %q: must be 'js', 'hcl' or 'risor'", cfg.Compiler)
	}
	if cfg.Format == "" {
		cfg.Format = FormatHTML
	}
	switch cfg.Format {
	case FormatHTML, FormatOutline:
	default:
		return nil, fmt.Errorf("unknown format %q: must be 'html' or 'outline'", cfg.Format)
	}
	return &cfg, nil
}
