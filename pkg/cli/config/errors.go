package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound   = goerr.New("configuration file not found")
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrUnknownFormat    = goerr.New("unknown configuration file format")
	ErrMissingParameter = goerr.New("required parameter is missing")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	BackendKey    = "backend"
	FlagKey       = "flag"
)
