package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays values from STOREFRONT_* variables; unset variables keep
// whatever defaults or JSON produced.
func parseEnv(cfg *Config) error {
	return env.Parse(cfg)
}
