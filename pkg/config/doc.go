// Package config loads application configuration from the environment.
//
// All settings are read from BILLFOLD_* environment variables with sensible
// defaults; only BILLFOLD_POSTGRES_URL is required. When BILLFOLD_CONFIG
// points at a YAML file, values from that file are applied first and the
// environment overrides them, so a deployment can ship a base file and tune
// individual settings per environment.
package config
