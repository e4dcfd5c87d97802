// Package config handles YAML configuration loading with environment
// variable substitution, defaults, and load-time validation.
//
// Templates are validated against their allowed placeholder sets here,
// so a typo in config.yaml fails the run at startup instead of after
// the data fetch. Credentials never live in the config file; see
// CredentialsFromEnv.
package config
