// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Watch reloads the file on change so the Vibin endpoint can be switched
// without restarting the process.
package config
