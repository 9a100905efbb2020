// Package config loads the service configuration from a YAML file and
// environment variables. It covers the listen address, log level, image base
// path, which count source to use and how to reach it, and metrics settings.
package config
