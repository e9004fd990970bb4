// Package config defines the application's strongly-typed configuration
// and loads it once at startup from environment variables, an optional
// config file, and baked-in defaults.
package config
