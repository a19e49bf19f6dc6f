// Package config loads application configuration from environment
// variables (prefix RELNOTES) layered over an optional YAML file.
// Environment values always win; defaults come from struct tags.
package config
