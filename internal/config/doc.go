// Package config handles configuration loading, parsing, and validation
// from environment variables (EDU_ prefix) and an optional config.yaml.
// It provides type-safe access to settings for the HTTP server, database,
// LLM and YouTube clients, and the enrichment workers.
package config
