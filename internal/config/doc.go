// Package config loads, defaults and validates the npg-notify TOML
// configuration. Environment fallbacks are resolved once at load time.
package config
