package config

const (
	defaultPorchTimeoutSeconds = 10
	defaultLogLevel            = "info"
	defaultLogFormat           = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Porch: Porch{
			TimeoutSeconds: defaultPorchTimeoutSeconds,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
