package config

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"STAYOPS_OTEL_ENABLED" default:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME"`
}
