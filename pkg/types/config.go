package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds each individual request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trial-finder/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RegistryConfig holds settings for the ClinicalTrials.gov client.
type RegistryConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the studies endpoint (default https://clinicaltrials.gov/api/v2/studies).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// PageSize is the number of studies requested per page in the paged flow (default 100).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// MaxPages bounds the pagination loop regardless of what the server returns (default 100).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`
}

// GeocodeConfig holds settings for the Mapbox place-suggestion client.
type GeocodeConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the places endpoint without the trailing query segment.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Country restricts suggestions to an ISO 3166 alpha-2 code (default "US").
	Country string `json:"country" yaml:"country" mapstructure:"country"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// RequestTimeout bounds one whole request including pagination (default 2m).
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`
}

// LogConfig selects the log level and output format (text or json).
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for the CLI and the server.
type Config struct {
	Registry RegistryConfig `json:"registry" yaml:"registry" mapstructure:"registry"`
	Geocode  GeocodeConfig  `json:"geocode" yaml:"geocode" mapstructure:"geocode"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the settings used when no config file or
// environment override is present.
func DefaultConfig() Config {
	return Config{
		Registry: RegistryConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "trial-finder/0.1"},
			BaseURL:    "https://clinicaltrials.gov/api/v2/studies",
			PageSize:   100,
			MaxPages:   100,
		},
		Geocode: GeocodeConfig{
			HTTPConfig: HTTPConfig{Timeout: 10 * time.Second, UserAgent: "trial-finder/0.1"},
			BaseURL:    "https://api.mapbox.com/geocoding/v5/mapbox.places",
			Country:    "US",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 2 * time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}
