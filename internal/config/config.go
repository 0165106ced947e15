// Package config loads service settings from the environment. A .env file in
// the working directory is read first when present; variables already set in
// the environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// NWS API client.
	FeedURL         string        `envconfig:"NWS_FEED_URL" default:"https://api.weather.gov/alerts/active" validate:"required,url"`
	UserAgent       string        `envconfig:"NWS_USER_AGENT" default:"nws-alert-map (github.com/couchcryptid/nws-alert-map)" validate:"required"`
	RequestTimeout  time.Duration `envconfig:"NWS_REQUEST_TIMEOUT" default:"10s" validate:"gt=0"`
	RetryMax        int           `envconfig:"NWS_RETRY_MAX" default:"3" validate:"min=0,max=10"`
	RetryWaitMin    time.Duration `envconfig:"NWS_RETRY_WAIT_MIN" default:"500ms" validate:"gt=0"`
	RetryWaitMax    time.Duration `envconfig:"NWS_RETRY_WAIT_MAX" default:"5s" validate:"gtefield=RetryWaitMin"`
	ZoneConcurrency int           `envconfig:"ZONE_CONCURRENCY" default:"8" validate:"min=1,max=64"`

	SimplifyTolerance float64 `envconfig:"SIMPLIFY_TOLERANCE" default:"0.05" validate:"gte=0"`

	// Poll loop.
	PollInterval     time.Duration `envconfig:"POLL_INTERVAL" default:"5m" validate:"gt=0"`
	PollRetryBackoff time.Duration `envconfig:"POLL_RETRY_BACKOFF" default:"5s" validate:"gt=0"`
	RunOnce          bool          `envconfig:"RUN_ONCE" default:"false"`

	// Presentation sinks.
	HTTPAddr          string   `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	StatesGeoJSONPath string   `envconfig:"STATES_GEOJSON_PATH"`
	OutputPath        string   `envconfig:"OUTPUT_PATH"`
	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic        string   `envconfig:"KAFKA_TOPIC" default:"enriched-weather-alerts" validate:"required_with=KafkaBrokers"`

	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
}

// KafkaEnabled reports whether enriched alerts should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		var perr *envconfig.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("invalid %s: %w", perr.KeyName, perr.Err)
		}
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, describe(err)
	}
	return &cfg, nil
}

// describe rewrites the first validation failure in terms of the environment
// variable that caused it.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	fe := verrs[0]
	name := fe.StructField()
	if f, ok := reflect.TypeOf(Config{}).FieldByName(name); ok {
		if tag := f.Tag.Get("envconfig"); tag != "" {
			name = tag
		}
	}
	switch fe.Tag() {
	case "required", "required_with":
		return fmt.Errorf("%s is required", name)
	default:
		return fmt.Errorf("invalid %s: %v fails %s=%s", name, fe.Value(), fe.Tag(), fe.Param())
	}
}
