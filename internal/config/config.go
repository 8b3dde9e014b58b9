// Package config loads the collector service configuration from defaults, an
// optional YAML file, and environment variables, in that order. Validation
// collects every problem into a single fatal error so operators see the whole
// field-by-field issue list at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/collectorkit/collectorkit/pkg/errors"
	"github.com/collectorkit/collectorkit/pkg/retry"
	"github.com/collectorkit/collectorkit/pkg/types"
	"github.com/collectorkit/collectorkit/pkg/upload"
)

// Configuration represents the complete collector service configuration.
type Configuration struct {
	LogLevel        string   `yaml:"log_level"`
	Environment     string   `yaml:"environment"`
	ServiceName     string   `yaml:"service_name"`
	ServiceLocation string   `yaml:"service_location"`
	SiteName        string   `yaml:"site_name"`
	Providers       []string `yaml:"providers"`
	ExportDir       string   `yaml:"export_dir"`

	API   APIConfig   `yaml:"api"`
	Retry RetryConfig `yaml:"retry"`
	S3    S3Config    `yaml:"s3"`
}

// APIConfig represents the upstream API endpoint settings.
type APIConfig struct {
	Host     string        `yaml:"host"`
	Protocol string        `yaml:"protocol"`
	Port     int           `yaml:"port"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RetryConfig represents retry overrides for the HTTP client.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// S3Config represents the S3 upload target settings.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	Accelerated     bool   `yaml:"accelerated"`
}

// NewDefault returns a configuration with sensible defaults.
func NewDefault() *Configuration {
	return &Configuration{
		LogLevel:        "info",
		Environment:     string(types.EnvDevelopment),
		ServiceLocation: string(types.LocationGlobal),
		Providers:       nil,
		ExportDir:       "data",
		API: APIConfig{
			Protocol: "https",
			Port:     443,
			Timeout:  60 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 10,
			BaseDelay:   500 * time.Millisecond,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// LoadFromFile overlays configuration from a YAML file.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv overlays configuration from environment variables. Unparseable
// numeric or duration values are ignored in favor of the current value.
func (c *Configuration) LoadFromEnv() {
	if val := os.Getenv("COLLECTOR_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("NODE_ENV"); val != "" {
		c.Environment = val
	}
	if val := os.Getenv("COLLECTOR_ENVIRONMENT"); val != "" {
		c.Environment = val
	}
	if val := os.Getenv("COLLECTOR_SERVICE_NAME"); val != "" {
		c.ServiceName = val
	}
	if val := os.Getenv("COLLECTOR_SERVICE_LOCATION"); val != "" {
		c.ServiceLocation = val
	}
	if val := os.Getenv("COLLECTOR_SITE_NAME"); val != "" {
		c.SiteName = val
	}
	if val := os.Getenv("COLLECTOR_PROVIDERS"); val != "" {
		c.Providers = splitList(val)
	}
	if val := os.Getenv("COLLECTOR_EXPORT_DIR"); val != "" {
		c.ExportDir = val
	}

	if val := os.Getenv("COLLECTOR_API_HOST"); val != "" {
		c.API.Host = val
	}
	if val := os.Getenv("COLLECTOR_API_PROTOCOL"); val != "" {
		c.API.Protocol = val
	}
	if val := os.Getenv("COLLECTOR_API_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.API.Port = port
		}
	}
	if val := os.Getenv("COLLECTOR_API_TIMEOUT"); val != "" {
		if timeout, err := time.ParseDuration(val); err == nil {
			c.API.Timeout = timeout
		}
	}

	if val := os.Getenv("COLLECTOR_RETRY_MAX_ATTEMPTS"); val != "" {
		if attempts, err := strconv.Atoi(val); err == nil {
			c.Retry.MaxAttempts = attempts
		}
	}
	if val := os.Getenv("COLLECTOR_RETRY_BASE_DELAY"); val != "" {
		if delay, err := time.ParseDuration(val); err == nil {
			c.Retry.BaseDelay = delay
		}
	}

	if val := os.Getenv("COLLECTOR_S3_BUCKET"); val != "" {
		c.S3.Bucket = val
	}
	if val := os.Getenv("COLLECTOR_S3_REGION"); val != "" {
		c.S3.Region = val
	}
	if val := os.Getenv("COLLECTOR_S3_ENDPOINT"); val != "" {
		c.S3.Endpoint = val
	}
	if val := os.Getenv("AWS_ACCESS_KEY_ID"); val != "" {
		c.S3.AccessKeyID = val
	}
	if val := os.Getenv("AWS_SECRET_ACCESS_KEY"); val != "" {
		c.S3.SecretAccessKey = val
	}
	if val := os.Getenv("COLLECTOR_S3_FORCE_PATH_STYLE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.S3.ForcePathStyle = b
		}
	}
	if val := os.Getenv("COLLECTOR_S3_ACCELERATED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.S3.Accelerated = b
		}
	}
}

// Load builds a configuration from defaults, an optional YAML file, and the
// environment, then validates it. A non-empty filename that cannot be read or
// parsed is an error; validation failures carry every issue found.
func Load(filename string) (*Configuration, error) {
	c := NewDefault()

	if filename != "" {
		if err := c.LoadFromFile(filename); err != nil {
			return nil, err
		}
	}
	c.LoadFromEnv()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration, collecting every issue found into a
// single configuration error.
func (c *Configuration) Validate() error {
	var issues []errors.Issue

	if _, err := types.ParseEnvironment(c.Environment); err != nil {
		issues = append(issues, errors.Issue{
			Field:       "environment",
			Description: fmt.Sprintf("%q is not one of production, development, test, staging", c.Environment),
		})
	}
	if c.ServiceName == "" {
		issues = append(issues, errors.Issue{Field: "service_name", Description: "must not be empty"})
	}

	location, err := types.ParseServiceLocation(c.ServiceLocation)
	if err != nil {
		issues = append(issues, errors.Issue{
			Field:       "service_location",
			Description: fmt.Sprintf("%q is not one of global, site", c.ServiceLocation),
		})
	} else if location == types.LocationSite && c.SiteName == "" {
		issues = append(issues, errors.Issue{Field: "site_name", Description: "required when service_location is site"})
	}

	if c.API.Host == "" {
		issues = append(issues, errors.Issue{Field: "api.host", Description: "must not be empty"})
	}
	switch c.API.Protocol {
	case "http", "https":
	default:
		issues = append(issues, errors.Issue{
			Field:       "api.protocol",
			Description: fmt.Sprintf("%q is not one of http, https", c.API.Protocol),
		})
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		issues = append(issues, errors.Issue{
			Field:       "api.port",
			Description: fmt.Sprintf("%d is outside 1-65535", c.API.Port),
		})
	}

	if c.Retry.MaxAttempts <= 0 {
		issues = append(issues, errors.Issue{Field: "retry.max_attempts", Description: "must be greater than 0"})
	}
	if c.Retry.BaseDelay <= 0 {
		issues = append(issues, errors.Issue{Field: "retry.base_delay", Description: "must be greater than 0"})
	}

	for _, provider := range c.Providers {
		if provider != string(upload.ProviderS3) {
			issues = append(issues, errors.Issue{
				Field:       "providers",
				Description: fmt.Sprintf("unknown provider %q", provider),
			})
			continue
		}
		if c.S3.Bucket == "" {
			issues = append(issues, errors.Issue{Field: "s3.bucket", Description: "required when the s3 provider is enabled"})
		}
		if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
			issues = append(issues, errors.Issue{
				Field:       "s3.access_key_id",
				Description: "access key ID and secret access key must be set together",
			})
		}
	}

	if len(issues) > 0 {
		return errors.NewConfiguration(issues)
	}
	return nil
}

// BaseURL builds the upstream API base URL from the protocol, host, and port.
// Default ports for the scheme are left implicit.
func (c *Configuration) BaseURL() string {
	defaultPort := 80
	if c.API.Protocol == "https" {
		defaultPort = 443
	}
	if c.API.Port == defaultPort {
		return fmt.Sprintf("%s://%s", c.API.Protocol, c.API.Host)
	}
	return fmt.Sprintf("%s://%s:%d", c.API.Protocol, c.API.Host, c.API.Port)
}

// RetryPolicy builds the retry policy for the HTTP client.
func (c *Configuration) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
	}
}

// ParsedEnvironment returns the parsed deployment environment. Call Validate first;
// an unparseable value falls back to development.
func (c *Configuration) ParsedEnvironment() types.Environment {
	env, err := types.ParseEnvironment(c.Environment)
	if err != nil {
		return types.EnvDevelopment
	}
	return env
}

// TargetConfigs builds the upload target configurations for the enabled
// providers, consumed by the upload registry.
func (c *Configuration) TargetConfigs() []upload.TargetConfig {
	var configs []upload.TargetConfig
	for _, provider := range c.Providers {
		if provider != string(upload.ProviderS3) {
			continue
		}
		configs = append(configs, upload.TargetConfig{
			Provider:        upload.ProviderS3,
			Bucket:          c.S3.Bucket,
			Region:          c.S3.Region,
			Endpoint:        c.S3.Endpoint,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			ForcePathStyle:  c.S3.ForcePathStyle,
			Accelerated:     c.S3.Accelerated,
		})
	}
	return configs
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
