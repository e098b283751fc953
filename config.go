package txshield

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/policy"
	"github.com/viant/txshield/service/dispatcher"
	"github.com/viant/txshield/service/evaluator"
	"github.com/viant/txshield/service/evaluator/rules"
	"github.com/viant/txshield/service/messaging"
	"gopkg.in/yaml.v3"
)

// Evaluator kinds.
const (
	EvaluatorRules  = "rules"
	EvaluatorPreset = "preset"
)

// Config is the serialisable configuration of a Service. The zero value of
// every nested section inherits its package defaults.
type Config struct {
	Logging    logging.Config    `json:"logging" yaml:"logging"`
	Policy     policy.Config     `json:"policy" yaml:"policy"`
	Dispatcher dispatcher.Config `json:"dispatcher" yaml:"dispatcher"`
	Evaluator  EvaluatorConfig   `json:"evaluator" yaml:"evaluator"`
	Messaging  MessagingConfig   `json:"messaging" yaml:"messaging"`
	Events     EventsConfig      `json:"events" yaml:"events"`
	Tracing    TracingConfig     `json:"tracing" yaml:"tracing"`
	Metrics    MetricsConfig     `json:"metrics" yaml:"metrics"`
	Webhook    WebhookConfig     `json:"webhook" yaml:"webhook"`
}

type EvaluatorConfig struct {
	// Kind selects rules (default) or preset, which trusts levels carried
	// by the input.
	Kind  string                `json:"kind,omitempty" yaml:"kind,omitempty"`
	Retry evaluator.RetryConfig `json:"retry" yaml:"retry"`
	Rules rules.Config          `json:"rules" yaml:"rules"`
}

// MessagingConfig selects the vendor carrying review prompts.
type MessagingConfig struct {
	Vendor     messaging.Vendor `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	BaseURL    string           `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	MaxRetries int              `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
}

// EventsConfig enables session audit events.
type EventsConfig struct {
	Enabled bool             `json:"enabled" yaml:"enabled"`
	Vendor  messaging.Vendor `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	BaseURL string           `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

type MetricsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

type WebhookConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging:    logging.Config{Format: logging.FormatText, Level: "info"},
		Policy:     *policy.ToConfig(policy.Default()),
		Dispatcher: dispatcher.DefaultConfig(),
		Evaluator: EvaluatorConfig{
			Kind:  EvaluatorRules,
			Retry: evaluator.DefaultRetryConfig(),
			Rules: rules.DefaultConfig(),
		},
		Messaging: MessagingConfig{Vendor: messaging.VendorMemory, MaxRetries: 3},
		Events:    EventsConfig{Vendor: messaging.VendorMemory},
		Tracing:   TracingConfig{ServiceName: "txshield", ServiceVersion: Version},
		Webhook:   WebhookConfig{Addr: ":8080"},
	}
}

// Validate returns the first invalid setting or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrap(err, "logging.level")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return errors.Newf("logging.format %q is not supported", c.Logging.Format)
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.Dispatcher.MaxPendingPrompts <= 0 {
		return errors.New("dispatcher.maxPendingPrompts must be > 0")
	}
	if c.Dispatcher.MaxConcurrentSessions < 0 {
		return errors.New("dispatcher.maxConcurrentSessions must be >= 0")
	}
	if c.Dispatcher.Deadline < 0 {
		return errors.New("dispatcher.deadline must be >= 0")
	}
	switch c.Evaluator.Kind {
	case "", EvaluatorRules, EvaluatorPreset:
	default:
		return errors.Newf("evaluator.kind %q is not supported", c.Evaluator.Kind)
	}
	if c.Evaluator.Rules.DayStartHour < 0 || c.Evaluator.Rules.DayEndHour > 24 ||
		c.Evaluator.Rules.DayStartHour >= c.Evaluator.Rules.DayEndHour {
		return errors.Newf("evaluator.rules day hours %d-%d are invalid",
			c.Evaluator.Rules.DayStartHour, c.Evaluator.Rules.DayEndHour)
	}
	if err := validateVendor("messaging", c.Messaging.Vendor, c.Messaging.BaseURL); err != nil {
		return err
	}
	if c.Events.Enabled {
		if err := validateVendor("events", c.Events.Vendor, c.Events.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

func validateVendor(section string, vendor messaging.Vendor, baseURL string) error {
	switch vendor {
	case "", messaging.VendorMemory:
		return nil
	case messaging.VendorFs:
		if baseURL == "" {
			return errors.Newf("%s.baseURL is required for the fs vendor", section)
		}
		return nil
	}
	return errors.Newf("%s.vendor %q is not supported", section, vendor)
}

// LoadConfig reads a YAML config from URL on top of DefaultConfig.
// ${VAR} references are expanded from the environment.
func LoadConfig(ctx context.Context, fs afs.Service, URL string, options ...storage.Option) (*Config, error) {
	data, err := download(ctx, fs, URL, options...)
	if err != nil {
		return nil, err
	}
	expanded := os.ExpandEnv(strings.ReplaceAll(string(data), "\r\n", "\n"))
	ret := DefaultConfig()
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err = decoder.Decode(ret); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "failed to decode config %v", URL)
	}
	return ret, ret.Validate()
}
