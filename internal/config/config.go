// Package config resolves action inputs, run context and the optional YAML
// configuration file into one validated Config.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// Sentinel errors for configuration problems that abort an invocation.
var (
	ErrMissingToken      = errors.New("github-token is required")
	ErrInvalidAdditional = errors.New("additional-conclusions is not a valid JSON array of {name, conclusion}")
	ErrInvalidBoolean    = errors.New("invalid boolean input")
)

const defaultAPIURL = "https://api.github.com"

// inputs mirrors the environment: action inputs arrive as INPUT_<NAME>,
// run context as GITHUB_*.
type inputs struct {
	GitHubToken              string `env:"INPUT_GITHUB-TOKEN"`
	GitHubTokenSecretID      string `env:"INPUT_GITHUB-TOKEN-SECRET-ID"`
	FallbackConclusion       string `env:"INPUT_FALLBACK-CONCLUSION"`
	AdditionalConclusions    string `env:"INPUT_ADDITIONAL-CONCLUSIONS"`
	SuppressFallbackWarnings string `env:"INPUT_SUPPRESS-FALLBACK-WARNINGS"`

	NotifyWebhookURL string `env:"INPUT_NOTIFY-WEBHOOK-URL"`
	NotifyFile       string `env:"INPUT_NOTIFY-FILE"`
	NotifyEventBus   string `env:"INPUT_NOTIFY-EVENT-BUS"`
	NotifyQueueURL   string `env:"INPUT_NOTIFY-QUEUE-URL"`

	Repository string `env:"GITHUB_REPOSITORY"`
	RunID      string `env:"GITHUB_RUN_ID"`
	APIURL     string `env:"GITHUB_API_URL"`

	RateLimitRPS float64 `env:"WORKFLOW_CONCLUSION_API_RPS"`
	JobFilter    string  `env:"WORKFLOW_CONCLUSION_JOB_FILTER"`
}

// File is the optional YAML configuration. Environment values win over it.
type File struct {
	FallbackConclusion       string                       `yaml:"fallbackConclusion"`
	SuppressFallbackWarnings *bool                        `yaml:"suppressFallbackWarnings"`
	AdditionalConclusions    []types.AdditionalConclusion `yaml:"additionalConclusions"`
	APIURL                   string                       `yaml:"apiUrl"`
	RateLimitRPS             float64                      `yaml:"rateLimitRps"`
	JobFilter                string                       `yaml:"jobFilter"`
	Sinks                    []types.SinkConfig           `yaml:"sinks"`
}

// Config is the resolved configuration of one invocation.
type Config struct {
	Token                    string
	TokenSecretID            string
	Repository               string
	RunID                    int64
	APIURL                   string
	Fallback                 types.Conclusion
	Additional               []types.AdditionalConclusion
	SuppressFallbackWarnings bool
	RateLimitRPS             float64
	JobFilter                string
	Sinks                    []types.SinkConfig
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// ConfigPath is an optional YAML file. Empty skips it.
	ConfigPath string
	// DotEnvPath is an optional .env file loaded into the process
	// environment before parsing. A missing file is ignored.
	DotEnvPath string
	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

// Load reads the YAML file and the environment and validates the result.
func Load(opts LoadOptions) (*Config, error) {
	if opts.DotEnvPath != "" {
		if err := godotenv.Load(opts.DotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", opts.DotEnvPath, err)
		}
	}

	var file File
	if opts.ConfigPath != "" {
		f, err := LoadFile(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		file = *f
	}

	var in inputs
	if err := env.ParseWithOptions(&in, env.Options{Environment: opts.Environment}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg, err := resolve(in, file)
	if err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads and parses a YAML configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &f, nil
}

func resolve(in inputs, file File) (*Config, error) {
	var errs []error

	cfg := &Config{
		Token:         strings.TrimSpace(in.GitHubToken),
		TokenSecretID: strings.TrimSpace(in.GitHubTokenSecretID),
		Repository:    strings.TrimSpace(in.Repository),
		APIURL:        firstNonEmpty(in.APIURL, file.APIURL, defaultAPIURL),
		JobFilter:     firstNonEmpty(in.JobFilter, file.JobFilter, "latest"),
		RateLimitRPS:  file.RateLimitRPS,
		Sinks:         append([]types.SinkConfig(nil), file.Sinks...),
	}
	if in.RateLimitRPS != 0 {
		cfg.RateLimitRPS = in.RateLimitRPS
	}

	if cfg.Token == "" && cfg.TokenSecretID == "" {
		errs = append(errs, ErrMissingToken)
	}
	if cfg.Repository == "" {
		errs = append(errs, errors.New("GITHUB_REPOSITORY is required"))
	}
	if runID := strings.TrimSpace(in.RunID); runID == "" {
		errs = append(errs, errors.New("GITHUB_RUN_ID is required"))
	} else if id, err := strconv.ParseInt(runID, 10, 64); err != nil || id <= 0 {
		errs = append(errs, fmt.Errorf("GITHUB_RUN_ID must be a positive integer, got %q", runID))
	} else {
		cfg.RunID = id
	}

	fallback, err := ParseFallback(firstNonEmpty(in.FallbackConclusion, file.FallbackConclusion))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Fallback = fallback

	cfg.SuppressFallbackWarnings = file.SuppressFallbackWarnings != nil && *file.SuppressFallbackWarnings
	if strings.TrimSpace(in.SuppressFallbackWarnings) != "" {
		b, err := ParseBool("suppress-fallback-warnings", in.SuppressFallbackWarnings)
		if err != nil {
			errs = append(errs, err)
		}
		cfg.SuppressFallbackWarnings = b
	}

	cfg.Additional = file.AdditionalConclusions
	if strings.TrimSpace(in.AdditionalConclusions) != "" {
		additional, err := ParseAdditionalConclusions(in.AdditionalConclusions)
		if err != nil {
			errs = append(errs, err)
		}
		cfg.Additional = additional
	}

	cfg.Sinks = append(cfg.Sinks, inputSinks(in)...)
	for i, s := range cfg.Sinks {
		if err := validateSink(s); err != nil {
			errs = append(errs, fmt.Errorf("sinks[%d]: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// ParseFallback lowercases and validates the fallback conclusion. Empty
// selects types.DefaultFallback.
func ParseFallback(s string) (types.Conclusion, error) {
	if strings.TrimSpace(s) == "" {
		return types.DefaultFallback, nil
	}
	c, err := types.ParseConclusion(s)
	if err != nil {
		return "", fmt.Errorf("fallback-conclusion: %w", err)
	}
	return c, nil
}

// ParseBool accepts the boolean spellings GitHub Actions accepts for inputs.
// Empty is false.
func ParseBool(name, v string) (bool, error) {
	switch strings.TrimSpace(v) {
	case "":
		return false, nil
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s must be one of true|True|TRUE|false|False|FALSE, got %q", ErrInvalidBoolean, name, v)
	}
}

// ParseAdditionalConclusions decodes a JSON array of {name, conclusion}.
// Blank input yields nil. A JSON null, or a null element, is rejected; a null
// or missing conclusion inside an object decodes as "".
func ParseAdditionalConclusions(raw string) ([]types.AdditionalConclusion, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var records []*types.AdditionalConclusion
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAdditional, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: expected a JSON array, got %s", ErrInvalidAdditional, strings.TrimSpace(raw))
	}

	out := make([]types.AdditionalConclusion, len(records))
	for i, r := range records {
		if r == nil {
			return nil, fmt.Errorf("%w: element %d is null, expected an object", ErrInvalidAdditional, i)
		}
		out[i] = *r
	}
	return out, nil
}

func inputSinks(in inputs) []types.SinkConfig {
	var sinks []types.SinkConfig
	if u := strings.TrimSpace(in.NotifyWebhookURL); u != "" {
		sinks = append(sinks, types.SinkConfig{Type: types.SinkWebhook, URL: u})
	}
	if p := strings.TrimSpace(in.NotifyFile); p != "" {
		sinks = append(sinks, types.SinkConfig{Type: types.SinkFile, Path: p})
	}
	if b := strings.TrimSpace(in.NotifyEventBus); b != "" {
		sinks = append(sinks, types.SinkConfig{Type: types.SinkEventBridge, BusName: b})
	}
	if q := strings.TrimSpace(in.NotifyQueueURL); q != "" {
		sinks = append(sinks, types.SinkConfig{Type: types.SinkSQS, QueueURL: q})
	}
	return sinks
}

func validateSink(s types.SinkConfig) error {
	switch s.Type {
	case types.SinkLog:
		return nil
	case types.SinkWebhook:
		if s.URL == "" {
			return errors.New("webhook sink requires url")
		}
	case types.SinkFile:
		if s.Path == "" {
			return errors.New("file sink requires path")
		}
	case types.SinkEventBridge:
		if s.BusName == "" {
			return errors.New("eventbridge sink requires busName")
		}
	case types.SinkSQS:
		if s.QueueURL == "" {
			return errors.New("sqs sink requires queueUrl")
		}
	default:
		return fmt.Errorf("unknown sink type %q", s.Type)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
