package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DateLayout = "2006-01-02"

	defaultOutputDir         = "reports"
	defaultFormat            = "md"
	defaultRequestsPerMinute = 150
	defaultSubject           = "{workspace} report from {date}"
)

var (
	ErrInvalidDate  = errors.New("invalid date format")
	ErrMissingToken = errors.New("ASANA_TOKEN is not set")
)

type Config struct {
	Asana  AsanaConfig  `yaml:"asana" toml:"asana"`
	Email  EmailConfig  `yaml:"email" toml:"email"`
	Output OutputConfig `yaml:"output" toml:"output"`
	Quiet  bool         `yaml:"quiet" toml:"quiet"`
}

type AsanaConfig struct {
	Token             string `yaml:"-" toml:"-"`
	Workspace         string `yaml:"workspace" toml:"workspace"`
	BaseURL           string `yaml:"base_url" toml:"base_url"`
	RequestsPerMinute int    `yaml:"requests_per_minute" toml:"requests_per_minute"`
}

type EmailConfig struct {
	APIKey  string   `yaml:"-" toml:"-"`
	From    string   `yaml:"from" toml:"from"`
	To      []string `yaml:"to" toml:"to"`
	CC      []string `yaml:"cc" toml:"cc"`
	Subject string   `yaml:"subject" toml:"subject"`
}

type OutputConfig struct {
	Directory string `yaml:"directory" toml:"directory"`
	Format    string `yaml:"format" toml:"format"` // md, html, json, csv, xlsx
}

func Default() *Config {
	return &Config{
		Asana: AsanaConfig{
			RequestsPerMinute: defaultRequestsPerMinute,
		},
		Email: EmailConfig{
			Subject: defaultSubject,
		},
		Output: OutputConfig{
			Directory: defaultOutputDir,
			Format:    defaultFormat,
		},
	}
}

// Load layers defaults, the optional config file and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile merges a YAML or TOML file, chosen by extension, into c.
func (c *Config) LoadFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, c); err != nil {
			return fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file %s (use .yaml, .yml or .toml)", path)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Asana.Token = getEnvOrDefault("ASANA_TOKEN", c.Asana.Token)
	c.Asana.Workspace = getEnvOrDefault("ASANA_WORKSPACE", c.Asana.Workspace)
	c.Asana.BaseURL = getEnvOrDefault("ASANA_BASE_URL", c.Asana.BaseURL)
	if v := os.Getenv("ASANA_REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Asana.RequestsPerMinute = n
		}
	}

	c.Email.APIKey = getEnvOrDefault("SENDGRID_KEY", c.Email.APIKey)
	c.Email.From = getEnvOrDefault("OWNER_EMAIL", c.Email.From)
	if v := os.Getenv("KATHANA_TO"); v != "" {
		c.Email.To = SplitList(v)
	}
	if v := os.Getenv("KATHANA_CC"); v != "" {
		c.Email.CC = SplitList(v)
	}

	c.Output.Directory = getEnvOrDefault("KATHANA_OUTPUT_DIR", c.Output.Directory)
	c.Output.Format = getEnvOrDefault("KATHANA_FORMAT", c.Output.Format)
}

// Validate checks what every run needs before talking to Asana.
func (c *Config) Validate() error {
	if c.Asana.Token == "" {
		return ErrMissingToken
	}
	if strings.TrimSpace(c.Asana.Workspace) == "" {
		return fmt.Errorf("no workspace configured (set ASANA_WORKSPACE or --workspace)")
	}
	return nil
}

// ValidateEmail checks the extra settings needed to send the report.
func (c *Config) ValidateEmail() error {
	if c.Email.APIKey == "" {
		return fmt.Errorf("SENDGRID_KEY is not set")
	}
	if c.Email.From == "" {
		return fmt.Errorf("no sender configured (set OWNER_EMAIL)")
	}
	if len(c.Email.To) == 0 {
		return fmt.Errorf("no recipients configured (set KATHANA_TO or --to)")
	}
	return nil
}

// SubjectFor expands the {workspace} and {date} placeholders.
func (e EmailConfig) SubjectFor(workspace, date string) string {
	subject := e.Subject
	if subject == "" {
		subject = defaultSubject
	}
	return strings.NewReplacer("{workspace}", workspace, "{date}", date).Replace(subject)
}

// ResolveStartDate validates an ISO 8601 date, defaulting to the Monday of
// the week containing now.
func ResolveStartDate(value string, now time.Time) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return LastMonday(now).Format(DateLayout), nil
	}

	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidDate, value)
	}
	return d.Format(DateLayout), nil
}

func LastMonday(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
}

// SplitList splits a comma-separated value and drops empty entries.
func SplitList(input string) []string {
	result := []string{}
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
