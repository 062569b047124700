// Package config holds the settings of an export run.
//
// Values are resolved by viper from, highest priority first: command-line
// flags, UIUCAL_* environment variables, the YAML config file and the
// defaults below.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/uiucal/uiucal/internal/calendar"
	"github.com/uiucal/uiucal/internal/event"
	"github.com/uiucal/uiucal/internal/scraper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultURL       = scraper.DefaultURL
	DefaultOutputDir = "csvs"
	DefaultUserAgent = scraper.DefaultUserAgent
	DefaultProductID = calendar.DefaultProductID
	DefaultTimezone  = calendar.DefaultTimezone
	EnvPrefix        = "UIUCAL"
)

// Config is the configuration of one export run.
type Config struct {
	// URL is the academic calendar page to scrape.
	URL string `yaml:"url"`
	// OutputDir receives one .csv and one .ics file per heading.
	OutputDir string `yaml:"output_dir"`

	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	// RespectRobots checks robots.txt before fetching the page.
	RespectRobots bool `yaml:"respect_robots"`
	// MinInterval is the minimum gap between two requests to the site.
	MinInterval time.Duration `yaml:"min_interval"`
	// Retries is how many times a failed fetch is retried.
	Retries int `yaml:"retries"`

	ProductID string `yaml:"product_id"`
	Timezone  string `yaml:"timezone"`

	// Groups, when set, limits the export to headings containing one of
	// these substrings (case-insensitive).
	Groups []string `yaml:"groups"`
	// Sort orders records inside each group: "" (page order), "date" or "title".
	Sort string `yaml:"sort"`

	DryRun   bool   `yaml:"dry_run"`
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		URL:           DefaultURL,
		OutputDir:     DefaultOutputDir,
		UserAgent:     DefaultUserAgent,
		Timeout:       scraper.DefaultTimeout,
		RespectRobots: true,
		MinInterval:   time.Second,
		Retries:       2,
		ProductID:     DefaultProductID,
		Timezone:      DefaultTimezone,
		Groups:        []string{},
		LogLevel:      "info",
	}
}

// SetDefaults registers DefaultConfig with v and enables UIUCAL_* overrides.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("url", d.URL)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("respect_robots", d.RespectRobots)
	v.SetDefault("min_interval", d.MinInterval)
	v.SetDefault("retries", d.Retries)
	v.SetDefault("product_id", d.ProductID)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("groups", d.Groups)
	v.SetDefault("sort", d.Sort)
	v.SetDefault("dry_run", d.DryRun)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load builds a Config from v. Call SetDefaults on v first.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		URL:           v.GetString("url"),
		OutputDir:     v.GetString("output_dir"),
		UserAgent:     v.GetString("user_agent"),
		Timeout:       v.GetDuration("timeout"),
		RespectRobots: v.GetBool("respect_robots"),
		MinInterval:   v.GetDuration("min_interval"),
		Retries:       v.GetInt("retries"),
		ProductID:     v.GetString("product_id"),
		Timezone:      v.GetString("timezone"),
		Groups:        v.GetStringSlice("groups"),
		Sort:          v.GetString("sort"),
		DryRun:        v.GetBool("dry_run"),
		LogLevel:      v.GetString("log_level"),
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize fills zero values with defaults so partial config files work.
func (c *Config) Normalize() {
	d := DefaultConfig()
	c.URL = strings.TrimSpace(c.URL)
	if c.URL == "" {
		c.URL = d.URL
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MinInterval < 0 {
		c.MinInterval = 0
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.ProductID == "" {
		c.ProductID = d.ProductID
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.Groups == nil {
		c.Groups = []string{}
	}
	c.Sort = strings.ToLower(strings.TrimSpace(c.Sort))
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate rejects settings that cannot produce a run.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("invalid url: %q (must start with http:// or https://)", c.URL)
	}
	if _, err := event.ParseSortOrder(c.Sort); err != nil {
		return err
	}
	return nil
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
