// Package config loads settings from defaults, an optional YAML file, and
// PROBEWATCH_-prefixed environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/netsight-labs/probewatch/devicecheck"
)

const envPrefix = "PROBEWATCH_"

// Config is the full application configuration.
type Config struct {
	API     API                  `koanf:"api"`
	Test    Test                 `koanf:"test"`
	Report  Report               `koanf:"report"`
	Log     Log                  `koanf:"log"`
	Check   Check                `koanf:"check"`
	Devices []devicecheck.Device `koanf:"devices"`
}

// API configures the provider API client.
type API struct {
	Token             string        `koanf:"token"`
	BaseURL           string        `koanf:"baseurl"`
	Timeout           time.Duration `koanf:"timeout"`
	ResetHeader       string        `koanf:"resetheader"`
	FallbackWait      time.Duration `koanf:"fallbackwait"`
	MaxAttempts       int           `koanf:"maxattempts"`
	InitialInterval   time.Duration `koanf:"initialinterval"`
	MaxInterval       time.Duration `koanf:"maxinterval"`
	RequestsPerSecond float64       `koanf:"requestspersecond"`
	Burst             int           `koanf:"burst"`
}

// Test configures the synthetic test to ensure and read.
type Test struct {
	Name               string        `koanf:"name"`
	Target             string        `koanf:"target"`
	Interval           int           `koanf:"interval"`
	WaitForFirstResult time.Duration `koanf:"waitforfirstresult"`
}

// Report configures where result files are written.
type Report struct {
	Dir string `koanf:"dir"`
}

// Log configures console and file logging.
type Log struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
	Dir    string `koanf:"dir"`
}

// Check configures the device validation suite.
type Check struct {
	ACL         string `koanf:"acl"`
	Concurrency int    `koanf:"concurrency"`
}

func defaults() map[string]any {
	return map[string]any{
		"api.baseurl":           "https://api.thousandeyes.com/v7",
		"api.timeout":           "30s",
		"api.resetheader":       "Retry-After",
		"api.fallbackwait":      "60s",
		"api.maxattempts":       3,
		"api.initialinterval":   "1s",
		"api.maxinterval":       "30s",
		"api.requestspersecond": 0,
		"api.burst":             1,

		"test.interval":           3600,
		"test.waitforfirstresult": "90s",

		"report.dir": ".",

		"log.level":  "info",
		"log.pretty": true,
		"log.dir":    ".",

		"check.concurrency": 4,
	}
}

// Load reads configuration, layering an optional YAML file at path (empty
// means "config.yaml" if present) and environment overrides on top of
// defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	required := path != ""
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", path, err)
		}
	} else if required {
		return nil, fmt.Errorf("config: loading %s: %w", path, err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, envPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	return &cfg, nil
}

// ValidateMonitor checks the settings the monitoring run requires.
func (c *Config) ValidateMonitor() error {
	var problems []string
	if c.API.Token == "" {
		problems = append(problems, "api.token is required (PROBEWATCH_API_TOKEN)")
	}
	if c.Test.Name == "" {
		problems = append(problems, "test.name is required (PROBEWATCH_TEST_NAME)")
	}
	if c.Test.Target == "" {
		problems = append(problems, "test.target is required (PROBEWATCH_TEST_TARGET)")
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateDevices checks the settings the device check suite requires.
func (c *Config) ValidateDevices() error {
	if len(c.Devices) == 0 {
		return errors.New("config: no devices configured")
	}
	for i, d := range c.Devices {
		if d.Host == "" {
			return fmt.Errorf("config: devices[%d] (%s) has no host", i, d.Name)
		}
		if d.Username == "" {
			return fmt.Errorf("config: devices[%d] (%s) has no username", i, d.Name)
		}
	}
	return nil
}
