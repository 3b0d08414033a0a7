package config

import "time"

// CLIConfig is the configuration for zkmesh-cli.
type CLIConfig struct {
	DefaultOutput  string        `yaml:"default_output"` // table, json, yaml
	DefaultTimeout time.Duration `yaml:"default_timeout"`

	// CurrentProfile is used when --profile is not given.
	CurrentProfile string             `yaml:"current_profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles,omitempty"`
}

// Profile is a saved ensemble.
type Profile struct {
	Servers []string `yaml:"servers"`
	// Auth holds digest credentials as user:password.
	Auth string `yaml:"auth,omitempty"`
}

// Default connection values.
const (
	DefaultServer  = "127.0.0.1:2181"
	DefaultOutput  = "table"
	DefaultTimeout = 10 * time.Second
)

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultOutput:  DefaultOutput,
		DefaultTimeout: DefaultTimeout,
		Profiles:       make(map[string]Profile),
	}
}

// Profile returns the named profile, or the current one when name is empty.
func (c *CLIConfig) Profile(name string) (Profile, bool) {
	if name == "" {
		name = c.CurrentProfile
	}
	if name == "" {
		return Profile{}, false
	}
	p, ok := c.Profiles[name]
	return p, ok
}
