package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents configuration data for the babysitter.
type Config struct {
	IntervalSeconds     int    `yaml:"interval_seconds"`
	CheckTimeoutSeconds int    `yaml:"check_timeout_seconds"`
	Concurrency         int    `yaml:"concurrency"`
	DataDirectory       string `yaml:"data_directory"`
	StartupEmail        bool   `yaml:"startup_email"`

	Email     Email     `yaml:"email"`
	Heartbeat Heartbeat `yaml:"heartbeat"`
	Server    Server    `yaml:"server"`

	DiskSpace []DiskSpaceTarget `yaml:"disk_space"`
	Processes []ProcessTarget   `yaml:"processes"`
	Files     []FileTarget      `yaml:"files"`
	FileGrows []FileGrowsTarget `yaml:"file_grows"`
}

// Email holds SMTP delivery settings. An empty server disables email.
type Email struct {
	SMTPServer string   `yaml:"smtp_server"`
	From       string   `yaml:"from"`
	To         []string `yaml:"to"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
}

// Enabled reports whether email delivery is configured.
func (e Email) Enabled() bool { return e.SMTPServer != "" }

// Heartbeat configures the daily "still alive" email.
type Heartbeat struct {
	Enabled bool `yaml:"enabled"`
	Hour    int  `yaml:"hour"`
}

// Server configures the optional status HTTP server.
type Server struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DiskSpaceTarget watches free space on one filesystem.
type DiskSpaceTarget struct {
	Name        string `yaml:"name"`
	Path        string `yaml:"path"`
	ThresholdMB int64  `yaml:"threshold_mb"`
}

// ProcessTarget watches a process by name, optionally restarting it.
type ProcessTarget struct {
	Name                   string `yaml:"name"`
	Process                string `yaml:"process"`
	RestartCommand         string `yaml:"restart_command"`
	RestartCooldownSeconds int    `yaml:"restart_cooldown_seconds"`
}

// RestartArgv splits the restart command into argv form. Empty when the
// target is notify-only.
func (p ProcessTarget) RestartArgv() []string {
	return strings.Fields(p.RestartCommand)
}

// FileTarget watches a file's modification time.
type FileTarget struct {
	Name          string `yaml:"name"`
	Path          string `yaml:"path"`
	MaxAgeSeconds int    `yaml:"max_age_seconds"`
}

// FileGrowsTarget watches an error log that should stay silent.
type FileGrowsTarget struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// DefaultConfig returns sensible defaults in case no configuration file is
// provided: watch the root filesystem every 10 seconds, no email.
func DefaultConfig() Config {
	return Config{
		IntervalSeconds:     10,
		CheckTimeoutSeconds: 15,
		Concurrency:         1,
		DataDirectory:       filepath.Join(".", "data"),
		Heartbeat:           Heartbeat{Hour: 6},
		Server:              Server{Addr: ":8080"},
		DiskSpace: []DiskSpaceTarget{
			{Name: "disk:/", Path: "/", ThresholdMB: 200},
		},
	}
}

// Load reads configuration from a yaml file. A missing file falls back to
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	cfg.DiskSpace = nil
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 10
	}
	if c.CheckTimeoutSeconds <= 0 {
		c.CheckTimeoutSeconds = 15
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.DataDirectory == "" {
		c.DataDirectory = DefaultConfig().DataDirectory
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Heartbeat.Hour < 0 || c.Heartbeat.Hour > 23 {
		return fmt.Errorf("heartbeat hour %d out of range", c.Heartbeat.Hour)
	}
	if c.Email.Enabled() {
		if c.Email.From == "" || len(c.Email.To) == 0 {
			return errors.New("email requires from and at least one to address")
		}
	}

	for i := range c.DiskSpace {
		t := &c.DiskSpace[i]
		if t.Path == "" {
			return fmt.Errorf("disk_space %d is missing path", i)
		}
		if t.ThresholdMB <= 0 {
			return fmt.Errorf("disk_space %s requires a positive threshold_mb", t.Path)
		}
		if t.Name == "" {
			t.Name = "disk:" + t.Path
		}
	}
	for i := range c.Processes {
		t := &c.Processes[i]
		if t.Process == "" {
			return fmt.Errorf("process %d is missing process name", i)
		}
		if t.RestartCooldownSeconds <= 0 {
			t.RestartCooldownSeconds = 300
		}
		if t.Name == "" {
			t.Name = "proc:" + t.Process
		}
	}
	for i := range c.Files {
		t := &c.Files[i]
		if t.Path == "" {
			return fmt.Errorf("file %d is missing path", i)
		}
		if t.MaxAgeSeconds <= 0 {
			return fmt.Errorf("file %s requires a positive max_age_seconds", t.Path)
		}
		if t.Name == "" {
			t.Name = "file:" + t.Path
		}
	}
	for i := range c.FileGrows {
		t := &c.FileGrows[i]
		if t.Path == "" {
			return fmt.Errorf("file_grows %d is missing path", i)
		}
		if t.Name == "" {
			t.Name = "grows:" + t.Path
		}
	}

	if len(c.DiskSpace)+len(c.Processes)+len(c.Files)+len(c.FileGrows) == 0 {
		return errors.New("configuration must define at least one target")
	}

	seen := make(map[string]bool)
	for _, name := range c.targetNames() {
		if seen[name] {
			return fmt.Errorf("duplicate target name %q", name)
		}
		seen[name] = true
	}
	return nil
}

func (c *Config) targetNames() []string {
	var names []string
	for _, t := range c.DiskSpace {
		names = append(names, t.Name)
	}
	for _, t := range c.Processes {
		names = append(names, t.Name)
	}
	for _, t := range c.Files {
		names = append(names, t.Name)
	}
	for _, t := range c.FileGrows {
		names = append(names, t.Name)
	}
	return names
}
