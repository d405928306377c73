package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is the mockforce configuration file.
type Config struct {
	// Relations is the path of the relations override file, if any.
	Relations string `yaml:"relations,omitempty" json:"relations,omitempty"`

	// Seed lists seed files or glob patterns (** supported).
	Seed StringList `yaml:"seed,omitempty" json:"seed,omitempty"`

	// Log configures the logger.
	Log LogConfig `yaml:"log,omitempty" json:"log,omitempty"`

	// baseDir is the directory relative paths resolve against.
	baseDir string
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// DefaultConfig returns a config with no relations, no seed files and
// info-level text logging, rooted at the current directory.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// BaseDir returns the directory relative paths resolve against: the
// directory of the loaded file, or "" for the working directory.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// RelationsPath returns the resolved relations file path, or "".
func (c *Config) RelationsPath() string {
	if c.Relations == "" {
		return ""
	}
	return ResolvePath(c.baseDir, c.Relations)
}

// StringList accepts either a single string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = StringList{s}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	*l = items
	return nil
}
