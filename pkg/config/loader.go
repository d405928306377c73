package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/mockforce/pkg/sobject"
	"github.com/getmockd/mockforce/pkg/virtual"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrNoConfig         = errors.New("no config found")
)

// EnvConfig names the environment variable pointing at a config file.
const EnvConfig = "MOCKFORCE_CONFIG"

// DiscoveryOrder lists the file names tried in the working directory when
// no config path is given.
var DiscoveryOrder = []string{
	"mockforce.yaml",
	"mockforce.yml",
	"mockforce.json",
	".mockforce.yaml",
}

// Load reads, expands and validates a config file. The format is chosen by
// extension (.json for JSON, YAML otherwise). Relative paths inside the file
// resolve against its directory.
func Load(path string) (*Config, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data, formatOf(path), path)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes and validates config bytes. name is used in error messages.
func Parse(data []byte, format Format, name string) (*Config, error) {
	expanded := []byte(ExpandEnvVars(string(data)))

	var doc interface{}
	if err := decode(expanded, format, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	if err := configSchema.validate(name, doc); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := decode(expanded, format, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}

// Discover returns the config path named by MOCKFORCE_CONFIG, or the first
// entry of DiscoveryOrder present in dir. It returns ErrNoConfig when
// neither exists.
func Discover(dir string) (string, error) {
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%s points to non-existent file: %s", EnvConfig, envPath)
	}
	for _, name := range DiscoveryOrder {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNoConfig
}

// LoadRelations reads a relations override file mapping relationship
// aliases to sObject type names. An empty path yields an empty map.
func LoadRelations(path string) (virtual.RelationsMap, error) {
	if path == "" {
		return virtual.RelationsMap{}, nil
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := decode(data, formatOf(path), &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc == nil {
		return virtual.RelationsMap{}, nil
	}
	if err := relationsSchema.validate(path, doc); err != nil {
		return nil, err
	}

	relations := virtual.RelationsMap{}
	if err := decode(data, formatOf(path), &relations); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return relations, nil
}

// LoadRelations reads the relations file named by the config.
func (c *Config) LoadRelations() (virtual.RelationsMap, error) {
	return LoadRelations(c.RelationsPath())
}

// SeedFiles expands the config's seed entries into file paths. Each entry
// is a file or a glob resolved against the config directory; matches of one
// pattern are sorted, and a file matched twice is kept once.
func (c *Config) SeedFiles() ([]string, error) {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, pattern := range c.Seed {
		matches, err := c.seedMatches(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// UnmatchedSeeds returns the seed globs that match no file. Plain paths are
// never reported; a missing file fails LoadSeeds instead.
func (c *Config) UnmatchedSeeds() ([]string, error) {
	var out []string
	for _, pattern := range c.Seed {
		matches, err := c.seedMatches(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			out = append(out, pattern)
		}
	}
	return out, nil
}

func (c *Config) seedMatches(pattern string) ([]string, error) {
	resolved := ResolvePath(c.baseDir, pattern)
	if !hasMeta(resolved) {
		return []string{resolved}, nil
	}
	matches, err := expandGlob(resolved)
	if err != nil {
		return nil, fmt.Errorf("expanding seed pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// LoadSeeds reads every seed file in order.
func (c *Config) LoadSeeds() ([]sobject.SeedSet, error) {
	files, err := c.SeedFiles()
	if err != nil {
		return nil, err
	}
	var out []sobject.SeedSet
	for _, file := range files {
		sets, err := LoadSeedFile(file)
		if err != nil {
			return nil, err
		}
		out = append(out, sets...)
	}
	return out, nil
}

// LoadSeedFile reads one seed file: a mapping from sObject type name to a
// list of records, in YAML or JSON.
func LoadSeedFile(path string) ([]sobject.SeedSet, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	sets, err := sobject.DecodeSeedYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sets, nil
}

// Format is a config document encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

func decode(data []byte, format Format, v interface{}) error {
	if format == FormatJSON {
		if !json.Valid(data) {
			return ErrInvalidJSON
		}
		return json.Unmarshal(data, v)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// expandGlob expands a glob pattern to a list of matching file paths.
// Uses doublestar for ** and {a,b} support, falls back to filepath.Glob for
// simple patterns.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") || strings.Contains(pattern, "{") {
		// FilepathGlob returns matches using the OS path separator
		return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	}
	return filepath.Glob(pattern)
}
