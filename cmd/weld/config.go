package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configuration file names looked up in the working directory.
// weld.properties values override weld.yaml values.
const (
	yamlName  = "weld.yaml"
	propsName = "weld.properties"
)

// Config is the build configuration for one weld invocation.
type Config struct {
	// Sources lists the source tree roots to scan.
	Sources []string `yaml:"sources"`

	// Target is the generated-sources root directory.
	Target string `yaml:"target"`

	// TrackSourceFiles gates incremental source tracking. Defaults to
	// enabled; nil means unset.
	TrackSourceFiles *bool `yaml:"trackSourceFiles"`

	// MaxPasses bounds chained generation passes per round.
	MaxPasses int `yaml:"maxPasses"`

	// Workers limits parallel generator invocation.
	Workers int `yaml:"workers"`
}

// loadConfig reads the configuration files under dir. Missing files are
// not an error; defaults apply to anything left unset.
func loadConfig(dir string) (*Config, error) {
	cfg := &Config{}
	if data, err := os.ReadFile(filepath.Join(dir, yamlName)); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("weld: parsing %s: %w", yamlName, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	if data, err := os.ReadFile(filepath.Join(dir, propsName)); err == nil {
		if err := cfg.applyProperties(string(data)); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyProperties overlays java-style weld.properties entries. Unknown
// keys are ignored for forward compatibility; malformed values fail.
func (c *Config) applyProperties(content string) error {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("weld: malformed %s line %q", propsName, line)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case "weld.sources":
			c.Sources = splitList(value)
		case "weld.target":
			c.Target = value
		case "weld.trackSourceFiles":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("weld: %s: %s: %w", propsName, key, err)
			}
			c.TrackSourceFiles = &b
		case "weld.maxPasses":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("weld: %s: %s: %w", propsName, key, err)
			}
			c.MaxPasses = n
		case "weld.workers":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("weld: %s: %s: %w", propsName, key, err)
			}
			c.Workers = n
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Sources) == 0 {
		c.Sources = []string{"."}
	}
	// Generated files default to landing next to their source packages,
	// so generated code shares the package of the types it wires.
	if c.Target == "" {
		c.Target = "."
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
}

// tracking reports whether incremental source tracking is enabled.
func (c *Config) tracking() bool {
	return c.TrackSourceFiles == nil || *c.TrackSourceFiles
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
