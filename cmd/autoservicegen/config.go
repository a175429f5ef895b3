package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "autoservice.yaml"
	defaultOutput     = "autoservice.gen.go"
	defaultPrefix     = "I"
)

// Config is the generator manifest. It lists the packages to process
// explicitly, so what ends up registered never depends on what happens to be
// linked into a binary.
//
//	output: autoservice.gen.go
//	prefix: I
//	packages:
//	  - ./internal/widgets
//	  - ./internal/store
type Config struct {
	// Output is the file name written into each package directory.
	Output string `yaml:"output"`

	// Prefix is prepended to a type name to find its conventional interface.
	Prefix string `yaml:"prefix"`

	// Packages are directories, relative to the manifest.
	Packages []string `yaml:"packages"`
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Output) == "" {
		c.Output = defaultOutput
	}
	if strings.TrimSpace(c.Prefix) == "" {
		c.Prefix = defaultPrefix
	}
}

func (c *Config) validate() error {
	if filepath.Base(c.Output) != c.Output || !strings.HasSuffix(c.Output, ".go") || strings.HasSuffix(c.Output, "_test.go") {
		return &cmdError{msg: "output must be a plain non-test .go file name, got " + c.Output}
	}
	for i, p := range c.Packages {
		if strings.TrimSpace(p) == "" {
			return &cmdError{msg: "packages[" + strconv.Itoa(i) + "] is empty"}
		}
	}
	return nil
}

// loadConfig reads the manifest at path. Package directories are resolved
// relative to the manifest's directory.
func loadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &cmdError{msg: "parse " + filepath.ToSlash(path) + ": " + err.Error()}
	}

	base := filepath.Dir(path)
	for i, p := range cfg.Packages {
		if strings.TrimSpace(p) != "" && !filepath.IsAbs(p) {
			cfg.Packages[i] = filepath.Join(base, p)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
