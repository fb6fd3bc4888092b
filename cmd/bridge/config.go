package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/wippyai/webbridge/webview"
)

// Config is the bridge.toml file.
type Config struct {
	Page PageConfig   `toml:"page"`
	Bind []BindConfig `toml:"bind"`
	Log  LogConfig    `toml:"log"`

	// Dir is the directory containing the config file (set at load time).
	Dir string `toml:"-"`
}

// PageConfig selects the document and how messages reach the channels.
type PageConfig struct {
	Path     string `toml:"path"`
	Encoding string `toml:"encoding"`
	Timeout  string `toml:"timeout"`
}

// BindConfig binds one object. Exactly one of Object or Wasm is set.
type BindConfig struct {
	Object    string `toml:"object"`
	Wasm      string `toml:"wasm"`
	Namespace string `toml:"namespace"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// LoadConfig parses a config file. Relative paths in it resolve against
// the file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	if c.Page.Path != "" {
		c.Page.Path = c.resolve(c.Page.Path)
	}
	for i := range c.Bind {
		if c.Bind[i].Wasm != "" {
			c.Bind[i].Wasm = c.resolve(c.Bind[i].Wasm)
		}
	}
	return &c, c.Validate()
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Validate checks bind entries and enumerated values.
func (c *Config) Validate() error {
	for i, b := range c.Bind {
		if (b.Object == "") == (b.Wasm == "") {
			return fmt.Errorf("bind %d: exactly one of object or wasm is required", i)
		}
		if b.Namespace == "" {
			return fmt.Errorf("bind %d: namespace is required", i)
		}
		if b.Object != "" {
			if _, ok := demos[b.Object]; !ok {
				return fmt.Errorf("bind %d: unknown object %q", i, b.Object)
			}
		}
	}
	if _, err := c.Encoding(); err != nil {
		return err
	}
	if c.Log.Level != "" {
		if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
	}
	return nil
}

// Encoding returns the configured message encoding.
func (c *Config) Encoding() (webview.Encoding, error) {
	switch strings.ToLower(c.Page.Encoding) {
	case "", "value":
		return webview.EncodingValue, nil
	case "json":
		return webview.EncodingJSON, nil
	case "cbor":
		return webview.EncodingCBOR, nil
	}
	return 0, fmt.Errorf("unknown encoding %q", c.Page.Encoding)
}

// Logger builds the logger described by the log table.
func (c *Config) Logger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if c.Log.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	if c.Log.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Log.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = level
	}
	return cfg.Build()
}

// parseBinding parses a name=namespace flag value.
func parseBinding(s string) (string, string, error) {
	name, ns, ok := strings.Cut(s, "=")
	if !ok || name == "" || ns == "" {
		return "", "", fmt.Errorf("invalid binding %q, want name=namespace", s)
	}
	return name, ns, nil
}

// bindList collects repeated -bind and -wasm flags.
type bindList struct {
	entries *[]BindConfig
	wasm    bool
}

func (l bindList) String() string {
	if l.entries == nil {
		return ""
	}
	var parts []string
	for _, b := range *l.entries {
		if (b.Wasm != "") == l.wasm {
			parts = append(parts, b.Object+b.Wasm+"="+b.Namespace)
		}
	}
	return strings.Join(parts, ",")
}

func (l bindList) Set(s string) error {
	name, ns, err := parseBinding(s)
	if err != nil {
		return err
	}
	b := BindConfig{Namespace: ns}
	if l.wasm {
		b.Wasm = name
	} else {
		b.Object = name
	}
	*l.entries = append(*l.entries, b)
	return nil
}
