package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Merge policies for publishing. Replace overwrites the artifact with the
// fresh run only; combine folds the previous artifact in behind the fresh
// records so items that fell out of an upstream's window survive.
const (
	MergeReplace = "replace"
	MergeCombine = "combine"
)

const (
	DefaultOutput  = "news.json"
	DefaultTimeout = 10 * time.Second
)

// Duration wraps time.Duration so TOML values like "10s" or "1m30s" decode.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// CailianConfig configures the wire service source.
type CailianConfig struct {
	Disabled bool   `toml:"disabled"`
	BaseURL  string `toml:"base_url"`
	Limit    int    `toml:"limit"`
}

// SinaConfig configures the market news feed source.
type SinaConfig struct {
	Disabled bool   `toml:"disabled"`
	FeedURL  string `toml:"feed_url"`
	Limit    int    `toml:"limit"`
}

// CninfoConfig configures the disclosure registry source.
type CninfoConfig struct {
	Disabled bool   `toml:"disabled"`
	Endpoint string `toml:"endpoint"`
	PageSize int    `toml:"page_size"`
	Limit    int    `toml:"limit"`
}

// XueqiuConfig configures the investor community source. The session token
// never comes from the file: the config is meant to be committed, so the
// token only arrives through the flag or environment.
type XueqiuConfig struct {
	Disabled bool   `toml:"disabled"`
	Endpoint string `toml:"endpoint"`
	Symbol   string `toml:"symbol"`
	Count    int    `toml:"count"`
	Limit    int    `toml:"limit"`
	Token    string `toml:"-"`
}

// Config is the resolved runtime configuration: compiled-in defaults, then
// the TOML file, then flag and environment overrides applied by the CLI.
type Config struct {
	Output   string   `toml:"output"`
	Timeout  Duration `toml:"timeout"`
	Merge    string   `toml:"merge"`
	MaxItems int      `toml:"max_items"`
	Proxy    string   `toml:"proxy"`

	Cailian CailianConfig `toml:"cailian"`
	Sina    SinaConfig    `toml:"sina"`
	Cninfo  CninfoConfig  `toml:"cninfo"`
	Xueqiu  XueqiuConfig  `toml:"xueqiu"`
}

// Default returns the compiled-in configuration. Every knob has a working
// value so the binary runs with no config file at all.
func Default() *Config {
	return &Config{
		Output:  DefaultOutput,
		Timeout: Duration{Duration: DefaultTimeout},
		Merge:   MergeReplace,
		Cailian: CailianConfig{
			BaseURL: "https://www.cls.cn/nodeapi",
			Limit:   40,
		},
		Sina: SinaConfig{
			FeedURL: "https://rss.sina.com.cn/news/finance/bizfocus15.xml",
			Limit:   40,
		},
		Cninfo: CninfoConfig{
			Endpoint: "https://www.cninfo.com.cn/new/disclosure/stock",
			PageSize: 30,
			Limit:    60,
		},
		Xueqiu: XueqiuConfig{
			Endpoint: "https://stock.xueqiu.com/v5/stock/news/list.json",
			Symbol:   "SH000001",
			Count:    30,
			Limit:    30,
		},
	}
}

// LoadConfig reads a TOML config file and applies it over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

// Load behaves like LoadConfig but treats a missing file as "use defaults".
// The CLI uses it for the default config location, where absence is normal.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return LoadConfig(path)
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Output == "" {
		return errors.New("output path must not be empty")
	}
	if c.Timeout.Duration <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Merge != MergeReplace && c.Merge != MergeCombine {
		return fmt.Errorf("unknown merge policy %q, want %q or %q", c.Merge, MergeReplace, MergeCombine)
	}
	if c.MaxItems < 0 {
		return errors.New("max_items must not be negative")
	}
	return nil
}
