// Package config loads the nativectl TOML file and turns it into the
// settings of one discovery run.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/protocol/noise"
	"github.com/danmuck/nativectl/internal/protocol/session"
)

// Dashboard languages.
const (
	LangJS = "js"
	LangTS = "ts"
)

// Config is one discovery run.
type Config struct {
	Host           string
	Port           int
	Key            string
	Password       string
	ClientInfo     string
	ConnectTimeout time.Duration
	Attempts       int
	RetryDelay     time.Duration
	RetryMaxDelay  time.Duration

	Test          bool
	Timed         bool
	ProbeTimeout  time.Duration
	DashboardDir  string
	DashboardLang string
	MetricsFile   string
}

type fileConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	Key            string `toml:"key"`
	Password       string `toml:"password"`
	ClientInfo     string `toml:"client_info"`
	ConnectTimeout string `toml:"connect_timeout"`
	Attempts       int    `toml:"attempts"`
	RetryDelay     string `toml:"retry_delay"`
	RetryMaxDelay  string `toml:"retry_max_delay"`

	Probe struct {
		Enabled bool   `toml:"enabled"`
		Timeout string `toml:"timeout"`
	} `toml:"probe"`
	Dashboard struct {
		Dir  string `toml:"dir"`
		Lang string `toml:"lang"`
	} `toml:"dashboard"`
	Metrics struct {
		File string `toml:"file"`
	} `toml:"metrics"`
}

// Default returns the settings used when neither file nor flags say otherwise.
func Default() Config {
	sc := session.DefaultConfig()
	return Config{
		Port:           session.DefaultPort,
		ClientInfo:     sc.ClientInfo,
		ConnectTimeout: sc.ConnectTimeout,
		Attempts:       1,
		RetryDelay:     sc.Backoff.InitialDelay,
		RetryMaxDelay:  sc.Backoff.MaxDelay,
		ProbeTimeout:   5 * time.Second,
		DashboardLang:  LangJS,
	}
}

// LoadFile overlays the keys present in path onto Default.
func LoadFile(path string) (Config, error) {
	return Overlay(Default(), path)
}

// Overlay applies only the keys defined in path to cfg.
func Overlay(cfg Config, path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("%w: load config %s: %v", protocol.ErrConfiguration, path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: config %s: unknown key %q", protocol.ErrConfiguration, path, undecoded[0].String())
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("key") {
		cfg.Key = strings.TrimSpace(raw.Key)
	}
	if meta.IsDefined("password") {
		cfg.Password = raw.Password
	}
	if meta.IsDefined("client_info") {
		cfg.ClientInfo = strings.TrimSpace(raw.ClientInfo)
	}
	if meta.IsDefined("connect_timeout") {
		if cfg.ConnectTimeout, err = parseDuration("connect_timeout", raw.ConnectTimeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("attempts") {
		cfg.Attempts = raw.Attempts
	}
	if meta.IsDefined("retry_delay") {
		if cfg.RetryDelay, err = parseDuration("retry_delay", raw.RetryDelay); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("retry_max_delay") {
		if cfg.RetryMaxDelay, err = parseDuration("retry_max_delay", raw.RetryMaxDelay); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("probe", "enabled") {
		cfg.Test = raw.Probe.Enabled
	}
	if meta.IsDefined("probe", "timeout") {
		if cfg.ProbeTimeout, err = parseDuration("probe.timeout", raw.Probe.Timeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("dashboard", "dir") {
		cfg.DashboardDir = strings.TrimSpace(raw.Dashboard.Dir)
	}
	if meta.IsDefined("dashboard", "lang") {
		cfg.DashboardLang = strings.ToLower(strings.TrimSpace(raw.Dashboard.Lang))
	}
	if meta.IsDefined("metrics", "file") {
		cfg.MetricsFile = strings.TrimSpace(raw.Metrics.File)
	}
	return cfg, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %v", protocol.ErrConfiguration, key, err)
	}
	return d, nil
}

// Validate checks everything that can be checked without the network,
// including that the key decodes to 32 bytes.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: host is required", protocol.ErrConfiguration)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", protocol.ErrConfiguration, c.Port)
	}
	if _, err := noise.DecodePSK(c.Key); err != nil {
		return err
	}
	if c.Attempts < 1 {
		return fmt.Errorf("%w: attempts must be at least 1", protocol.ErrConfiguration)
	}
	if c.ConnectTimeout < 0 || c.RetryDelay < 0 || c.RetryMaxDelay < 0 || c.ProbeTimeout < 0 {
		return fmt.Errorf("%w: durations must not be negative", protocol.ErrConfiguration)
	}
	if c.DashboardDir != "" && c.DashboardLang != LangJS && c.DashboardLang != LangTS {
		return fmt.Errorf("%w: dashboard lang must be %q or %q, got %q", protocol.ErrConfiguration, LangJS, LangTS, c.DashboardLang)
	}
	return nil
}

// Session builds the session settings. Call Validate first.
func (c Config) Session() (session.Config, error) {
	psk, err := noise.DecodePSK(c.Key)
	if err != nil {
		return session.Config{}, err
	}
	sc := session.DefaultConfig()
	sc.Address = session.Address(c.Host, c.Port)
	sc.PSK = psk
	sc.Password = c.Password
	if c.ClientInfo != "" {
		sc.ClientInfo = c.ClientInfo
	}
	if c.ConnectTimeout > 0 {
		sc.ConnectTimeout = c.ConnectTimeout
	}
	sc.Backoff.InitialDelay = c.RetryDelay
	sc.Backoff.MaxDelay = c.RetryMaxDelay
	return sc, nil
}
