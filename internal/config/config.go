// Package config is the engine's top-level configuration object,
// modeled on the teacher's DefaultConfig()/Resolve* layering pattern:
// a plain struct with explicit defaults, decoded leniently so unknown
// keys produce a warning rather than a hard failure.
package config

import (
	"encoding/json"
	"time"

	"github.com/dotindustries/warpgrid-sub001/internal/host/threadadapter"
)

// FSConfig enables the filesystem shim. It only toggles the shim: it has no
// fields for extra map entries, and an enabled shim always serves the
// built-in default map.
type FSConfig struct {
	Enabled bool `json:"-"`
}

// UnmarshalJSON accepts either a bare bool or an object, matching the
// teacher's tolerant decode style for optional sub-sections.
func (c *FSConfig) UnmarshalJSON(b []byte) error {
	var asBool bool
	if err := json.Unmarshal(b, &asBool); err == nil {
		c.Enabled = asBool
		return nil
	}
	type alias FSConfig
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = FSConfig(a)
	c.Enabled = true
	return nil
}

// DNSConfig enables the DNS shim.
type DNSConfig struct {
	Enabled        bool          `json:"-"`
	Upstream       string        `json:"upstream,omitempty"`
	UpstreamTimeout time.Duration `json:"upstream_timeout,omitempty"`
	CacheCapacity  int           `json:"cache_capacity,omitempty"`
}

func (c *DNSConfig) UnmarshalJSON(b []byte) error {
	var asBool bool
	if err := json.Unmarshal(b, &asBool); err == nil {
		c.Enabled = asBool
		return nil
	}
	type alias DNSConfig
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = DNSConfig(a)
	c.Enabled = true
	return nil
}

// SignalsConfig enables the signal-queue shim.
type SignalsConfig struct {
	Enabled  bool `json:"-"`
	Capacity int  `json:"capacity,omitempty"`
}

func (c *SignalsConfig) UnmarshalJSON(b []byte) error {
	var asBool bool
	if err := json.Unmarshal(b, &asBool); err == nil {
		c.Enabled = asBool
		return nil
	}
	type alias SignalsConfig
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = SignalsConfig(a)
	c.Enabled = true
	return nil
}

// DBProxyConfig enables the database-proxy shim.
type DBProxyConfig struct {
	Enabled          bool          `json:"-"`
	MaxSize          int           `json:"max_size,omitempty"`
	IdleReapTimeout  time.Duration `json:"idle_reap_timeout,omitempty"`
	HealthCheckEvery time.Duration `json:"health_check_every,omitempty"`
	CheckoutWait     time.Duration `json:"checkout_wait,omitempty"`
	UseTLS           bool          `json:"use_tls,omitempty"`
}

func (c *DBProxyConfig) UnmarshalJSON(b []byte) error {
	var asBool bool
	if err := json.Unmarshal(b, &asBool); err == nil {
		c.Enabled = asBool
		return nil
	}
	type alias DBProxyConfig
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = DBProxyConfig(a)
	c.Enabled = true
	return nil
}

// Config is the full set of shim toggles for one engine instance.
// Each pointer field being nil means that shim is compiled out of the
// instance entirely — the engine never allocates the corresponding
// adapter, queue, or pool when the field is nil.
type Config struct {
	FS            *FSConfig      `json:"fs,omitempty"`
	DNS           *DNSConfig     `json:"dns,omitempty"`
	Signals       *SignalsConfig `json:"signals,omitempty"`
	DBProxy       *DBProxyConfig `json:"db_proxy,omitempty"`
	ThreadingMode threadadapter.Model `json:"-"`

	// Warnings collects unknown top-level keys found during Decode,
	// rather than failing the decode outright.
	Warnings []string `json:"-"`
}

// DefaultConfig returns a Config with every shim enabled at its own
// defaults, per spec.md §4.8: "a missing configuration object yields the
// default (all shims enabled at defaults)." Callers disable the shims
// they don't want by setting the relevant pointer field's Enabled to
// false, or nil-ing it out entirely.
func DefaultConfig() Config {
	return Config{
		FS:            &FSConfig{Enabled: true},
		DNS:           &DNSConfig{Enabled: true},
		Signals:       &SignalsConfig{Enabled: true},
		DBProxy:       &DBProxyConfig{Enabled: true},
		ThreadingMode: threadadapter.ModelCooperative,
	}
}

// Decode parses raw JSON into a Config, starting from DefaultConfig (every
// shim enabled) and collecting unrecognized top-level keys into Warnings
// instead of failing. A key that is present replaces that shim's default
// sub-config.
func Decode(raw []byte) (Config, error) {
	cfg := DefaultConfig()

	var known map[string]json.RawMessage
	if err := json.Unmarshal(raw, &known); err != nil {
		return cfg, err
	}

	fields := map[string]func(json.RawMessage) error{
		"fs": func(v json.RawMessage) error {
			var fs FSConfig
			if err := json.Unmarshal(v, &fs); err != nil {
				return err
			}
			cfg.FS = &fs
			return nil
		},
		"dns": func(v json.RawMessage) error {
			var d DNSConfig
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			cfg.DNS = &d
			return nil
		},
		"signals": func(v json.RawMessage) error {
			var s SignalsConfig
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			cfg.Signals = &s
			return nil
		},
		"db_proxy": func(v json.RawMessage) error {
			var d DBProxyConfig
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			cfg.DBProxy = &d
			return nil
		},
	}

	for key, raw := range known {
		apply, ok := fields[key]
		if !ok {
			cfg.Warnings = append(cfg.Warnings, "unknown configuration key: "+key)
			continue
		}
		if err := apply(raw); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}
