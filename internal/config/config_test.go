package config

import "testing"

func TestDecodeBareBoolEnablesDefaults(t *testing.T) {
	cfg, err := Decode([]byte(`{"fs": true, "signals": false}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.FS == nil || !cfg.FS.Enabled {
		t.Errorf("expected fs enabled, got %+v", cfg.FS)
	}
	if cfg.Signals == nil || cfg.Signals.Enabled {
		t.Errorf("expected signals present but disabled, got %+v", cfg.Signals)
	}
}

func TestDecodeTableForm(t *testing.T) {
	cfg, err := Decode([]byte(`{"dns": {"upstream": "1.1.1.1:53", "cache_capacity": 512}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.DNS == nil || !cfg.DNS.Enabled {
		t.Fatalf("expected dns enabled via table form, got %+v", cfg.DNS)
	}
	if cfg.DNS.Upstream != "1.1.1.1:53" {
		t.Errorf("expected upstream preserved, got %q", cfg.DNS.Upstream)
	}
	if cfg.DNS.CacheCapacity != 512 {
		t.Errorf("expected cache_capacity preserved, got %d", cfg.DNS.CacheCapacity)
	}
}

func TestDecodeUnknownKeyWarnsNotFails(t *testing.T) {
	cfg, err := Decode([]byte(`{"fs": true, "totally_unknown": 123}`))
	if err != nil {
		t.Fatalf("decode should not fail on an unknown key: %v", err)
	}
	if len(cfg.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", cfg.Warnings)
	}
}

func TestDefaultConfigEnablesEverything(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.FS == nil || !cfg.FS.Enabled {
		t.Errorf("expected fs enabled by default, got %+v", cfg.FS)
	}
	if cfg.DNS == nil || !cfg.DNS.Enabled {
		t.Errorf("expected dns enabled by default, got %+v", cfg.DNS)
	}
	if cfg.Signals == nil || !cfg.Signals.Enabled {
		t.Errorf("expected signals enabled by default, got %+v", cfg.Signals)
	}
	if cfg.DBProxy == nil || !cfg.DBProxy.Enabled {
		t.Errorf("expected db_proxy enabled by default, got %+v", cfg.DBProxy)
	}
}

func TestDecodeMissingObjectYieldsAllEnabledDefaults(t *testing.T) {
	cfg, err := Decode([]byte(`{}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.FS == nil || !cfg.FS.Enabled || cfg.DNS == nil || !cfg.DNS.Enabled ||
		cfg.Signals == nil || !cfg.Signals.Enabled || cfg.DBProxy == nil || !cfg.DBProxy.Enabled {
		t.Errorf("expected an empty config object to leave every shim at its enabled default, got %+v", cfg)
	}
}

func TestDecodeExplicitlyDisablesOneShim(t *testing.T) {
	cfg, err := Decode([]byte(`{"dns": false}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.DNS == nil || cfg.DNS.Enabled {
		t.Errorf("expected dns explicitly disabled, got %+v", cfg.DNS)
	}
	if cfg.FS == nil || !cfg.FS.Enabled {
		t.Errorf("expected fs to remain at its enabled default, got %+v", cfg.FS)
	}
}
