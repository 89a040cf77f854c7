package config

import (
	"testing"
	"time"
)

func TestGetFallsBack(t *testing.T) {
	t.Setenv("CFG_TEST_SET", "value")

	if got := Get("CFG_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("Get = %q, want value", got)
	}
	if got := Get("CFG_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("Get = %q, want fallback", got)
	}
}

func TestGetDuration(t *testing.T) {
	t.Setenv("CFG_TEST_DUR", "45s")
	t.Setenv("CFG_TEST_DUR_BAD", "soon")

	if got := GetDuration("CFG_TEST_DUR", time.Minute); got != 45*time.Second {
		t.Fatalf("GetDuration = %v, want 45s", got)
	}
	if got := GetDuration("CFG_TEST_DUR_BAD", time.Minute); got != time.Minute {
		t.Fatalf("GetDuration with bad value = %v, want fallback", got)
	}
	if got := GetDuration("CFG_TEST_DUR_UNSET", time.Minute); got != time.Minute {
		t.Fatalf("GetDuration unset = %v, want fallback", got)
	}
}

func TestGetFloat(t *testing.T) {
	t.Setenv("CFG_TEST_FLOAT", "72.5")
	t.Setenv("CFG_TEST_FLOAT_BAD", "much")

	if got := GetFloat("CFG_TEST_FLOAT", 1); got != 72.5 {
		t.Fatalf("GetFloat = %v, want 72.5", got)
	}
	if got := GetFloat("CFG_TEST_FLOAT_BAD", 1); got != 1 {
		t.Fatalf("GetFloat with bad value = %v, want fallback", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, _ := Load()

	if cfg.Port == "" {
		t.Fatal("port default missing")
	}
	if cfg.TrafficInterval >= cfg.ClosureInterval {
		t.Fatalf("traffic interval %v must be shorter than closure interval %v",
			cfg.TrafficInterval, cfg.ClosureInterval)
	}
	if cfg.TollUnitCost <= 0 {
		t.Fatalf("toll unit cost default %v must be positive", cfg.TollUnitCost)
	}
}
