package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func isolateConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("VISITLEDGER_ENDPOINT", "")
	t.Setenv("VISITLEDGER_TIMEZONE", "")
	t.Setenv("VISITLEDGER_NAME", "")
	return dir
}

func TestLoadCreatesDefaults(t *testing.T) {
	dir := isolateConfigDir(t)

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Config.Endpoint == "" || s.Config.Timezone == "" {
		t.Fatalf("defaults missing: %+v", s.Config)
	}
	if _, err := os.Stat(filepath.Join(dir, "visitledger", "config.json")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
}

func TestLoadReadsExisting(t *testing.T) {
	dir := isolateConfigDir(t)
	cfgDir := filepath.Join(dir, "visitledger")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	seed := Data{Endpoint: "https://example.com/exec", Name: "店長", Timezone: "Asia/Tokyo"}
	bytes, _ := json.Marshal(seed)
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), bytes, 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Config.Endpoint != seed.Endpoint || s.Config.Name != seed.Name {
		t.Fatalf("got %+v, want %+v", s.Config, seed)
	}
}

func TestEnvOverridesWithoutPersisting(t *testing.T) {
	dir := isolateConfigDir(t)
	t.Setenv("VISITLEDGER_ENDPOINT", "https://override.example.com/exec")

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Config.Endpoint != "https://override.example.com/exec" {
		t.Fatalf("env override ignored: %q", s.Config.Endpoint)
	}

	var onDisk Data
	bytes, err := os.ReadFile(filepath.Join(dir, "visitledger", "config.json"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if err := json.Unmarshal(bytes, &onDisk); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if onDisk.Endpoint == "https://override.example.com/exec" {
		t.Fatalf("env override leaked to disk")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	isolateConfigDir(t)

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Config.Name = "新しい名前"
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, err := Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Config.Name != "新しい名前" {
		t.Fatalf("got %q after reload", again.Config.Name)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	s := &Store{Config: Data{Timezone: "Not/AZone"}}
	if got := s.Location(); got.String() != "UTC" {
		t.Fatalf("got %s, want UTC", got)
	}
	s.Config.Timezone = "Asia/Tokyo"
	if got := s.Location(); got.String() != "Asia/Tokyo" {
		t.Fatalf("got %s, want Asia/Tokyo", got)
	}
}
