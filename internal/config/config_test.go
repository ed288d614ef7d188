package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("INSPECTOR_CONFIG", filepath.Join(dir, "missing.yaml"))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Service.URL != "ws://localhost:38301/" {
		t.Errorf("url = %q", c.Service.URL)
	}
	if c.Service.Timeout != 10*time.Second {
		t.Errorf("timeout = %s", c.Service.Timeout)
	}
	if c.Service.Slice != 2*time.Second {
		t.Errorf("slice = %s", c.Service.Slice)
	}
	if c.Output.Format != "yaml" {
		t.Errorf("format = %q", c.Output.Format)
	}
	if c.Serve.CacheTTL != 500*time.Millisecond {
		t.Errorf("cache_ttl = %s", c.Serve.CacheTTL)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
service:
  url: ws://10.0.2.2:38301/
  timeout: 3s
log:
  level: debug
serve:
  port: 9090
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INSPECTOR_CONFIG", path)

	c, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Service.URL != "ws://10.0.2.2:38301/" {
		t.Errorf("url = %q", c.Service.URL)
	}
	if c.Service.Timeout != 3*time.Second {
		t.Errorf("timeout = %s", c.Service.Timeout)
	}
	if c.Log.Level != "debug" {
		t.Errorf("level = %q", c.Log.Level)
	}
	if c.Serve.Port != 9090 {
		t.Errorf("port = %d", c.Serve.Port)
	}
}

func TestLoadBadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("service: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INSPECTOR_CONFIG", path)
	if _, err := Load(nil); err == nil {
		t.Error("expected an error for malformed config")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("INSPECTOR_SERVICE_URL", "ws://device:1234/")
	t.Setenv("INSPECTOR_LOG_LEVEL", "trace")

	c, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Service.URL != "ws://device:1234/" {
		t.Errorf("url = %q", c.Service.URL)
	}
	if c.Log.Level != "trace" {
		t.Errorf("level = %q", c.Log.Level)
	}
}

func TestLoadFlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv("INSPECTOR_SERVICE_URL", "ws://env:1/")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("url", "", "")
	fs.Duration("timeout", 0, "")
	fs.String("format", "", "")
	if err := fs.Parse([]string{"--url", "ws://flag:2/", "--timeout", "750ms"}); err != nil {
		t.Fatal(err)
	}

	c, err := Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Service.URL != "ws://flag:2/" {
		t.Errorf("url = %q", c.Service.URL)
	}
	if c.Service.Timeout != 750*time.Millisecond {
		t.Errorf("timeout = %s", c.Service.Timeout)
	}
	if c.Output.Format != "yaml" {
		t.Errorf("unset flag overrode format: %q", c.Output.Format)
	}
}

func TestLoadConfigFlag(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "alt.yaml")
	if err := os.WriteFile(path, []byte("output:\n  format: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	if err := fs.Parse([]string{"--config", path}); err != nil {
		t.Fatal(err)
	}
	c, err := Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Output.Format != "json" {
		t.Errorf("format = %q", c.Output.Format)
	}
}
