package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"unrealforge.ai/internal/editor"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load empty path: %v", err)
	}
	if cfg.Editor.Host != editor.DefaultHost || cfg.Editor.Port != editor.DefaultPort {
		t.Fatalf("editor defaults = %+v", cfg.Editor)
	}
	if cfg.Serve.Listen != "127.0.0.1:8911" || !cfg.Serve.Observer {
		t.Fatalf("serve defaults = %+v", cfg.Serve)
	}
	if cfg.Data.Dir != "data" || !cfg.Data.Transcript || !cfg.Data.History {
		t.Fatalf("data defaults = %+v", cfg.Data)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
editor:
  host: 10.0.0.5
  port: 55999
  io_timeout_ms: 1500
serve:
  listen: 127.0.0.1:9000
  observer: false
data:
  dir: /var/lib/forge
  transcript: true
  history: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Editor.Host != "10.0.0.5" || cfg.Editor.Port != 55999 {
		t.Fatalf("editor = %+v", cfg.Editor)
	}
	if cfg.Serve.Listen != "127.0.0.1:9000" || cfg.Serve.Observer {
		t.Fatalf("serve = %+v", cfg.Serve)
	}
	if cfg.Data.Dir != "/var/lib/forge" || !cfg.Data.Transcript || cfg.Data.History {
		t.Fatalf("data = %+v", cfg.Data)
	}

	cc := cfg.ClientConfig()
	if cc.IOTimeout != 1500*time.Millisecond {
		t.Fatalf("io timeout = %v", cc.IOTimeout)
	}
	if cc.Host != "10.0.0.5" || cc.Port != 55999 {
		t.Fatalf("client config = %+v", cc)
	}
}

func TestLoadFillsOmittedFields(t *testing.T) {
	path := writeConfig(t, `
serve:
  listen: 127.0.0.1:9100
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Editor.Port != editor.DefaultPort {
		t.Fatalf("omitted editor port = %d", cfg.Editor.Port)
	}
	if cfg.Data.Dir != "data" {
		t.Fatalf("omitted data dir = %q", cfg.Data.Dir)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"port out of range": "editor:\n  port: 70000\n",
		"negative timeout":  "editor:\n  io_timeout_ms: -5\n",
		"bad listen":        "serve:\n  listen: not-a-hostport\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: accepted", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
