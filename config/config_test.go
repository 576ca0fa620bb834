package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wanmine/musicgraph/config"
	"github.com/wanmine/musicgraph/encoder"
)

func TestDefault(t *testing.T) {
	c := config.Default()
	if c.OutputDir != "songs" || c.Workers != 0 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.Encoder != encoder.DefaultConfig() {
		t.Fatalf("default encoder config %+v differs from %+v", c.Encoder, encoder.DefaultConfig())
	}
	if c.Server.Addr != "localhost:8080" || c.Server.AutosaveDelay != 500*time.Millisecond {
		t.Fatalf("unexpected server defaults %+v", c.Server)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, "workers: 4\nencoder:\n  bitrate: 96000\nserver:\n  autosavedelay: 2s\n  allowedorigins: [\"http://localhost:3000\"]\n")
	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Workers != 4 || c.Encoder.Bitrate != 96000 || c.Server.AutosaveDelay != 2*time.Second {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.Encoder.Codec != "libvorbis" || c.OutputDir != "songs" {
		t.Fatalf("unset fields should keep their defaults: %+v", c)
	}
	if len(c.Server.AllowedOrigins) != 1 {
		t.Fatalf("unexpected origins %v", c.Server.AllowedOrigins)
	}
}

func TestLoadRejects(t *testing.T) {
	for _, contents := range []string{
		"wokers: 4\n",
		"workers: -1\n",
		"encoder:\n  channels: 2\n",
		"server:\n  autosavedelay: soon\n",
		"[1, 2",
	} {
		if _, err := config.Load(writeConfig(t, contents)); err == nil {
			t.Fatalf("Load should fail for %q", contents)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("an explicit missing file should be an error")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AppData", t.TempDir())
	c, err := config.Load("")
	if err != nil {
		t.Fatalf("Load without a user config failed: %v", err)
	}
	if c.OutputDir != config.Default().OutputDir {
		t.Fatalf("expected defaults, got %+v", c)
	}
}
