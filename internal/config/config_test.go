package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/tide/internal/errors"
	"github.com/vango-dev/tide/pkg/reactive"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.SocketPath != DefaultSocketPath {
		t.Errorf("Server.SocketPath = %q", cfg.Server.SocketPath)
	}
	if cfg.Runtime.MaxFlushRounds != reactive.DefaultMaxRounds {
		t.Errorf("Runtime.MaxFlushRounds = %d", cfg.Runtime.MaxFlushRounds)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Snapshot.Backend != "memory" {
		t.Errorf("Snapshot.Backend = %q", cfg.Snapshot.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.Address() != ":8080" {
		t.Errorf("Address() = %q", cfg.Address())
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tide.yaml", `
server:
  host: 0.0.0.0
  port: 9090
  readTimeout: 2m
  maxSessions: 50
runtime:
  maxFlushRounds: 20
log:
  level: debug
  format: json
metrics:
  enabled: true
snapshot:
  backend: redis
  redisAddr: localhost:6379
  ttl: 1h
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Address() != "0.0.0.0:9090" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if cfg.Server.WriteTimeout != "10s" {
		t.Errorf("unset fields should get defaults, WriteTimeout = %q", cfg.Server.WriteTimeout)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Path() != filepath.Join(dir, "tide.yaml") || cfg.Dir() != dir {
		t.Errorf("Path() = %q, Dir() = %q", cfg.Path(), cfg.Dir())
	}

	sc := cfg.ServerConfig()
	if sc.Address != "0.0.0.0:9090" || sc.MaxSessions != 50 {
		t.Errorf("ServerConfig() = %+v", sc)
	}
	if sc.SessionConfig.ReadTimeout != 2*time.Minute {
		t.Errorf("ReadTimeout = %v", sc.SessionConfig.ReadTimeout)
	}
	if sc.SessionConfig.MaxFlushRounds != 20 || sc.SessionConfig.MaxEventQueue != reactive.DefaultQueueSize {
		t.Errorf("SessionConfig = %+v", sc.SessionConfig)
	}

	snap := cfg.SnapshotConfig()
	if snap.Backend != "redis" || snap.TTL != time.Hour || snap.RedisPrefix != "tide:snapshot:" {
		t.Errorf("SnapshotConfig() = %+v", snap)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tide.json", `{
  "server": {"port": 3000, "title": "Demo"},
  "snapshot": {"backend": "file", "dir": "out"}
}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 || cfg.Server.Title != "Demo" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if got := cfg.SnapshotConfig().Dir; got != filepath.Join(dir, "out") {
		t.Errorf("relative snapshot dir should resolve against the config dir, got %q", got)
	}
}

func TestLoadPrefersYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tide.json", `{"server": {"port": 1111}}`)
	writeFile(t, dir, "tide.yml", "server:\n  port: 2222\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 2222 {
		t.Errorf("Port = %d, want the tide.yml value", cfg.Server.Port)
	}
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Error("Exists() on an empty dir")
	}
	_, err := Load(dir)
	if errors.Code(err) != "E120" {
		t.Errorf("Load() error = %v, want E120", err)
	}
	_, err = LoadFile(filepath.Join(dir, "tide.yaml"))
	if errors.Code(err) != "E120" {
		t.Errorf("LoadFile() error = %v, want E120", err)
	}
}

func TestLoadSyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantLine int
	}{
		{
			name:     "yaml unknown field",
			file:     "tide.yaml",
			content:  "server:\n  port: 1\n  prot: 2\n",
			wantLine: 3,
		},
		{
			name:     "yaml wrong type",
			file:     "tide.yaml",
			content:  "log:\n  level: info\nruntime:\n  queueSize: lots\n",
			wantLine: 4,
		},
		{
			name:     "json syntax",
			file:     "tide.json",
			content:  "{\n  \"server\": {\n    \"port\": 1,\n  }\n}",
			wantLine: 4,
		},
		{
			name:     "json wrong type",
			file:     "tide.json",
			content:  "{\n  \"server\": {\"port\": \"80\"}\n}",
			wantLine: 2,
		},
		{
			name:    "json unknown field",
			file:    "tide.json",
			content: `{"servr": {}}`,
		},
		{
			name:    "unsupported extension",
			file:    "tide.toml",
			content: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			_, err := LoadFile(path)
			if errors.Code(err) != "E122" {
				t.Fatalf("LoadFile() error = %v, want E122", err)
			}
			if tt.wantLine == 0 {
				return
			}
			te := errors.FromError(err, "")
			if te.Location == nil || te.Location.Line != tt.wantLine {
				t.Errorf("Location = %v, want line %d", te.Location, tt.wantLine)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode string
		wantText string
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }, "E121", "server.port"},
		{"socket path", func(c *Config) { c.Server.SocketPath = "ws" }, "E121", "server.socketPath"},
		{"duration", func(c *Config) { c.Server.HeartbeatInterval = "soon" }, "E121", "server.heartbeatInterval"},
		{"zero duration", func(c *Config) { c.Server.ReadTimeout = "0s" }, "E121", "server.readTimeout"},
		{"rounds", func(c *Config) { c.Runtime.MaxFlushRounds = -1 }, "E121", "runtime.maxFlushRounds"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "E121", "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "E121", "log.format"},
		{"metrics path", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Path = "metrics" }, "E121", "metrics.path"},
		{"ttl", func(c *Config) { c.Snapshot.TTL = "forever" }, "E121", "snapshot.ttl"},
		{"redis addr", func(c *Config) { c.Snapshot.Backend = "redis" }, "E121", "snapshot.redisAddr"},
		{"s3 bucket", func(c *Config) { c.Snapshot.Backend = "s3" }, "E121", "snapshot.bucket"},
		{"backend", func(c *Config) { c.Snapshot.Backend = "tape" }, "E123", "tape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if errors.Code(err) != tt.wantCode {
				t.Fatalf("Validate() = %v, want %s", err, tt.wantCode)
			}
			if te := errors.FromError(err, ""); !strings.Contains(te.Detail, tt.wantText) {
				t.Errorf("Detail = %q, want it to mention %q", te.Detail, tt.wantText)
			}
		})
	}
}

func TestLoadFileValidates(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tide.yaml", "log:\n  format: xml\n")
	if _, err := LoadFile(path); errors.Code(err) != "E121" {
		t.Errorf("LoadFile() error = %v, want E121", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	for _, name := range []string{"tide.yaml", "tide.json"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := New()
			cfg.Server.Port = 4321
			cfg.Snapshot.Backend = "file"

			path := filepath.Join(dir, name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error = %v", err)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q after SaveTo", cfg.Path())
			}

			loaded, err := Load(dir)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if loaded.Server.Port != 4321 || loaded.Snapshot.Backend != "file" {
				t.Errorf("loaded = %+v", loaded)
			}
		})
	}

	if err := New().SaveTo(filepath.Join(t.TempDir(), "tide.ini")); errors.Code(err) != "E122" {
		t.Errorf("SaveTo(.ini) error = %v", err)
	}
}
