package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/tide/internal/errors"
	"github.com/vango-dev/tide/pkg/reactive"
	"github.com/vango-dev/tide/pkg/server"
	"github.com/vango-dev/tide/pkg/snapshot"
)

const (
	DefaultPort       = 8080
	DefaultTitle      = "Tide"
	DefaultSocketPath = "/ws"
	DefaultNamespace  = "tide"
)

// FileNames are the configuration files Load looks for, in order.
var FileNames = []string{"tide.yaml", "tide.yml", "tide.json"}

// Config is the complete project configuration.
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Runtime  RuntimeConfig  `json:"runtime" yaml:"runtime"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	Tracing  TracingConfig  `json:"tracing" yaml:"tracing"`
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`

	configPath string
}

// ServerConfig configures the HTTP server and its sessions.
type ServerConfig struct {
	Host  string `json:"host,omitempty" yaml:"host,omitempty"`
	Port  int    `json:"port,omitempty" yaml:"port,omitempty"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	SocketPath string `json:"socketPath,omitempty" yaml:"socketPath,omitempty"`

	ReadTimeout       string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout      string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	HeartbeatInterval string `json:"heartbeatInterval,omitempty" yaml:"heartbeatInterval,omitempty"`
	ShutdownTimeout   string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`

	// MaxMessageSize is in bytes.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty" yaml:"maxMessageSize,omitempty"`

	// MaxSessions of 0 means unlimited.
	MaxSessions int `json:"maxSessions,omitempty" yaml:"maxSessions,omitempty"`
}

// RuntimeConfig configures each session's reactive runtime.
type RuntimeConfig struct {
	MaxFlushRounds int `json:"maxFlushRounds,omitempty" yaml:"maxFlushRounds,omitempty"`
	QueueSize      int `json:"queueSize,omitempty" yaml:"queueSize,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// File, when set, also receives every record as JSON.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
}

type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// SnapshotConfig selects where `tide render` stores pages.
type SnapshotConfig struct {
	// Backend is memory, file, redis or s3.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	RedisAddr     string `json:"redisAddr,omitempty" yaml:"redisAddr,omitempty"`
	RedisPassword string `json:"redisPassword,omitempty" yaml:"redisPassword,omitempty"`
	RedisDB       int    `json:"redisDB,omitempty" yaml:"redisDB,omitempty"`
	RedisPrefix   string `json:"redisPrefix,omitempty" yaml:"redisPrefix,omitempty"`
	TTL           string `json:"ttl,omitempty" yaml:"ttl,omitempty"`

	Bucket    string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	PathStyle bool   `json:"pathStyle,omitempty" yaml:"pathStyle,omitempty"`
}

// New returns a Config with every default filled in.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the first configuration file found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E120").
		WithDetail("No " + strings.Join(FileNames, ", ") + " found in " + dir).
		WithSuggestion("Run 'tide init' to write a default tide.yaml")
}

// Exists reports whether dir holds a configuration file.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// LoadFile reads path as YAML or JSON, chosen by extension, fills defaults
// and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New("E120").WithDetail("No configuration at " + path)
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := &Config{}
	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}
	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return syntaxError(path, err, yamlLine(err), 0)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			line, col := jsonPosition(data, err)
			return syntaxError(path, err, line, col)
		}
	default:
		return errors.New("E122").
			WithDetail("Unsupported configuration format " + filepath.Ext(path)).
			WithSuggestion("Use .yaml, .yml or .json")
	}
	return nil
}

func syntaxError(path string, err error, line, col int) error {
	te := errors.New("E122").Wrap(err).WithSuggestion("Check " + filepath.Base(path) + " for typos and unknown keys")
	if line > 0 {
		te.WithLocation(path, line, col)
	}
	return te
}

var yamlLineRE = regexp.MustCompile(`line (\d+)`)

// yamlLine extracts the first line number from a yaml.v3 error.
func yamlLine(err error) int {
	m := yamlLineRE.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// jsonPosition converts the byte offset of a JSON error to line and column.
func jsonPosition(data []byte, err error) (int, int) {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case stderrors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0, 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line := bytes.Count(before, []byte("\n")) + 1
	col := int(offset) - bytes.LastIndexByte(before, '\n')
	return line, col
}

// SaveTo writes the configuration to path in the format its extension
// selects.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	default:
		return errors.New("E122").WithDetail("Unsupported configuration format " + filepath.Ext(path))
	}
	if err != nil {
		return errors.New("E121").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E120").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory of Path, or "" when not loaded from a file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	s := &c.Server
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.Title == "" {
		s.Title = DefaultTitle
	}
	if s.SocketPath == "" {
		s.SocketPath = DefaultSocketPath
	}
	if s.ReadTimeout == "" {
		s.ReadTimeout = "60s"
	}
	if s.WriteTimeout == "" {
		s.WriteTimeout = "10s"
	}
	if s.HeartbeatInterval == "" {
		s.HeartbeatInterval = "30s"
	}
	if s.ShutdownTimeout == "" {
		s.ShutdownTimeout = "30s"
	}
	if s.MaxMessageSize == 0 {
		s.MaxMessageSize = 64 * 1024
	}

	if c.Runtime.MaxFlushRounds == 0 {
		c.Runtime.MaxFlushRounds = reactive.DefaultMaxRounds
	}
	if c.Runtime.QueueSize == 0 {
		c.Runtime.QueueSize = reactive.DefaultQueueSize
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}

	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = "memory"
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = "snapshots"
	}
	if c.Snapshot.RedisPrefix == "" {
		c.Snapshot.RedisPrefix = snapshot.DefaultRedisPrefix
	}
}

// Validate checks every field and returns the first problem found.
func (c *Config) Validate() error {
	s := c.Server
	if s.Port < 0 || s.Port > 65535 {
		return invalid("server.port", "Port must be between 0 and 65535")
	}
	if !strings.HasPrefix(s.SocketPath, "/") {
		return invalid("server.socketPath", "The socket path must start with '/'")
	}
	for _, f := range []struct{ name, value string }{
		{"server.readTimeout", s.ReadTimeout},
		{"server.writeTimeout", s.WriteTimeout},
		{"server.heartbeatInterval", s.HeartbeatInterval},
		{"server.shutdownTimeout", s.ShutdownTimeout},
	} {
		if d, err := time.ParseDuration(f.value); err != nil || d <= 0 {
			return invalid(f.name, fmt.Sprintf("%q is not a positive duration", f.value)).
				WithSuggestion(`Durations look like "30s", "1m" or "500ms"`)
		}
	}
	if s.MaxMessageSize < 0 || s.MaxSessions < 0 {
		return invalid("server", "maxMessageSize and maxSessions cannot be negative")
	}

	if c.Runtime.MaxFlushRounds < 1 {
		return invalid("runtime.maxFlushRounds", "At least one notification round is needed per flush")
	}
	if c.Runtime.QueueSize < 1 {
		return invalid("runtime.queueSize", "The task queue needs room for at least one task")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return invalid("log.level", fmt.Sprintf("%q is not a log level", c.Log.Level)).
			WithSuggestion("Use debug, info, warn or error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", fmt.Sprintf("%q is not text or json", c.Log.Format))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path", "The metrics path must start with '/'")
	}

	return c.validateSnapshot()
}

func (c *Config) validateSnapshot() error {
	sc := c.Snapshot
	if sc.TTL != "" {
		if d, err := time.ParseDuration(sc.TTL); err != nil || d < 0 {
			return invalid("snapshot.ttl", fmt.Sprintf("%q is not a duration", sc.TTL))
		}
	}
	switch sc.Backend {
	case "memory", "file":
	case "redis":
		if sc.RedisAddr == "" {
			return invalid("snapshot.redisAddr", "The redis backend needs an address")
		}
	case "s3":
		if sc.Bucket == "" {
			return invalid("snapshot.bucket", "The s3 backend needs a bucket")
		}
	default:
		return errors.New("E123").WithDetail(fmt.Sprintf("snapshot.backend %q is not memory, file, redis or s3", sc.Backend))
	}
	return nil
}

func invalid(field, detail string) *errors.TideError {
	return errors.New("E121").WithDetail(field + ": " + detail)
}

// Address returns host:port for the HTTP listener.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ServerConfig converts the server and runtime sections for server.New.
func (c *Config) ServerConfig() *server.ServerConfig {
	cfg := server.DefaultServerConfig()
	cfg.Address = c.Address()
	cfg.Title = c.Server.Title
	cfg.SocketPath = c.Server.SocketPath
	cfg.MaxSessions = c.Server.MaxSessions
	cfg.ShutdownTimeout = duration(c.Server.ShutdownTimeout, cfg.ShutdownTimeout)

	sc := cfg.SessionConfig
	sc.ReadTimeout = duration(c.Server.ReadTimeout, sc.ReadTimeout)
	sc.WriteTimeout = duration(c.Server.WriteTimeout, sc.WriteTimeout)
	sc.HeartbeatInterval = duration(c.Server.HeartbeatInterval, sc.HeartbeatInterval)
	if c.Server.MaxMessageSize > 0 {
		sc.MaxMessageSize = c.Server.MaxMessageSize
	}
	sc.MaxEventQueue = c.Runtime.QueueSize
	sc.MaxFlushRounds = c.Runtime.MaxFlushRounds
	return cfg
}

// SnapshotConfig converts the snapshot section for snapshot.Open. A
// relative file directory is resolved against Dir.
func (c *Config) SnapshotConfig() snapshot.Config {
	sc := c.Snapshot
	dir := sc.Dir
	if dir != "" && !filepath.IsAbs(dir) && c.Dir() != "" {
		dir = filepath.Join(c.Dir(), dir)
	}
	return snapshot.Config{
		Backend:       sc.Backend,
		Dir:           dir,
		RedisAddr:     sc.RedisAddr,
		RedisPassword: sc.RedisPassword,
		RedisDB:       sc.RedisDB,
		RedisPrefix:   sc.RedisPrefix,
		TTL:           duration(sc.TTL, 0),
		Bucket:        sc.Bucket,
		Prefix:        sc.Prefix,
		Region:        sc.Region,
		Endpoint:      sc.Endpoint,
		PathStyle:     sc.PathStyle,
	}
}

func duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
