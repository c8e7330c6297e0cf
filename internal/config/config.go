// Package config resolves deployment settings.
//
// Precedence, lowest first: defaults, CUE config file, environment, CLI flags
// (applied by the caller). Defaults depend on the resolved environment:
//
//	development: session backend, addr :5003, database todos.db (SQLite)
//	production:  database backend, addr :8080, DATABASE_URL required
//
// Session files default to todos-sessions under os.TempDir in both.
package config

import (
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// Env is the deployment environment.
type Env string

const (
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
)

// Backend selects the storage backend.
type Backend string

const (
	BackendSession  Backend = "session"
	BackendDatabase Backend = "database"
)

// DefaultLocalDatabase is the fixed local database used outside production.
const DefaultLocalDatabase = "todos.db"

// Environment variable names.
const (
	EnvVarEnv           = "TODOS_ENV"
	EnvVarBackend       = "TODOS_BACKEND"
	EnvVarAddr          = "TODOS_ADDR"
	EnvVarPort          = "PORT"
	EnvVarDatabaseURL   = "DATABASE_URL"
	EnvVarSessionSecret = "SESSION_SECRET"
	EnvVarSessionDir    = "TODOS_SESSION_DIR"
)

// Config holds resolved settings. JSON tags match the CUE file fields.
type Config struct {
	Env           Env     `json:"env"`
	Backend       Backend `json:"backend"`
	Addr          string  `json:"addr"`
	DatabaseURL   string  `json:"database_url"`
	SessionSecret string  `json:"session_secret"`

	// SessionDir holds server-side session files for the session backend.
	SessionDir string `json:"session_dir"`

	// GeneratedSecret is true when SessionSecret was randomly generated,
	// in which case sessions do not survive a restart.
	GeneratedSecret bool `json:"-"`
}

// Load resolves configuration from an optional CUE file and the environment.
// path may be empty. getenv is typically os.Getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	var cfg Config
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}

	applyEnv(&cfg, getenv)
	applyDefaults(&cfg)

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.SessionSecret = secret
		cfg.GeneratedSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a CUE config file and validates it against #Config.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	file := ctx.CompileBytes(data, cue.Filename(path))
	if err := file.Err(); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(file)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("invalid config file: %w", err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file: %w", err)
	}
	return cfg, nil
}

// Validate checks that the settings are consistent.
func (c Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("invalid env %q: must be %q or %q", c.Env, EnvDevelopment, EnvProduction)
	}

	switch c.Backend {
	case BackendSession, BackendDatabase:
	default:
		return fmt.Errorf("invalid backend %q: must be %q or %q", c.Backend, BackendSession, BackendDatabase)
	}

	if c.Backend == BackendDatabase && c.DatabaseURL == "" {
		return fmt.Errorf("%s is required for the database backend in %s", EnvVarDatabaseURL, c.Env)
	}

	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	return nil
}

// IsProduction reports whether the production environment is selected.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvVarEnv); v != "" {
		cfg.Env = Env(v)
	}
	if v := getenv(EnvVarBackend); v != "" {
		cfg.Backend = Backend(v)
	}
	if v := getenv(EnvVarPort); v != "" {
		cfg.Addr = ":" + v
	}
	if v := getenv(EnvVarAddr); v != "" {
		cfg.Addr = v
	}
	if v := getenv(EnvVarDatabaseURL); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getenv(EnvVarSessionSecret); v != "" {
		cfg.SessionSecret = v
	}
	if v := getenv(EnvVarSessionDir); v != "" {
		cfg.SessionDir = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = EnvDevelopment
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = filepath.Join(os.TempDir(), "todos-sessions")
	}

	if cfg.IsProduction() {
		if cfg.Backend == "" {
			cfg.Backend = BackendDatabase
		}
		if cfg.Addr == "" {
			cfg.Addr = ":8080"
		}
		return
	}

	if cfg.Backend == "" {
		cfg.Backend = BackendSession
	}
	if cfg.Addr == "" {
		cfg.Addr = ":5003"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = DefaultLocalDatabase
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
