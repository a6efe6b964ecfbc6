// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/pupitre/internal/session"
	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

// Backend kinds.
const (
	BackendHTTP   = "http"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	Backend BackendConfig   `toml:"backend"`
	Storage StorageConfig   `toml:"storage"`
	Server  ServerConfig    `toml:"server"`
	Grid    GridConfig      `toml:"grid"`
	Log     LogConfig       `toml:"log"`
	UI      UIConfig        `toml:"ui"`
	Palette []PaletteConfig `toml:"palette"`
}

// BackendConfig selects where timetables are read from and saved to.
type BackendConfig struct {
	Kind     string `toml:"kind"`      // "http" or "sqlite"
	BaseURL  string `toml:"base_url"`  // e.g., "http://localhost:8080"
	Timeout  string `toml:"timeout"`   // e.g., "15s"
	SaveMode string `toml:"save_mode"` // "bulk" or "per_slot"
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// ServerConfig holds settings for `pupitre serve`.
type ServerConfig struct {
	Addr string `toml:"addr"` // e.g., ":8080"
}

// GridConfig holds timetable grid settings.
type GridConfig struct {
	Days         []string `toml:"days"`          // e.g., ["monday", "tuesday", ...]
	DefaultClass int64    `toml:"default_class"` // class mounted on startup, 0 for none
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "console" or "json"
	File   string `toml:"file"`   // empty logs to stderr
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "latte"
}

// PaletteConfig is an extra drag resource shown in the TUI palette.
type PaletteConfig struct {
	Label     string `toml:"label"`
	TeacherID int64  `toml:"teacher_id"`
	Teacher   string `toml:"teacher"`
	CourseID  int64  `toml:"course_id"`
	Course    string `toml:"course"`
	RoomID    int64  `toml:"room_id"`
	Room      string `toml:"room"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Kind:     BackendSQLite,
			BaseURL:  "http://localhost:8080",
			Timeout:  "15s",
			SaveMode: string(session.SaveModeBulk),
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Grid: GridConfig{
			Days: []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		UI: UIConfig{
			Theme: "mocha",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pupitre.db"
	}
	return filepath.Join(home, ".local", "share", "pupitre", "pupitre.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "pupitre", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	// Backend overrides
	if v := os.Getenv("PUPITRE_BACKEND"); v != "" {
		cfg.Backend.Kind = v
	}
	if v := os.Getenv("PUPITRE_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("PUPITRE_TIMEOUT"); v != "" {
		cfg.Backend.Timeout = v
	}
	if v := os.Getenv("PUPITRE_SAVE_MODE"); v != "" {
		cfg.Backend.SaveMode = v
	}

	// Storage and server overrides
	if v := os.Getenv("PUPITRE_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("PUPITRE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	// Grid overrides
	if v := os.Getenv("PUPITRE_DAYS"); v != "" {
		cfg.Grid.Days = strings.Split(v, ",")
	}
	if v := os.Getenv("PUPITRE_CLASS"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PUPITRE_CLASS must be a class id, got %q", v)
		}
		cfg.Grid.DefaultClass = id
	}

	// Log overrides
	if v := os.Getenv("PUPITRE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PUPITRE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PUPITRE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	// UI overrides
	if v := os.Getenv("PUPITRE_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case BackendHTTP:
		if c.Backend.BaseURL == "" {
			return errors.New("base_url must be set for the http backend")
		}
	case BackendSQLite:
		if c.Storage.DBPath == "" {
			return errors.New("db_path must be set for the sqlite backend")
		}
	default:
		return fmt.Errorf("backend kind must be %q or %q, got %q", BackendHTTP, BackendSQLite, c.Backend.Kind)
	}

	if _, err := c.Timeout(); err != nil {
		return err
	}
	if _, err := c.SaveMode(); err != nil {
		return err
	}

	if len(c.Grid.Days) == 0 {
		return errors.New("at least one grid day must be configured")
	}
	if _, err := c.Days(); err != nil {
		return err
	}
	if c.Grid.DefaultClass < 0 {
		return errors.New("default_class must not be negative")
	}

	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log format must be console or json, got %q", c.Log.Format)
	}

	for i, p := range c.Palette {
		if p.TeacherID == 0 && p.CourseID == 0 && p.RoomID == 0 {
			return fmt.Errorf("palette entry %d must set a teacher, course or room id", i+1)
		}
	}
	return nil
}

// Timeout returns the parsed backend timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Backend.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("timeout must be a duration like 15s, got %q", c.Backend.Timeout)
	}
	return d, nil
}

// SaveMode returns the parsed save mode.
func (c *Config) SaveMode() (session.SaveMode, error) {
	return session.ParseSaveMode(c.Backend.SaveMode)
}

// Days returns the configured grid days in display order.
func (c *Config) Days() ([]timetable.DayOfWeek, error) {
	days := make([]timetable.DayOfWeek, 0, len(c.Grid.Days))
	for _, name := range c.Grid.Days {
		d, err := timetable.ParseDay(name)
		if err != nil {
			return nil, fmt.Errorf("invalid grid day: %w", err)
		}
		if !d.Scheduled() {
			return nil, fmt.Errorf("invalid grid day: %s is never scheduled", d)
		}
		days = append(days, d)
	}
	return days, nil
}

// PaletteResources converts the configured palette into drag resources.
func (c *Config) PaletteResources() []slotgrid.Resource {
	out := make([]slotgrid.Resource, 0, len(c.Palette))
	for _, p := range c.Palette {
		out = append(out, slotgrid.Resource{
			Label:   p.Label,
			Teacher: ref(p.TeacherID, p.Teacher),
			Course:  ref(p.CourseID, p.Course),
			Room:    ref(p.RoomID, p.Room),
		})
	}
	return out
}

func ref(id int64, name string) *timetable.Ref {
	if id == 0 {
		return nil
	}
	return &timetable.Ref{ID: id, Name: name}
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
