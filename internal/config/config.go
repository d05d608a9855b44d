// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/jeranaias/evo-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete evo configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api" yaml:"api"`
	Chat    ChatConfig    `toml:"chat" json:"chat" yaml:"chat"`
	UI      UIConfig      `toml:"ui" json:"ui" yaml:"ui"`
	Log     LogConfig     `toml:"log" json:"log" yaml:"log"`
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`
	Export  ExportConfig  `toml:"export" json:"export" yaml:"export"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	// BaseURL is the backend root, without a trailing slash.
	BaseURL string `toml:"base_url" json:"base_url" yaml:"base_url"`
	// Timeout bounds every request.
	Timeout Duration `toml:"timeout" json:"timeout" yaml:"timeout"`
	// RequestsPerSecond and Burst shape outgoing traffic. Zero disables limiting.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `toml:"burst" json:"burst" yaml:"burst"`
}

// ChatConfig contains conversation behaviour.
type ChatConfig struct {
	// RevealDelay is the pause between reveal steps of a reply. Zero shows
	// replies at once.
	RevealDelay Duration `toml:"reveal_delay" json:"reveal_delay" yaml:"reveal_delay"`
	// UsageRefresh is the interval of the background usage poll.
	UsageRefresh Duration `toml:"usage_refresh" json:"usage_refresh" yaml:"usage_refresh"`
	// RecencyWindow keeps just-created conversations that the server list
	// does not contain yet.
	RecencyWindow Duration `toml:"recency_window" json:"recency_window" yaml:"recency_window"`
	// Markdown renders assistant replies with glamour.
	Markdown bool `toml:"markdown" json:"markdown" yaml:"markdown"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// WordWrap is the wrap column for messages (0 = terminal width).
	WordWrap int `toml:"word_wrap" json:"word_wrap" yaml:"word_wrap"`
	// SidebarWidth is the width of the conversation list.
	SidebarWidth int `toml:"sidebar_width" json:"sidebar_width" yaml:"sidebar_width"`
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme" json:"theme" yaml:"theme"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is a logrus level name.
	Level string `toml:"level" json:"level" yaml:"level"`
	// File is the log file (empty = ~/.evo/evo.log).
	File string `toml:"file" json:"file" yaml:"file"`
}

// StorageConfig contains local storage settings.
type StorageConfig struct {
	// DraftsDB is the sqlite database for unsent drafts (empty = ~/.evo/drafts.db).
	DraftsDB string `toml:"drafts_db" json:"drafts_db" yaml:"drafts_db"`
}

// ExportConfig contains conversation export settings.
type ExportConfig struct {
	// Format is one of text, markdown, json, yaml, html.
	Format string `toml:"format" json:"format" yaml:"format"`
	// Dir is where exports are written (empty = ~/.evo/exports).
	Dir string `toml:"dir" json:"dir" yaml:"dir"`
}

// Duration is a time.Duration written as "30s" in config files.
type Duration struct {
	time.Duration
}

// D wraps a time.Duration.
func D(d time.Duration) Duration {
	return Duration{d}
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default values.
const (
	DefaultBaseURL           = "https://orga-copilot-system-java.onrender.com"
	DefaultTimeout           = 60 * time.Second
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 10
	DefaultRevealDelay       = 30 * time.Millisecond
	DefaultUsageRefresh      = 30 * time.Second
	DefaultRecencyWindow     = 10 * time.Second
	DefaultSidebarWidth      = 28
	DefaultLogLevel          = "info"
	DefaultExportFormat      = "markdown"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           DefaultBaseURL,
			Timeout:           D(DefaultTimeout),
			RequestsPerSecond: DefaultRequestsPerSecond,
			Burst:             DefaultBurst,
		},
		Chat: ChatConfig{
			RevealDelay:   D(DefaultRevealDelay),
			UsageRefresh:  D(DefaultUsageRefresh),
			RecencyWindow: D(DefaultRecencyWindow),
			Markdown:      true,
		},
		UI: UIConfig{
			SidebarWidth: DefaultSidebarWidth,
			Theme:        "auto",
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Export: ExportConfig{
			Format: DefaultExportFormat,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the evo configuration directory. EVO_HOME overrides the
// default ~/.evo.
func ConfigDir() (string, error) {
	if dir := os.Getenv("EVO_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".evo"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return dir, os.MkdirAll(dir, 0700)
}

// LogPath returns the log file, resolving the default location.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "evo.log"), nil
}

// DraftsPath returns the drafts database, resolving the default location.
func (c *Config) DraftsPath() (string, error) {
	if c.Storage.DraftsDB != "" {
		return c.Storage.DraftsDB, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "drafts.db"), nil
}

// ExportDir returns the export directory, resolving the default location.
func (c *Config) ExportDir() (string, error) {
	if c.Export.Dir != "" {
		return c.Export.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "exports"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.evo/config.toml over the defaults.
// Variables from .env files in the working directory and the config
// directory are loaded first; environment overrides are applied last.
func Load() (*Config, error) {
	loadDotEnv()

	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from path. A missing file yields the
// defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg. Unknown keys are reported as
// warnings so a typo does not go unnoticed.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	for _, key := range md.Undecoded() {
		log.WithField("key", key.String()).Warn("unknown config key ignored")
	}
	return nil
}

// loadDotEnv loads .env files without overriding variables already set.
func loadDotEnv() {
	candidates := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.WithError(err).WithField("path", path).Warn("could not load env file")
		}
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# evo configuration file\n")
	buf.WriteString("# Generated by evo - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true, "fatal": true, "panic": true,
}

var validThemes = map[string]bool{"auto": true, "dark": true, "light": true}

var validExportFormats = map[string]bool{
	"text": true, "txt": true,
	"markdown": true, "md": true,
	"json": true,
	"yaml": true, "yml": true,
	"html": true, "htm": true,
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host", c.API.BaseURL),
		})
	}
	if c.API.Timeout.Duration <= 0 {
		errs = append(errs, ValidationError{Field: "api.timeout", Message: "must be positive"})
	}
	if c.API.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{Field: "api.requests_per_second", Message: "must not be negative"})
	}
	if c.API.Burst < 0 {
		errs = append(errs, ValidationError{Field: "api.burst", Message: "must not be negative"})
	}

	if c.Chat.RevealDelay.Duration < 0 || c.Chat.RevealDelay.Duration > time.Second {
		errs = append(errs, ValidationError{Field: "chat.reveal_delay", Message: "must be between 0 and 1s"})
	}
	if c.Chat.UsageRefresh.Duration < time.Second {
		errs = append(errs, ValidationError{Field: "chat.usage_refresh", Message: "must be at least 1s"})
	}
	if c.Chat.RecencyWindow.Duration < 0 {
		errs = append(errs, ValidationError{Field: "chat.recency_window", Message: "must not be negative"})
	}

	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: "must not be negative"})
	}
	if c.UI.SidebarWidth < 12 || c.UI.SidebarWidth > 60 {
		errs = append(errs, ValidationError{Field: "ui.sidebar_width", Message: "must be between 12 and 60"})
	}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s'", c.Log.Level),
		})
	}

	if !validExportFormats[strings.ToLower(c.Export.Format)] {
		errs = append(errs, ValidationError{
			Field:   "export.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: text, markdown, json, yaml, html", c.Export.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout.Duration == 0 {
		c.API.Timeout = D(DefaultTimeout)
	}
	if c.Chat.UsageRefresh.Duration == 0 {
		c.Chat.UsageRefresh = D(DefaultUsageRefresh)
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = DefaultSidebarWidth
	}
	if c.UI.Theme == "" {
		c.UI.Theme = "auto"
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Export.Format == "" {
		c.Export.Format = DefaultExportFormat
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - EVO_API_URL: overrides api.base_url
//   - EVO_TIMEOUT: overrides api.timeout
//   - EVO_REVEAL_DELAY: overrides chat.reveal_delay
//   - EVO_MARKDOWN: set to "0" or "false" to disable markdown rendering
//   - EVO_LOG_LEVEL: overrides log.level
//   - EVO_LOG_FILE: overrides log.file
//   - EVO_DRAFTS_DB: overrides storage.drafts_db
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("EVO_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("EVO_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.Timeout = D(d)
		}
	}
	if v := os.Getenv("EVO_REVEAL_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Chat.RevealDelay = D(d)
		}
	}
	if v := os.Getenv("EVO_MARKDOWN"); v != "" {
		c.Chat.Markdown = parseBool(v)
	}
	if v := os.Getenv("EVO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("EVO_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("EVO_DRAFTS_DB"); v != "" {
		c.Storage.DraftsDB = v
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// lookup resolves a dot-notation key such as "chat.reveal_delay" to its
// field.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field := fieldByTag(v, part)
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct || isLeaf(field) {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// fieldByTag finds the field of struct v whose toml tag is name.
func fieldByTag(v reflect.Value, name string) reflect.Value {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ","); strings.EqualFold(tag, name) {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

// isLeaf reports whether a struct-kinded field is a scalar value.
func isLeaf(v reflect.Value) bool {
	return v.Type() == reflect.TypeOf(Duration{})
}

// Get retrieves a configuration value using dot notation (e.g., "api.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if d, ok := field.Interface().(Duration); ok {
		return d.String(), nil
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if field.Kind() == reflect.Struct && !isLeaf(field) {
		return fmt.Errorf("cannot set section: %s", key)
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		if u, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(strVal))
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation, sorted.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			tag, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
			if tag == "" || tag == "-" {
				continue
			}
			if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(Duration{}) {
				walk(f.Type, prefix+tag+".")
				continue
			}
			keys = append(keys, prefix+tag)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config in TOML form.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
