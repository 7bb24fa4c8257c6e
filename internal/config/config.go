/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Source bool   `yaml:"source" json:"source"`
	File   string `yaml:"file" json:"file"`
}

type ConvertConfig struct {
	FrontMatter  bool `yaml:"front_matter" json:"front_matter"`
	IncludeGuide bool `yaml:"include_guide" json:"include_guide"`
}

type StatsConfig struct {
	Precision int `yaml:"precision" json:"precision"`
}

// HistoryConfig controls the optional conversion history database. It is off by default.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"` // empty means DefaultHistoryPath
	Keep    int    `yaml:"keep" json:"keep"` // runs kept after each record; 0 keeps all
}

type BatchConfig struct {
	Jobs int `yaml:"jobs" json:"jobs"` // 0 means one per CPU
}

type WatchConfig struct {
	Pattern    string   `yaml:"pattern" json:"pattern"`
	DebounceMs int      `yaml:"debounce_ms" json:"debounce_ms"`
	Ignore     []string `yaml:"ignore" json:"ignore"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version" json:"config_version"`
	Logging       LoggingConfig `yaml:"logging" json:"logging"`
	Convert       ConvertConfig `yaml:"convert" json:"convert"`
	Stats         StatsConfig   `yaml:"stats" json:"stats"`
	History       HistoryConfig `yaml:"history" json:"history"`
	Batch         BatchConfig   `yaml:"batch" json:"batch"`
	Watch         WatchConfig   `yaml:"watch" json:"watch"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		Convert:       ConvertConfig{FrontMatter: true, IncludeGuide: false},
		Stats:         StatsConfig{Precision: 2},
		History:       HistoryConfig{Enabled: false, Keep: 500},
		Batch:         BatchConfig{Jobs: 0},
		Watch: WatchConfig{
			Pattern:    "**/*.tex",
			DebounceMs: 300,
			Ignore:     []string{"**/.git/**", "**/node_modules/**", "**/.idea/**", "**/vendor/**"},
		},
	}
}

// Env var names used as overrides.
const (
	EnvHistory     = "LIL_HISTORY"
	EnvHistoryPath = "LIL_HISTORY_PATH"
	EnvJobs        = "LIL_JOBS"
	EnvPrecision   = "LIL_PRECISION"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "LIL_LOG_LEVEL"
	EnvLogFormat = "LIL_LOG_FORMAT"
	EnvLogSource = "LIL_LOG_SOURCE"
	EnvLogFile   = "LIL_LOG_FILE"
)

//go:embed schema.json
var schemaJSON string

// userDir returns the per-user application directory of the given kind ("config" or "data").
func userDir(kind string) (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "lilscript")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "lilscript")
	default: // linux and others
		if kind == "data" {
			if x := os.Getenv("XDG_DATA_HOME"); x != "" {
				return filepath.Join(x, "lilscript"), nil
			}
			base = filepath.Join(os.Getenv("HOME"), ".local", "share", "lilscript")
		} else {
			if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
				return filepath.Join(x, "lilscript"), nil
			}
			base = filepath.Join(os.Getenv("HOME"), ".config", "lilscript")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve user directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := userDir("config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultHistoryPath returns the per-user history database path.
func DefaultHistoryPath() (string, error) {
	dir, err := userDir("data")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.sqlite"), nil
}

// Load reads the config file at path (the per-user file when path is empty), applies
// defaults and environment overrides, and validates the result. A missing file is
// not an error.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// decode over defaults so omitted fields keep their default
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML to path (the per-user file when path is empty).
func Save(path string, cfg AppConfig) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks cfg against the embedded JSON schema.
func Validate(cfg AppConfig) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schemaJSON), gojsonschema.NewGoLoader(cfg))
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Convert = src.Convert
	dst.Stats.Precision = src.Stats.Precision
	dst.History.Enabled = src.History.Enabled
	if strings.TrimSpace(src.History.Path) != "" {
		dst.History.Path = strings.TrimSpace(src.History.Path)
	}
	dst.History.Keep = src.History.Keep
	dst.Batch.Jobs = src.Batch.Jobs
	if strings.TrimSpace(src.Watch.Pattern) != "" {
		dst.Watch.Pattern = strings.TrimSpace(src.Watch.Pattern)
	}
	if src.Watch.DebounceMs != 0 {
		dst.Watch.DebounceMs = src.Watch.DebounceMs
	}
	if src.Watch.Ignore != nil {
		dst.Watch.Ignore = src.Watch.Ignore
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvHistory)); v != "" {
		cfg.History.Enabled = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryPath)); v != "" {
		cfg.History.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJobs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Jobs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrecision)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Stats.Precision = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"history.enabled": EnvHistory,
		"history.path":    EnvHistoryPath,
		"batch.jobs":      EnvJobs,
		"stats.precision": EnvPrecision,
		"logging.level":   EnvLogLevel,
		"logging.format":  EnvLogFormat,
		"logging.source":  EnvLogSource,
		"logging.file":    EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// HistoryPath returns the configured history database path or the default one.
func (h HistoryConfig) HistoryPath() (string, error) {
	if h.Path != "" {
		return h.Path, nil
	}
	return DefaultHistoryPath()
}
