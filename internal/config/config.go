/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"agentcanvas/internal/board"
	"agentcanvas/internal/geom"
	"agentcanvas/internal/interact"
	"agentcanvas/internal/viewstate"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// CanvasConfig holds the editor tuning knobs. Zero numbers mean "use the default".
type CanvasConfig struct {
	MinZoom         float64     `yaml:"min_zoom"`
	MaxZoom         float64     `yaml:"max_zoom"`
	GridSize        float64     `yaml:"grid_size"`
	SnapToGrid      bool        `yaml:"snap_to_grid"`
	ZoomSensitivity float64     `yaml:"zoom_sensitivity"`
	PreventScroll   *bool       `yaml:"prevent_scroll,omitempty"`
	ClickThreshold  float64     `yaml:"click_threshold"`
	DefaultPosition PointConfig `yaml:"default_position"`
	DefaultZoom     float64     `yaml:"default_zoom"`
	// BackgroundPattern is "dots", "lines" or "none".
	BackgroundPattern string `yaml:"background_pattern"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Logging       LoggingConfig `yaml:"logging"`
	Canvas        CanvasConfig  `yaml:"canvas"`
}

const (
	defaultGridSize   = 20.0
	defaultBackground = "dots"
)

// Defaults returns the application defaults.
func Defaults() AppConfig {
	prevent := true
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		Canvas: CanvasConfig{
			MinZoom:           viewstate.DefaultMinZoom,
			MaxZoom:           viewstate.DefaultMaxZoom,
			GridSize:          defaultGridSize,
			ZoomSensitivity:   interact.DefaultZoomSensitivity,
			PreventScroll:     &prevent,
			ClickThreshold:    interact.DefaultClickThreshold,
			DefaultZoom:       1,
			BackgroundPattern: defaultBackground,
		},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath      = "ACV_CONFIG"
	EnvTelemetryOptIn  = "ACV_TELEMETRY_OPT_IN"
	EnvMinZoom         = "ACV_MIN_ZOOM"
	EnvMaxZoom         = "ACV_MAX_ZOOM"
	EnvGridSize        = "ACV_GRID_SIZE"
	EnvSnapToGrid      = "ACV_SNAP_TO_GRID"
	EnvZoomSensitivity = "ACV_ZOOM_SENSITIVITY"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "ACV_LOG_LEVEL"
	EnvLogFormat = "ACV_LOG_FORMAT"
	EnvLogSource = "ACV_LOG_SOURCE"
	EnvLogFile   = "ACV_LOG_FILE"
)

// ConfigPath returns the per-user config file path. ACV_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "AgentCanvas")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "AgentCanvas")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "agentcanvas")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, merges
// environment overrides and repairs out-of-range canvas values.
// A malformed file is reported but the defaults are still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var parseErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		} else {
			parseErr = fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	cfg.Canvas = cfg.Canvas.Normalized()
	return cfg, parseErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
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

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
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
	// canvas
	c, s := &dst.Canvas, &src.Canvas
	mergeFloat(&c.MinZoom, s.MinZoom)
	mergeFloat(&c.MaxZoom, s.MaxZoom)
	mergeFloat(&c.GridSize, s.GridSize)
	mergeFloat(&c.ZoomSensitivity, s.ZoomSensitivity)
	mergeFloat(&c.ClickThreshold, s.ClickThreshold)
	mergeFloat(&c.DefaultZoom, s.DefaultZoom)
	c.SnapToGrid = s.SnapToGrid
	if s.PreventScroll != nil {
		v := *s.PreventScroll
		c.PreventScroll = &v
	}
	c.DefaultPosition = s.DefaultPosition
	if p := strings.ToLower(strings.TrimSpace(s.BackgroundPattern)); p != "" {
		c.BackgroundPattern = p
	}
}

func mergeFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func envFloat(name string, dst *float64) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	envFloat(EnvMinZoom, &cfg.Canvas.MinZoom)
	envFloat(EnvMaxZoom, &cfg.Canvas.MaxZoom)
	envFloat(EnvGridSize, &cfg.Canvas.GridSize)
	envFloat(EnvZoomSensitivity, &cfg.Canvas.ZoomSensitivity)
	if v := strings.TrimSpace(os.Getenv(EnvSnapToGrid)); v != "" {
		cfg.Canvas.SnapToGrid = truthy(v)
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

var envKeys = map[string]string{
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"canvas.min_zoom":          EnvMinZoom,
	"canvas.max_zoom":          EnvMaxZoom,
	"canvas.grid_size":         EnvGridSize,
	"canvas.snap_to_grid":      EnvSnapToGrid,
	"canvas.zoom_sensitivity":  EnvZoomSensitivity,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Normalized returns a copy with unusable values repaired: non-finite or
// non-positive numbers fall back to defaults and inverted zoom bounds are swapped.
func (c CanvasConfig) Normalized() CanvasConfig {
	d := Defaults().Canvas
	if !finite(c.MinZoom) || c.MinZoom <= 0 {
		c.MinZoom = d.MinZoom
	}
	if !finite(c.MaxZoom) || c.MaxZoom <= 0 {
		c.MaxZoom = d.MaxZoom
	}
	if c.MaxZoom < c.MinZoom {
		c.MinZoom, c.MaxZoom = c.MaxZoom, c.MinZoom
	}
	if !finite(c.GridSize) || c.GridSize <= 0 {
		c.GridSize = d.GridSize
	}
	if !finite(c.ZoomSensitivity) || c.ZoomSensitivity <= 0 {
		c.ZoomSensitivity = d.ZoomSensitivity
	}
	if !finite(c.ClickThreshold) || c.ClickThreshold < 0 {
		c.ClickThreshold = d.ClickThreshold
	}
	if !finite(c.DefaultZoom) || c.DefaultZoom <= 0 {
		c.DefaultZoom = d.DefaultZoom
	}
	c.DefaultZoom = geom.Clamp(c.DefaultZoom, c.MinZoom, c.MaxZoom)
	if !finite(c.DefaultPosition.X) || !finite(c.DefaultPosition.Y) {
		c.DefaultPosition = PointConfig{}
	}
	if c.PreventScroll == nil {
		c.PreventScroll = d.PreventScroll
	}
	switch c.BackgroundPattern {
	case "dots", "lines", "none":
	default:
		c.BackgroundPattern = d.BackgroundPattern
	}
	return c
}

// Preventing reports the effective prevent_scroll value.
func (c CanvasConfig) Preventing() bool { return c.PreventScroll == nil || *c.PreventScroll }

// CanvasSettings is the canvas section translated into component options.
type CanvasSettings struct {
	Store      viewstate.Options
	Board      board.Options
	Background string
}

// Settings converts the (normalized) canvas section into store and board options.
// The board callbacks are left for the caller to fill in.
func (c AppConfig) Settings() CanvasSettings {
	cv := c.Canvas.Normalized()
	return CanvasSettings{
		Store: viewstate.Options{
			MinZoom:     cv.MinZoom,
			MaxZoom:     cv.MaxZoom,
			DefaultPan:  geom.Pt{X: cv.DefaultPosition.X, Y: cv.DefaultPosition.Y},
			DefaultZoom: cv.DefaultZoom,
		},
		Board: board.Options{
			SnapToGrid:     cv.SnapToGrid,
			GridSize:       cv.GridSize,
			ClickThreshold: clickThreshold(cv.ClickThreshold),
			PanZoom: interact.PanZoomOptions{
				ZoomSensitivity: cv.ZoomSensitivity,
				AllowScroll:     !cv.Preventing(),
			},
		},
		Background: cv.BackgroundPattern,
	}
}

// A configured zero means "no slack": the dragger spells that as a negative threshold.
func clickThreshold(v float64) float64 {
	if v == 0 {
		return -1
	}
	return v
}
