// Package config loads and validates the recorder configuration.
//
// Configuration is a YAML document validated against an embedded CUE
// schema before any component consumes it, so malformed regions or
// encoder options are rejected with positions instead of surfacing as
// runtime misbehavior.
package config

import (
	"fmt"
	"image/color"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clickreel/clickreel/internal/encode"
	"github.com/clickreel/clickreel/internal/redact"
)

// Config is the full recorder configuration document.
type Config struct {
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Capture CaptureConfig `yaml:"capture" json:"capture"`
	Redact  RedactConfig  `yaml:"redact" json:"redact"`
	Encode  EncodeConfig  `yaml:"encode" json:"encode"`
	Record  RecordConfig  `yaml:"record" json:"record"`
}

// StorageConfig locates the durable store.
type StorageConfig struct {
	Path string `yaml:"path" json:"path"`
}

// CaptureConfig fixes the qualifying-click policy. Whether an armed
// capture happens before or after the click's own default action is a
// configuration decision, not an inference.
type CaptureConfig struct {
	Click string `yaml:"click" json:"click"` // "before" | "after"
}

// RedactConfig lists regions masked before persistence.
type RedactConfig struct {
	Fill    string          `yaml:"fill" json:"fill"` // #rrggbb for solid regions
	Regions []redact.Region `yaml:"regions" json:"regions"`
}

// EncodeConfig holds encoder options in document form.
type EncodeConfig struct {
	PaletteSize     int    `yaml:"palette_size" json:"palette_size"`
	MinDelayMs      int    `yaml:"min_delay_ms" json:"min_delay_ms"`
	LastFrameHoldMs int    `yaml:"last_frame_hold_ms" json:"last_frame_hold_ms"`
	LoopCount       int    `yaml:"loop_count" json:"loop_count"`
	Normalize       string `yaml:"normalize" json:"normalize"` // "pad" | "scale"
	Fill            string `yaml:"fill" json:"fill"`
	Cumulative      bool   `yaml:"cumulative" json:"cumulative"`
}

// RecordConfig tunes the CLI directory-replay workflow.
type RecordConfig struct {
	IntervalMs int `yaml:"interval_ms" json:"interval_ms"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Path: "clickreel.db"},
		Capture: CaptureConfig{Click: "after"},
		Redact:  RedactConfig{Fill: "#000000"},
		Encode: EncodeConfig{
			PaletteSize:     256,
			MinDelayMs:      20,
			LastFrameHoldMs: 1000,
			LoopCount:       0,
			Normalize:       "pad",
			Fill:            "#ffffff",
		},
		Record: RecordConfig{IntervalMs: 500},
	}
}

// Load reads a YAML config file, fills unset fields from Default, and
// validates the result against the embedded CUE schema.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EncodeOptions converts the document form to encoder options.
func (c *Config) EncodeOptions() encode.Options {
	fill, _ := ParseHexColor(c.Encode.Fill) // schema guarantees the format
	return encode.Options{
		PaletteSize:   c.Encode.PaletteSize,
		MinDelay:      time.Duration(c.Encode.MinDelayMs) * time.Millisecond,
		LastFrameHold: time.Duration(c.Encode.LastFrameHoldMs) * time.Millisecond,
		LoopCount:     c.Encode.LoopCount,
		Normalize:     encode.NormalizeMode(c.Encode.Normalize),
		FillColor:     fill,
		Cumulative:    c.Encode.Cumulative,
	}
}

// Obfuscator builds the configured redaction filter, or nil when no
// regions are configured.
func (c *Config) Obfuscator() *redact.Obfuscator {
	if len(c.Redact.Regions) == 0 {
		return nil
	}
	fill, _ := ParseHexColor(c.Redact.Fill)
	return redact.New(c.Redact.Regions, fill)
}

// RecordInterval returns the simulated capture spacing for directory
// replay.
func (c *Config) RecordInterval() time.Duration {
	return time.Duration(c.Record.IntervalMs) * time.Millisecond
}

// ParseHexColor parses "#rrggbb" into an opaque RGBA color.
func ParseHexColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
