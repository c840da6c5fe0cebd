// Package config handles configuration loading and shared defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration file structure. Every field has a
// usable default; a missing config file yields Default().
type Config struct {
	Texture TextureConfig `yaml:"texture"`
	AI      AIConfig      `yaml:"ai"`
	Uploads UploadsConfig `yaml:"uploads"`
}

// TextureConfig controls texture normalization and encoding.
type TextureConfig struct {
	Format       string `yaml:"format"`        // jpeg, webp or png
	Quality      int    `yaml:"quality"`       // 1-100, lossy formats only
	MaxDimension int    `yaml:"max_dimension"` // cap on the longer edge
	Parallelism  int    `yaml:"parallelism"`   // concurrent decode/encode slots, 0 = GOMAXPROCS
}

// AIConfig points at an OpenAI-compatible endpoint for vision and text
// generation. An empty key disables all AI features.
type AIConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "45s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// UploadsConfig controls where raw uploads are kept.
type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Texture: TextureConfig{
			Format:       "jpeg",
			Quality:      85,
			MaxDimension: 2048,
		},
		AI: AIConfig{
			Timeout: Duration(45 * time.Second),
		},
		Uploads: UploadsConfig{
			Dir: "uploads",
		},
	}
}

// Load reads and parses the YAML configuration file from the specified
// path, layering it over the defaults. A missing file is not an error.
// The AI API key may also come from the CONTOUR_AI_KEY environment
// variable, which wins over the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overlay
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if key := os.Getenv("CONTOUR_AI_KEY"); key != "" {
		cfg.AI.APIKey = key
	}
	if base := os.Getenv("CONTOUR_AI_BASE_URL"); base != "" {
		cfg.AI.BaseURL = base
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Texture.Format {
	case "jpeg", "webp", "png":
	default:
		return fmt.Errorf("unknown texture format %q", c.Texture.Format)
	}
	if c.Texture.Quality < 1 || c.Texture.Quality > 100 {
		return fmt.Errorf("texture quality %d outside 1-100", c.Texture.Quality)
	}
	if c.Texture.MaxDimension < 1 {
		return fmt.Errorf("texture max_dimension must be positive")
	}
	return nil
}
