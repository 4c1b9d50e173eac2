package config

import (
	"fmt"
	"image/color"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	FPS             int     `yaml:"fps"`
	DurationSeconds int     `yaml:"duration"`
	HighlightedText string  `yaml:"highlighted_text"`
	HighlightColor  string  `yaml:"highlight_color"`
	TextColor       string  `yaml:"text_color"`
	BackgroundColor string  `yaml:"background_color"`
	BlurType        string  `yaml:"blur_type"` // gaussian, radial, none
	BlurRadius      float64 `yaml:"blur_radius"`
	AIEnabled       bool    `yaml:"ai_enabled"`
	AIProvider      string  `yaml:"ai_provider"` // mistral, gemini, random

	FontDir     string `yaml:"font_dir"`
	OutputVideo string `yaml:"output"`

	FontSizeRatio     float64 `yaml:"font_size_ratio"`
	MinLines          int     `yaml:"min_lines"`
	MaxLines          int     `yaml:"max_lines"`
	VerticalSpread    float64 `yaml:"vertical_spread"`
	RadialSharpFactor float64 `yaml:"radial_sharp_factor"`
	PoolSize          int     `yaml:"pool_size"`
	MaxFontRetries    int     `yaml:"max_font_retries"`

	VideoEncoder string `yaml:"video_encoder"`
	Quality      int    `yaml:"quality"`
	Threads      int    `yaml:"threads"`
}

// Default возвращает конфигурацию с параметрами оригинального эффекта.
func Default() *Config {
	return &Config{
		Width:             1024,
		Height:            1024,
		FPS:               10,
		DurationSeconds:   5,
		HighlightedText:   "Mother of Dragons",
		HighlightColor:    "#FFFF00",
		TextColor:         "#000000",
		BackgroundColor:   "#FFFFFF",
		BlurType:          "radial",
		BlurRadius:        4.0,
		AIProvider:        "mistral",
		FontDir:           "fonts",
		FontSizeRatio:     0.05,
		MinLines:          7,
		MaxLines:          10,
		VerticalSpread:    1.5,
		RadialSharpFactor: 0.3,
		PoolSize:          2,
		MaxFontRetries:    5,
	}
}

// Load читает YAML-файл поверх значений по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}
	return cfg, nil
}

// Validate проверяет диапазоны значений до запуска генерации.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HighlightedText) == "" {
		return fmt.Errorf("highlighted_text не может быть пустым")
	}
	if c.FPS < 1 || c.FPS > 60 {
		return fmt.Errorf("fps должен быть в диапазоне 1-60, получено %d", c.FPS)
	}
	if c.DurationSeconds < 1 || c.DurationSeconds > 60 {
		return fmt.Errorf("duration должен быть в диапазоне 1-60 секунд, получено %d", c.DurationSeconds)
	}
	if c.Width < 256 || c.Width > 4096 || c.Height < 256 || c.Height > 4096 {
		return fmt.Errorf("размеры кадра должны быть в диапазоне 256-4096, получено %dx%d", c.Width, c.Height)
	}
	switch c.BlurType {
	case "gaussian", "radial", "none":
	default:
		return fmt.Errorf("неизвестный blur_type %q (ожидается gaussian, radial или none)", c.BlurType)
	}
	if c.BlurRadius < 0 {
		return fmt.Errorf("blur_radius не может быть отрицательным")
	}
	if c.MinLines < 1 || c.MaxLines < c.MinLines {
		return fmt.Errorf("некорректный диапазон строк: min=%d max=%d", c.MinLines, c.MaxLines)
	}
	switch c.AIProvider {
	case "", "mistral", "gemini", "random":
	default:
		return fmt.Errorf("неизвестный ai_provider %q", c.AIProvider)
	}
	if _, err := ParseColor(c.HighlightColor); err != nil {
		return err
	}
	if _, err := ParseColor(c.TextColor); err != nil {
		return err
	}
	if _, err := ParseColor(c.BackgroundColor); err != nil {
		return err
	}
	return nil
}

// TotalFrames возвращает число кадров итогового видео.
func (c *Config) TotalFrames() int {
	return c.FPS * c.DurationSeconds
}

// FontSize вычисляет размер шрифта в пикселях от высоты кадра.
func (c *Config) FontSize() int {
	return int(float64(c.Height) * c.FontSizeRatio)
}

var namedColors = map[string]color.RGBA{
	"yellow": {R: 255, G: 255, B: 0, A: 255},
	"black":  {A: 255},
	"white":  {R: 255, G: 255, B: 255, A: 255},
	"red":    {R: 255, A: 255},
	"green":  {G: 128, A: 255},
	"blue":   {B: 255, A: 255},
}

// ParseColor понимает hex-форматы #RGB/#RRGGBB и несколько именованных цветов.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	var r, g, b uint8
	switch len(hex) {
	case 3:
		if _, err := fmt.Sscanf(hex, "%1x%1x%1x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("не удалось разобрать цвет %q", s)
		}
		return color.RGBA{R: r * 17, G: g * 17, B: b * 17, A: 255}, nil
	case 6:
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("не удалось разобрать цвет %q", s)
		}
		return color.RGBA{R: r, G: g, B: b, A: 255}, nil
	}
	return color.RGBA{}, fmt.Errorf("не удалось разобрать цвет %q", s)
}
