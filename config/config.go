package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	OCRBackendTesseract = "tesseract"
	OCRBackendPaddle    = "paddle"
)

type Config struct {
	ServerPort        string   `yaml:"server_port"`
	TesseractDataPath string   `yaml:"tesseract_data_path"`
	OCRLanguages      []string `yaml:"ocr_languages"`
	MaxFileSize       int64    `yaml:"max_file_size"`

	// OCRBackend selects the recognizer for scanned payslips: tesseract or paddle.
	OCRBackend string `yaml:"ocr_backend"`
	PaddleURL  string `yaml:"paddle_url"`

	// MinTextLength is the amount of text below which a PDF is treated as
	// scanned and sent through OCR.
	MinTextLength int `yaml:"min_text_length"`

	Tolerance                 decimal.Decimal `yaml:"tolerance"`
	StockWithholdingTolerance decimal.Decimal `yaml:"stock_withholding_tolerance"`

	QSTDir    string `yaml:"qst_dir"`
	RatesFile string `yaml:"rates_file"`
	// HistoryDB is the SQLite file the server stores reports in; empty disables it.
	HistoryDB string `yaml:"history_db"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerPort:                "8080",
		TesseractDataPath:         "/usr/share/tesseract-ocr/5/tessdata",
		OCRLanguages:              []string{"deu", "fra", "ita", "eng"},
		OCRBackend:                OCRBackendTesseract,
		MaxFileSize:               10 * 1024 * 1024, // 10 MB
		MinTextLength:             50,
		Tolerance:                 decimal.RequireFromString("0.01"),
		StockWithholdingTolerance: decimal.NewFromInt(1),
	}
}

// LoadConfig returns the defaults overlaid with the YAML file at path. An
// empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("server_port must not be empty")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("max_file_size must be positive")
	}
	if c.Tolerance.IsNegative() || c.StockWithholdingTolerance.IsNegative() {
		return errors.New("tolerances must not be negative")
	}
	if c.OCRBackend != OCRBackendTesseract && c.OCRBackend != OCRBackendPaddle {
		return fmt.Errorf("unknown ocr_backend %q", c.OCRBackend)
	}
	if len(c.OCRLanguages) == 0 {
		return errors.New("ocr_languages must not be empty")
	}
	return nil
}
