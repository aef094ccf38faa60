package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizePrompt()
	c.normalizeLogging()
	return c.normalizePaths()
}

func (c *Config) normalizePrompt() {
	c.Prompt.Style = strings.ToLower(strings.TrimSpace(c.Prompt.Style))
	if c.Prompt.Style == "" {
		c.Prompt.Style = defaultPromptStyle
	}
	if strings.TrimSpace(c.Prompt.Template) == "" {
		c.Prompt.Template = defaultPromptTemplate
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("CTRLVOCAB_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = ""
		return nil
	}
	dir, err := expandPath(strings.TrimSpace(c.Logging.Dir))
	if err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	c.Logging.Dir = dir
	return nil
}
