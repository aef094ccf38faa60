package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validatePrompt(); err != nil {
		return err
	}
	if c.Snapshot.LockTimeoutSeconds < 0 {
		return errors.New("snapshot.lock_timeout_seconds must be zero or positive")
	}
	return c.validateLogging()
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.BatchSize <= 0 {
		return errors.New("pipeline.batch_size must be positive")
	}
	if c.Pipeline.InputBuffer < 0 {
		return errors.New("pipeline.input_buffer must be zero or positive")
	}
	if c.Pipeline.OutputBuffer < 0 {
		return errors.New("pipeline.output_buffer must be zero or positive")
	}
	return nil
}

func (c *Config) validatePrompt() error {
	switch c.Prompt.Style {
	case PromptStyleAuto, PromptStyleLine, PromptStyleTUI:
	default:
		return fmt.Errorf("prompt.style: unsupported value %q (want auto, line, or tui)", c.Prompt.Style)
	}
	return validateTemplate(c.Prompt.Template)
}

// templateSampleValue stands in for an input value when rendering the
// prompt template during validation.
const templateSampleValue = "ctrlvocab-sample-value"

// validateTemplate renders the template the way the prompter does and
// rejects it unless the value appears exactly once with no format errors.
func validateTemplate(template string) error {
	rendered := fmt.Sprintf(template, templateSampleValue)
	if strings.Contains(rendered, "%!") {
		return fmt.Errorf("prompt.template: %q does not render with one value (got %q)", template, rendered)
	}
	if strings.Count(rendered, templateSampleValue) != 1 {
		return fmt.Errorf("prompt.template: %q must show the value exactly once, e.g. with one %%s", template)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
