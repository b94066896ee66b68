package config

import (
	"fmt"
	"strings"
)

// ValidationError describes a single invalid configuration value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors aggregates all validation failures for one Load.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid configuration:\n  " + strings.Join(msgs, "\n  ")
}

// ValidLogLevels returns the accepted logging.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the configuration for invalid values. It returns all
// problems found rather than stopping at the first.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Backend.BaseURL == "" {
		errs = append(errs, ValidationError{"backend.base_url", c.Backend.BaseURL, "must not be empty"})
	} else if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		errs = append(errs, ValidationError{"backend.base_url", c.Backend.BaseURL, "must start with http:// or https://"})
	}
	if c.Backend.ProbeTimeoutMs <= 0 {
		errs = append(errs, ValidationError{"backend.probe_timeout_ms", c.Backend.ProbeTimeoutMs, "must be positive"})
	}

	if c.Realtime.HandshakeTimeoutMs <= 0 {
		errs = append(errs, ValidationError{"realtime.handshake_timeout_ms", c.Realtime.HandshakeTimeoutMs, "must be positive"})
	}

	if c.Session.AutosaveDebounceMs <= 0 {
		errs = append(errs, ValidationError{"session.autosave_debounce_ms", c.Session.AutosaveDebounceMs, "must be positive"})
	}

	if c.Quota.MaxQuestions < 0 {
		errs = append(errs, ValidationError{"quota.max_questions", c.Quota.MaxQuestions, "must not be negative"})
	}
	if c.Quota.MaxAnswers < 0 {
		errs = append(errs, ValidationError{"quota.max_answers", c.Quota.MaxAnswers, "must not be negative"})
	}

	if c.Generate.DefaultCount <= 0 {
		errs = append(errs, ValidationError{"generate.default_count", c.Generate.DefaultCount, "must be positive"})
	}
	if c.Generate.WaitTimeoutSec <= 0 {
		errs = append(errs, ValidationError{"generate.wait_timeout_sec", c.Generate.WaitTimeoutSec, "must be positive"})
	}

	level := strings.ToLower(c.Logging.Level)
	valid := false
	for _, l := range ValidLogLevels() {
		if level == l {
			valid = true
			break
		}
	}
	if !valid {
		errs = append(errs, ValidationError{"logging.level", c.Logging.Level,
			"must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}

	return errs
}
