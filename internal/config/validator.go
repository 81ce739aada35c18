package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "timing.turn_timeout_seconds")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateRoster()...)
	errors = append(errors, c.validateTiming()...)
	errors = append(errors, c.validateSignals()...)
	errors = append(errors, c.validateGeneration()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateRoster validates the RosterConfig
func (c *Config) validateRoster() []ValidationError {
	var errors []ValidationError

	seen := make(map[string]bool, len(c.Roster.Order))
	for _, id := range c.Roster.Order {
		if id == "" {
			errors = append(errors, ValidationError{
				Field:   "roster.order",
				Value:   c.Roster.Order,
				Message: "must not contain empty participant ids",
			})
			break
		}
		if seen[id] {
			errors = append(errors, ValidationError{
				Field:   "roster.order",
				Value:   id,
				Message: "must not contain duplicate participant ids",
			})
		}
		seen[id] = true
	}

	return errors
}

// validateTiming validates the TimingConfig
func (c *Config) validateTiming() []ValidationError {
	var errors []ValidationError

	if c.Timing.TurnTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "timing.turn_timeout_seconds",
			Value:   c.Timing.TurnTimeoutSeconds,
			Message: "must be greater than zero",
		})
	}

	if c.Timing.SkipInactivityMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "timing.skip_inactivity_minutes",
			Value:   c.Timing.SkipInactivityMinutes,
			Message: "must be greater than zero",
		})
	}

	if c.Timing.SessionTimeoutMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "timing.session_timeout_minutes",
			Value:   c.Timing.SessionTimeoutMinutes,
			Message: "must be greater than zero",
		})
	}

	if c.Timing.TurnDelayMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "timing.turn_delay_ms",
			Value:   c.Timing.TurnDelayMs,
			Message: "must be non-negative",
		})
	}

	for _, hour := range c.Timing.UTCHours {
		if hour < 0 || hour > 23 {
			errors = append(errors, ValidationError{
				Field:   "timing.utc_hours",
				Value:   hour,
				Message: "must be between 0 and 23",
			})
		}
	}

	return errors
}

// validateSignals validates the SignalConfig
func (c *Config) validateSignals() []ValidationError {
	var errors []ValidationError

	if c.Signals.TranscriptLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "signals.transcript_limit",
			Value:   c.Signals.TranscriptLimit,
			Message: "must be greater than zero",
		})
	}

	return errors
}

// validateGeneration validates the GenerationConfig
func (c *Config) validateGeneration() []ValidationError {
	var errors []ValidationError

	if c.Generation.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "generation.timeout_seconds",
			Value:   c.Generation.TimeoutSeconds,
			Message: "must be greater than zero",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
