package sync

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

type ValidationErrorCode string

const (
	CodeRequiredField       ValidationErrorCode = "REQUIRED_FIELD"
	CodeFieldTooLong        ValidationErrorCode = "FIELD_TOO_LONG"
	CodeInvalidURL          ValidationErrorCode = "INVALID_URL"
	CodeInvalidEnumValue    ValidationErrorCode = "INVALID_ENUM_VALUE"
	CodeInvalidDateTime     ValidationErrorCode = "INVALID_DATETIME"
	CodeConstraintViolation ValidationErrorCode = "CONSTRAINT_VIOLATION"
	CodeMissingDependency   ValidationErrorCode = "MISSING_DEPENDENCY"
)

// ValidationError is a structured, non-thrown validation failure. Field
// names follow the platform wire names (headline, click_url, ...) because
// the reporting layer surfaces them verbatim.
type ValidationError struct {
	EntityType string              `json:"entityType"`
	EntityID   string              `json:"entityId"`
	EntityName string              `json:"entityName,omitempty"`
	Field      string              `json:"field"`
	Code       ValidationErrorCode `json:"code"`
	Message    string              `json:"message"`
	Value      string              `json:"value,omitempty"`
	Expected   string              `json:"expected,omitempty"`
}

const dateTimeExpected = "ISO-8601 datetime with explicit timezone offset or Z suffix, e.g. 2025-01-15T09:00:00Z"

// validateRequiredURLField checks a mandatory click-through URL: missing is
// REQUIRED_FIELD, malformed or non-HTTP(S) is INVALID_URL.
func validateRequiredURLField(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Code:    CodeRequiredField,
			Message: fmt.Sprintf("%s is required", field),
		}
	}

	parsed, err := url.Parse(value)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return &ValidationError{
			Field:    field,
			Code:     CodeInvalidURL,
			Message:  fmt.Sprintf("%s must be a well-formed absolute URL", field),
			Value:    value,
			Expected: "absolute http:// or https:// URL",
		}
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return &ValidationError{
			Field:    field,
			Code:     CodeInvalidURL,
			Message:  fmt.Sprintf("%s has unsupported scheme %q", field, parsed.Scheme),
			Value:    value,
			Expected: "absolute http:// or https:// URL",
		}
	}

	return nil
}

// validateMaxLength enforces an inclusive character-count ceiling. Length
// is counted in runes, matching how the platforms count characters.
func validateMaxLength(field, value string, limit int) *ValidationError {
	length := utf8.RuneCountInString(value)
	if length <= limit {
		return nil
	}

	return &ValidationError{
		Field:    field,
		Code:     CodeFieldTooLong,
		Message:  fmt.Sprintf("%s is %d characters, maximum is %d", field, length, limit),
		Value:    value,
		Expected: fmt.Sprintf("at most %d characters", limit),
	}
}

// normalizeEnumValue folds casing and hyphen/underscore variants so
// "learn-more" validates the same as "LEARN_MORE".
func normalizeEnumValue(value string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), "-", "_"))
}

func validateEnumField(field, value string, allowed []string) *ValidationError {
	normalized := normalizeEnumValue(value)
	for _, candidate := range allowed {
		if normalized == candidate {
			return nil
		}
	}

	return &ValidationError{
		Field:    field,
		Code:     CodeInvalidEnumValue,
		Message:  fmt.Sprintf("%s value %q is not allowed", field, value),
		Value:    value,
		Expected: "one of " + strings.Join(allowed, ", "),
	}
}

// validateDateTimeField requires an ISO-8601 datetime with an explicit
// timezone. A bare date or a timezone-less datetime is rejected.
func validateDateTimeField(field, value string) *ValidationError {
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return &ValidationError{
			Field:    field,
			Code:     CodeInvalidDateTime,
			Message:  fmt.Sprintf("%s must be an %s", field, dateTimeExpected),
			Value:    value,
			Expected: dateTimeExpected,
		}
	}
	return nil
}

// validateDateTimeRange requires end to be strictly after start; equal
// timestamps are a violation. Both values must already be individually
// valid — callers check that first and skip the range check otherwise.
func validateDateTimeRange(startField, endField, start, end string) *ValidationError {
	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return nil
	}
	endTime, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return nil
	}

	if !endTime.After(startTime) {
		return &ValidationError{
			Field:    endField,
			Code:     CodeConstraintViolation,
			Message:  fmt.Sprintf("%s must be strictly after %s", endField, startField),
			Value:    end,
			Expected: fmt.Sprintf("a datetime after %s", start),
		}
	}
	return nil
}
