package validator

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// UUID validation (any version, canonical or braced form)
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var periodKeyRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// IsValidPeriodKey checks the canonical "YYYY-MM" payroll period key.
func IsValidPeriodKey(key string) bool {
	return periodKeyRegex.MatchString(key)
}

// Transaction / component codes: 2-32 chars, upper-case letters, digits and underscore.
var codeRegex = regexp.MustCompile(`^[A-Z0-9_]{2,32}$`)

func IsValidCode(code string) bool {
	return codeRegex.MatchString(code)
}

// IsRate reports whether d is a fraction in [0, 1].
func IsRate(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1))
}

// IsNonNegative is true for zero and positive amounts.
func IsNonNegative(d decimal.Decimal) bool {
	return !d.IsNegative()
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
