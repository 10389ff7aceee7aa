package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxAgentNameLength = 255
	MaxServiceFee      = "1000000000000" // 1 trillion
	MaxPageSize        = 1000
	DefaultPageSize    = 50
)

var maxServiceFee = decimal.RequireFromString(MaxServiceFee)

// ValidateServiceFee validates the total service fee of a new transaction.
func ValidateServiceFee(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return &InvalidValueError{Field: ChangeTotalServiceFee, Value: fee.String(), Reason: "must not be negative"}
	}

	if fee.GreaterThan(maxServiceFee) {
		return &InvalidValueError{Field: ChangeTotalServiceFee, Value: fee.String(), Reason: "exceeds maximum of " + MaxServiceFee}
	}

	return nil
}

// ValidateEarnestMoney validates an earnest money amount.
func ValidateEarnestMoney(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return &InvalidValueError{Field: ChangeEarnestMoney, Value: amount.String(), Reason: "must not be negative"}
	}
	return nil
}

// ValidateAgentName validates a listing or selling agent identifier.
func ValidateAgentName(field, name string) error {
	name = normalizeAgent(name)

	if name == "" {
		return &MissingRequiredFieldError{Field: field}
	}

	if utf8.RuneCountInString(name) > MaxAgentNameLength {
		return &InvalidValueError{
			Field:  field,
			Value:  string([]rune(name)[:16]) + "...",
			Reason: fmt.Sprintf("exceeds %d characters", MaxAgentNameLength),
		}
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

func normalizeAgent(name string) string {
	return strings.TrimSpace(name)
}
