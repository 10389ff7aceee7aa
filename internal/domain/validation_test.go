package domain

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

func TestValidateAgentName(t *testing.T) {
	t.Parallel()

	t.Run("valid name", func(t *testing.T) {
		if err := ValidateAgentName(ChangeListingAgent, "Alice"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("blank name rejected", func(t *testing.T) {
		err := ValidateAgentName(ChangeSellingAgent, "   ")
		if !errors.Is(err, ErrMissingRequiredField) {
			t.Fatalf("expected ErrMissingRequiredField, got %v", err)
		}

		var missing *MissingRequiredFieldError
		if !errors.As(err, &missing) || missing.Field != ChangeSellingAgent {
			t.Fatalf("expected field %q, got %v", ChangeSellingAgent, err)
		}
	})

	t.Run("name too long", func(t *testing.T) {
		tooLong := strings.Repeat("a", MaxAgentNameLength+1)
		err := ValidateAgentName(ChangeListingAgent, tooLong)
		if !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("expected ErrInvalidValue, got %v", err)
		}
	})

	t.Run("multibyte name counted in characters", func(t *testing.T) {
		if err := ValidateAgentName(ChangeListingAgent, strings.Repeat("ş", 200)); err != nil {
			t.Fatalf("expected 200 two-byte characters to pass, got %v", err)
		}

		err := ValidateAgentName(ChangeListingAgent, strings.Repeat("ş", MaxAgentNameLength+1))
		var invalid *InvalidValueError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidValueError, got %v", err)
		}
		if !utf8.ValidString(invalid.Value) {
			t.Fatalf("truncated value is not valid UTF-8: %q", invalid.Value)
		}
	})
}

func TestValidateServiceFee(t *testing.T) {
	t.Parallel()

	if err := ValidateServiceFee(decimal.NewFromInt(10000)); err != nil {
		t.Fatalf("expected valid fee, got %v", err)
	}

	if err := ValidateServiceFee(decimal.Zero); err != nil {
		t.Fatalf("expected zero fee to be accepted, got %v", err)
	}

	if err := ValidateServiceFee(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for negative fee, got %v", err)
	}

	huge := decimal.RequireFromString(MaxServiceFee).Add(decimal.NewFromInt(1))
	if err := ValidateServiceFee(huge); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for huge fee, got %v", err)
	}
}

func TestValidateEarnestMoney(t *testing.T) {
	t.Parallel()

	if err := ValidateEarnestMoney(decimal.Zero); err != nil {
		t.Fatalf("expected zero earnest money to be accepted, got %v", err)
	}

	if err := ValidateEarnestMoney(decimal.RequireFromString("-0.01")); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset := ValidatePagination(0, -5)
	if limit != DefaultPageSize || offset != 0 {
		t.Fatalf("unexpected defaults: limit=%d offset=%d", limit, offset)
	}

	limit, _ = ValidatePagination(MaxPageSize+10, 0)
	if limit != MaxPageSize {
		t.Fatalf("expected limit capped to %d, got %d", MaxPageSize, limit)
	}
}
