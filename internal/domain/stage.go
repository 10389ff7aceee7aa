package domain

import (
	"fmt"
	"strings"
)

// Stage is a position in the fixed transaction workflow.
// The zero value is not a valid stage.
type Stage uint8

const (
	StageAgreement Stage = iota + 1
	StageEarnestMoney
	StageTitleDeed
	StageCompleted
)

// Stages lists every stage in workflow order.
var Stages = []Stage{StageAgreement, StageEarnestMoney, StageTitleDeed, StageCompleted}

// ParseStage converts a wire value into a Stage.
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agreement":
		return StageAgreement, nil
	case "earnest_money":
		return StageEarnestMoney, nil
	case "title_deed":
		return StageTitleDeed, nil
	case "completed":
		return StageCompleted, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStage, s)
	}
}

// String returns the wire value of the stage.
func (s Stage) String() string {
	switch s {
	case StageAgreement:
		return "agreement"
	case StageEarnestMoney:
		return "earnest_money"
	case StageTitleDeed:
		return "title_deed"
	case StageCompleted:
		return "completed"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// IsValid reports whether s is one of the known stages.
func (s Stage) IsValid() bool {
	return s >= StageAgreement && s <= StageCompleted
}

// IsTerminal reports whether no transition leaves s.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted
}

// Next returns the single stage reachable from s.
// ok is false for the terminal stage and for invalid values.
func (s Stage) Next() (next Stage, ok bool) {
	switch s {
	case StageAgreement:
		return StageEarnestMoney, true
	case StageEarnestMoney:
		return StageTitleDeed, true
	case StageTitleDeed:
		return StageCompleted, true
	case StageCompleted:
		return 0, false
	default:
		return 0, false
	}
}

// CanTransition checks if moving from one stage to another is allowed.
func CanTransition(from, to Stage) bool {
	next, ok := from.Next()
	return ok && next == to
}

// ValidateTransition returns an *InvalidTransitionError if the move is not allowed.
func ValidateTransition(from, to Stage) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{Current: from, Requested: to}
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStage, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	parsed, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
