package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for FastGTD operations.
var (
	// ErrBadRule indicates a malformed rule definition (unknown condition
	// type or operator, wrong operand arity, invalid logic connective).
	// Maps to a 4xx response; never retried.
	ErrBadRule = errors.New("invalid rule definition")

	// ErrRuleNotFound indicates a rule is missing or not visible to the
	// caller. Visibility failures deliberately collapse into not-found so
	// the API leaks nothing about rules the caller cannot read.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrSmartFolderNotFound indicates the requested node is missing, not
	// owned by the caller, or not a smart folder.
	ErrSmartFolderNotFound = errors.New("smart folder not found")
)

// ConditionError identifies the offending condition inside a malformed
// rule definition. Unwraps to ErrBadRule.
type ConditionError struct {
	Index    int    // position in the conditions list
	Type     string // declared condition type
	Operator string // declared operator
	Reason   string
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition %d (%s %s): %s", e.Index, e.Type, e.Operator, e.Reason)
}

func (e *ConditionError) Unwrap() error {
	return ErrBadRule
}
