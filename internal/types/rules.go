package types

import "time"

/*
 * Rule entities and the wire shape for rule definitions.
 *
 * RuleData is the storage and transport contract shared by the Rule entity
 * and the legacy inline "rules" column on smart folders:
 *
 *   {"logic": "AND"|"OR", "conditions": [{"type", "operator", "values"}]}
 *
 * The shape round-trips through editing UIs unchanged; semantic validation
 * (legal operators per type, operand arity) happens at compile time in
 * internal/rules, not here.
 */

// Logic combines per-condition results within one rule.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Condition is one predicate leaf within a rule definition.
// Type and Operator are untrusted strings from storage or request bodies;
// internal/rules.Compile resolves them to closed enums.
type Condition struct {
	Type     string   `json:"type"`
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
}

// RuleData is a complete rule definition: a logic connective over
// condition leaves.
type RuleData struct {
	Logic      Logic       `json:"logic"`
	Conditions []Condition `json:"conditions"`
}

// Rule is a named, storable, shareable rule definition.
// Readable by a caller iff owned by the caller, public, or system.
type Rule struct {
	ID          RuleID    `json:"id"`
	OwnerID     OwnerID   `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	RuleData    RuleData  `json:"rule_data"`
	IsPublic    bool      `json:"is_public"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VisibleTo reports whether the rule is readable by the given owner.
func (r *Rule) VisibleTo(owner OwnerID) bool {
	return r.OwnerID == owner || r.IsPublic || r.IsSystem
}
