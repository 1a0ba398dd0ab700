// Package rules implements the smart folder rule evaluation engine.
//
// A rule definition arrives as untrusted wire data (types.RuleData) and is
// compiled into a CompiledRule before evaluation: condition type and
// operator strings resolve to closed enums, operand literals parse into
// typed values, and arity violations surface as *types.ConditionError.
// Evaluation over an already-compiled rule cannot hit an "unknown type"
// path; malformed stored data fails at compile time, once per request,
// instead of once per candidate node.
package rules

import (
	"strconv"
	"strings"
	"time"

	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

// ConditionKind is the closed set of condition types a rule may use.
type ConditionKind int

const (
	CondNodeType ConditionKind = iota
	CondTaskStatus
	CondTaskPriority
	CondDueDate
	CondEarliestStart
	CondTitle
	CondTag
	CondParent
	CondAncestor
	CondHasChildren
	CondSavedFilter
)

// Operator is the closed set of comparison operators across all kinds.
// Legality per kind is enforced during compilation.
type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
	OpIn
	OpNotIn
	OpContains
	OpNotContains
	OpStartsWith
	OpEndsWith
	OpBefore
	OpAfter
	OpOn
	OpBetween
	OpIsNull
	OpIsNotNull
	OpIsToday
	OpIsOverdue
	OpThisWeek
	OpNextWeek
	OpThisMonth
	OpYesterday
	OpTomorrow
	OpDueWithinDays
	OpWithinLastDays
	OpAnyTag
	OpAllTags
	OpNoTags
	OpMatches
	OpNotMatches
)

// CompiledCondition is a fully typed condition ready for evaluation.
// Only the operand fields relevant to Kind/Op are populated.
type CompiledCondition struct {
	Kind ConditionKind
	Op   Operator

	Text       string               // title operand, lowercased
	Kinds      []types.Kind         // node_type operands
	Statuses   []types.TaskStatus   // task_status operands
	Priorities []types.TaskPriority // task_priority operands
	Times      []time.Time          // absolute date operands (UTC)
	Days       int                  // relative day-count operand
	TagIDs     []types.TagID        // tag_contains operands
	NodeIDs    []types.NodeID       // parent_node / parent_ancestor operands
	RuleID     types.RuleID         // saved_filter operand
	Bool       bool                 // has_children operand
}

// CompiledRule is a validated rule definition ready for repeated
// evaluation against candidate nodes.
type CompiledRule struct {
	Logic      types.Logic
	Conditions []CompiledCondition
}

// Compile validates a rule definition and resolves it into typed form.
// Returns *types.ConditionError (wrapping types.ErrBadRule) identifying
// the first offending condition, or types.ErrBadRule for a bad logic
// connective. An absent logic defaults to AND, matching stored legacy
// definitions that omit the field.
func Compile(rd types.RuleData) (*CompiledRule, error) {
	logic := rd.Logic
	if logic == "" {
		logic = types.LogicAnd
	}
	if logic != types.LogicAnd && logic != types.LogicOr {
		return nil, types.ErrBadRule
	}

	compiled := &CompiledRule{
		Logic:      logic,
		Conditions: make([]CompiledCondition, 0, len(rd.Conditions)),
	}

	for i, c := range rd.Conditions {
		cc, reason := compileCondition(c)
		if reason != "" {
			return nil, &types.ConditionError{Index: i, Type: c.Type, Operator: c.Operator, Reason: reason}
		}
		compiled.Conditions = append(compiled.Conditions, cc)
	}

	return compiled, nil
}

// compileCondition resolves one condition. Returns a non-empty reason on
// any type, operator, or arity violation.
func compileCondition(c types.Condition) (CompiledCondition, string) {
	switch c.Type {
	case "node_type":
		return compileNodeType(c)
	case "task_status":
		return compileTaskStatus(c)
	case "task_priority":
		return compileTaskPriority(c)
	case "due_date":
		return compileDate(CondDueDate, c)
	case "earliest_start":
		return compileDate(CondEarliestStart, c)
	case "title_contains":
		return compileTitle(c)
	case "tag_contains":
		return compileTag(c)
	case "parent_node":
		return compileParent(c)
	case "parent_ancestor":
		return compileAncestor(c)
	case "has_children":
		return compileHasChildren(c)
	case "saved_filter":
		return compileSavedFilter(c)
	default:
		return CompiledCondition{}, "unknown condition type"
	}
}

func compileNodeType(c types.Condition) (CompiledCondition, string) {
	cc := CompiledCondition{Kind: CondNodeType}
	switch c.Operator {
	case "equals":
		cc.Op = OpEquals
	case "not_equals":
		cc.Op = OpNotEquals
	case "in":
		cc.Op = OpIn
	case "not_in":
		cc.Op = OpNotIn
	default:
		return cc, "operator not valid for node_type"
	}
	if reason := wantValues(c, cc.Op == OpEquals || cc.Op == OpNotEquals); reason != "" {
		return cc, reason
	}
	for _, v := range c.Values {
		k, ok := types.ParseKind(v)
		if !ok {
			return cc, "unknown node type literal: " + v
		}
		cc.Kinds = append(cc.Kinds, k)
	}
	return cc, ""
}

func compileTaskStatus(c types.Condition) (CompiledCondition, string) {
	cc := CompiledCondition{Kind: CondTaskStatus}
	switch c.Operator {
	case "equals":
		cc.Op = OpEquals
	case "in":
		cc.Op = OpIn
	case "not_in":
		cc.Op = OpNotIn
	default:
		return cc, "operator not valid for task_status"
	}
	if reason := wantValues(c, cc.Op == OpEquals); reason != "" {
		return cc, reason
	}
	for _, v := range c.Values {
		s, ok := types.ParseTaskStatus(v)
		if !ok {
			return cc, "unknown task status literal: " + v
		}
		cc.Statuses = append(cc.Statuses, s)
	}
	return cc, ""
}

func compileTaskPriority(c types.Condition) (CompiledCondition, string) {
	cc := CompiledCondition{Kind: CondTaskPriority}
	switch c.Operator {
	case "equals":
		cc.Op = OpEquals
	case "in":
		cc.Op = OpIn
	case "not_in":
		cc.Op = OpNotIn
	default:
		return cc, "operator not valid for task_priority"
	}
	if reason := wantValues(c, cc.Op == OpEquals); reason != "" {
		return cc, reason
	}
	for _, v := range c.Values {
		p, ok := types.ParseTaskPriority(v)
		if !ok {
			return cc, "unknown task priority literal: " + v
		}
		cc.Priorities = append(cc.Priorities, p)
	}
	return cc, ""
}

func compileDate(kind ConditionKind, c types.Condition) (CompiledCondition, string) {
	cc := CompiledCondition{Kind: kind}
	var dates, days int
	switch c.Operator {
	case "before":
		cc.Op, dates = OpBefore, 1
	case "after":
		cc.Op, dates = OpAfter, 1
	case "on":
		cc.Op, dates = OpOn, 1
	case "between":
		cc.Op, dates = OpBetween, 2
	case "is_null":
		cc.Op = OpIsNull
	case "is_not_null":
		cc.Op = OpIsNotNull
	case "is_today":
		cc.Op = OpIsToday
	case "is_overdue":
		cc.Op = OpIsOverdue
	case "this_week":
		cc.Op = OpThisWeek
	case "next_week":
		cc.Op = OpNextWeek
	case "this_month":
		cc.Op = OpThisMonth
	case "yesterday":
		cc.Op = OpYesterday
	case "tomorrow":
		cc.Op = OpTomorrow
	case "due_within_days":
		cc.Op, days = OpDueWithinDays, 1
	case "within_last_days":
		cc.Op, days = OpWithinLastDays, 1
	default:
		return cc, "operator not valid for date conditions"
	}
	if cc.Op == OpIsOverdue && kind != CondDueDate {
		return cc, "is_overdue applies to due_date only"
	}
	if want := dates + days; len(c.Values) != want {
		return cc, "operator requires exactly " + strconv.Itoa(want) + " values"
	}
	for _, v := range c.Values[:dates] {
		t, ok := parseDateLiteral(v)
		if !ok {
			return cc, "invalid date literal: " + v
		}
		cc.Times = append(cc.Times, t)
	}
	if days > 0 {
		n, err := strconv.Atoi(strings.TrimSpace(c.Values[dates]))
		if err != nil || n < 0 {
			return cc, "invalid day count: " + c.Values[dates]
		}
		cc.Days = n
	}
	if cc.Op == OpBetween && cc.Times[1].Before(cc.Times[0]) {
		return cc, "between bounds out of order"
	}
	return cc, ""
}

func compileTitle(c types.Condition) (CompiledCondition, string) {
	cc := CompiledCondition{Kind: CondTitle}
	switch c.Operator {
	case "contains":
		cc.Op = OpContains
	case "not_contains":
		cc.Op = OpNotContains
	case "equals":
		cc.Op = OpEquals
	case "starts_with":
		cc.Op = OpStartsWith
	case "ends_with":
		cc.Op = OpEndsWith
	default:
		return cc, "operator not valid for title_contains"
	}
	if len(c.Values) != 1 || c.Values[0] == "" {
		return cc, "operator requires exactly one non-empty value"
	}
	cc.Text = strings.ToLower(c.Values[0])
	return cc, ""
}

func compileTag(c types.Condition) (CompiledCondition, string) {
	cc := CompiledCondition{Kind: CondTag}
	switch c.Operator {
	case "any", "in": // "in" accepted as a legacy alias for "any"
		cc.Op = OpAnyTag
	case "all":
		cc.Op = OpAllTags
	case "none":
		cc.Op = OpNoTags
	default:
		return cc, "operator not valid for tag_contains"
	}
	if len(c.Values) == 0 {
		return cc, "operator requires at least one value"
	}
	for _, v := range c.Values {
		id, err := types.ParseNodeID(v)
		if err != nil {
			return cc, "invalid tag id: " + v
		}
		cc.TagIDs = append(cc.TagIDs, types.TagID(id))
	}
	return cc, ""
}

func compileParent(c types.Condition) (CompiledCondition, string) {
	cc := CompiledCondition{Kind: CondParent}
	switch c.Operator {
	case "equals":
		cc.Op = OpEquals
	case "not_equals":
		cc.Op = OpNotEquals
	case "in":
		cc.Op = OpIn
	case "not_in":
		cc.Op = OpNotIn
	default:
		return cc, "operator not valid for parent_node"
	}
	if reason := wantValues(c, cc.Op == OpEquals || cc.Op == OpNotEquals); reason != "" {
		return cc, reason
	}
	return compileNodeIDs(cc, c)
}

func compileAncestor(c types.Condition) (CompiledCondition, string) {
	cc := CompiledCondition{Kind: CondAncestor}
	switch c.Operator {
	case "equals":
		cc.Op = OpEquals
	case "in":
		cc.Op = OpIn
	default:
		return cc, "operator not valid for parent_ancestor"
	}
	if reason := wantValues(c, cc.Op == OpEquals); reason != "" {
		return cc, reason
	}
	return compileNodeIDs(cc, c)
}

func compileNodeIDs(cc CompiledCondition, c types.Condition) (CompiledCondition, string) {
	for _, v := range c.Values {
		id, err := types.ParseNodeID(v)
		if err != nil {
			return cc, "invalid node id: " + v
		}
		cc.NodeIDs = append(cc.NodeIDs, id)
	}
	return cc, ""
}

func compileHasChildren(c types.Condition) (CompiledCondition, string) {
	cc := CompiledCondition{Kind: CondHasChildren, Op: OpEquals}
	if c.Operator != "equals" {
		return cc, "operator not valid for has_children"
	}
	if len(c.Values) != 1 {
		return cc, "operator requires exactly one value"
	}
	switch strings.ToLower(c.Values[0]) {
	case "true", "1", "yes":
		cc.Bool = true
	case "false", "0", "no":
		cc.Bool = false
	default:
		return cc, "invalid boolean literal: " + c.Values[0]
	}
	return cc, ""
}

func compileSavedFilter(c types.Condition) (CompiledCondition, string) {
	cc := CompiledCondition{Kind: CondSavedFilter}
	switch c.Operator {
	case "matches":
		cc.Op = OpMatches
	case "not_matches":
		cc.Op = OpNotMatches
	default:
		return cc, "operator not valid for saved_filter"
	}
	if len(c.Values) != 1 {
		return cc, "operator requires exactly one value"
	}
	id, err := types.ParseRuleID(c.Values[0])
	if err != nil {
		return cc, "invalid rule id: " + c.Values[0]
	}
	cc.RuleID = id
	return cc, ""
}

// wantValues checks operand arity for membership-style operators:
// single says the operator takes exactly one value, otherwise at least one.
func wantValues(c types.Condition, single bool) string {
	if single && len(c.Values) != 1 {
		return "operator requires exactly one value"
	}
	if len(c.Values) == 0 {
		return "operator requires at least one value"
	}
	return ""
}

// parseDateLiteral accepts RFC3339 timestamps and bare YYYY-MM-DD dates.
// Bare dates resolve to midnight UTC.
func parseDateLiteral(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
