package rules

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

func TestCompile_ValidConditions(t *testing.T) {
	tagID := string(types.NewTagID())
	nodeID := string(types.NewNodeID())
	ruleID := string(types.NewRuleID())

	tests := []struct {
		name string
		cond types.Condition
		kind ConditionKind
		op   Operator
	}{
		{
			name: "node_type in",
			cond: types.Condition{Type: "node_type", Operator: "in", Values: []string{"task", "note"}},
			kind: CondNodeType,
			op:   OpIn,
		},
		{
			name: "task_status not_in",
			cond: types.Condition{Type: "task_status", Operator: "not_in", Values: []string{"done", "dropped"}},
			kind: CondTaskStatus,
			op:   OpNotIn,
		},
		{
			name: "task_priority equals",
			cond: types.Condition{Type: "task_priority", Operator: "equals", Values: []string{"urgent"}},
			kind: CondTaskPriority,
			op:   OpEquals,
		},
		{
			name: "due_date between",
			cond: types.Condition{Type: "due_date", Operator: "between", Values: []string{"2026-01-01", "2026-02-01"}},
			kind: CondDueDate,
			op:   OpBetween,
		},
		{
			name: "due_date is_null",
			cond: types.Condition{Type: "due_date", Operator: "is_null", Values: nil},
			kind: CondDueDate,
			op:   OpIsNull,
		},
		{
			name: "earliest_start this_week",
			cond: types.Condition{Type: "earliest_start", Operator: "this_week", Values: nil},
			kind: CondEarliestStart,
			op:   OpThisWeek,
		},
		{
			name: "due_date due_within_days",
			cond: types.Condition{Type: "due_date", Operator: "due_within_days", Values: []string{"7"}},
			kind: CondDueDate,
			op:   OpDueWithinDays,
		},
		{
			name: "title starts_with",
			cond: types.Condition{Type: "title_contains", Operator: "starts_with", Values: []string{"Weekly"}},
			kind: CondTitle,
			op:   OpStartsWith,
		},
		{
			name: "tag any via legacy in alias",
			cond: types.Condition{Type: "tag_contains", Operator: "in", Values: []string{tagID}},
			kind: CondTag,
			op:   OpAnyTag,
		},
		{
			name: "parent_node equals",
			cond: types.Condition{Type: "parent_node", Operator: "equals", Values: []string{nodeID}},
			kind: CondParent,
			op:   OpEquals,
		},
		{
			name: "parent_ancestor in",
			cond: types.Condition{Type: "parent_ancestor", Operator: "in", Values: []string{nodeID}},
			kind: CondAncestor,
			op:   OpIn,
		},
		{
			name: "has_children equals",
			cond: types.Condition{Type: "has_children", Operator: "equals", Values: []string{"true"}},
			kind: CondHasChildren,
			op:   OpEquals,
		},
		{
			name: "saved_filter not_matches",
			cond: types.Condition{Type: "saved_filter", Operator: "not_matches", Values: []string{ruleID}},
			kind: CondSavedFilter,
			op:   OpNotMatches,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled, err := Compile(types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{tt.cond}})
			if err != nil {
				t.Fatalf("Compile() error = %v, want nil", err)
			}
			if len(compiled.Conditions) != 1 {
				t.Fatalf("Compile() produced %d conditions, want 1", len(compiled.Conditions))
			}
			cc := compiled.Conditions[0]
			if cc.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", cc.Kind, tt.kind)
			}
			if cc.Op != tt.op {
				t.Errorf("Op = %v, want %v", cc.Op, tt.op)
			}
		})
	}
}

func TestCompile_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		cond types.Condition
	}{
		{"unknown type", types.Condition{Type: "color", Operator: "equals", Values: []string{"red"}}},
		{"operator not legal for type", types.Condition{Type: "node_type", Operator: "before", Values: []string{"task"}}},
		{"bad kind literal", types.Condition{Type: "node_type", Operator: "in", Values: []string{"widget"}}},
		{"bad status literal", types.Condition{Type: "task_status", Operator: "in", Values: []string{"paused"}}},
		{"equals with two values", types.Condition{Type: "task_priority", Operator: "equals", Values: []string{"high", "low"}}},
		{"between with one value", types.Condition{Type: "due_date", Operator: "between", Values: []string{"2026-01-01"}}},
		{"between bounds reversed", types.Condition{Type: "due_date", Operator: "between", Values: []string{"2026-02-01", "2026-01-01"}}},
		{"is_null with a value", types.Condition{Type: "due_date", Operator: "is_null", Values: []string{"2026-01-01"}}},
		{"is_overdue on earliest_start", types.Condition{Type: "earliest_start", Operator: "is_overdue", Values: nil}},
		{"bad date literal", types.Condition{Type: "due_date", Operator: "before", Values: []string{"next tuesday"}}},
		{"negative day count", types.Condition{Type: "due_date", Operator: "due_within_days", Values: []string{"-3"}}},
		{"empty title operand", types.Condition{Type: "title_contains", Operator: "contains", Values: []string{""}}},
		{"tag set empty", types.Condition{Type: "tag_contains", Operator: "any", Values: nil}},
		{"malformed tag id", types.Condition{Type: "tag_contains", Operator: "any", Values: []string{"not-a-uuid"}}},
		{"malformed parent id", types.Condition{Type: "parent_node", Operator: "equals", Values: []string{"42"}}},
		{"has_children bad literal", types.Condition{Type: "has_children", Operator: "equals", Values: []string{"maybe"}}},
		{"saved_filter missing id", types.Condition{Type: "saved_filter", Operator: "matches", Values: nil}},
		{"saved_filter malformed id", types.Condition{Type: "saved_filter", Operator: "matches", Values: []string{"xyz"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{tt.cond}})
			if err == nil {
				t.Fatal("Compile() error = nil, want configuration error")
			}
			if !errors.Is(err, types.ErrBadRule) {
				t.Fatalf("error %v does not unwrap to ErrBadRule", err)
			}
			var ce *types.ConditionError
			if !errors.As(err, &ce) {
				t.Fatalf("error %v is not a *ConditionError", err)
			}
			if ce.Index != 0 {
				t.Errorf("ConditionError.Index = %d, want 0", ce.Index)
			}
		})
	}
}

func TestCompile_Logic(t *testing.T) {
	if _, err := Compile(types.RuleData{Logic: "XOR"}); !errors.Is(err, types.ErrBadRule) {
		t.Errorf("bad logic: error = %v, want ErrBadRule", err)
	}

	compiled, err := Compile(types.RuleData{})
	if err != nil {
		t.Fatalf("empty rule: error = %v", err)
	}
	if compiled.Logic != types.LogicAnd {
		t.Errorf("absent logic defaults to %v, want AND", compiled.Logic)
	}
}

// The wire JSON shape must round-trip into an identically behaving rule.
func TestCompile_WireRoundTrip(t *testing.T) {
	original := types.RuleData{
		Logic: types.LogicOr,
		Conditions: []types.Condition{
			{Type: "node_type", Operator: "in", Values: []string{"task"}},
			{Type: "task_priority", Operator: "in", Values: []string{"high", "urgent"}},
			{Type: "due_date", Operator: "between", Values: []string{"2026-03-01", "2026-03-31"}},
		},
	}

	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded types.RuleData
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	a, err := Compile(original)
	if err != nil {
		t.Fatalf("Compile(original) error = %v", err)
	}
	b, err := Compile(decoded)
	if err != nil {
		t.Fatalf("Compile(decoded) error = %v", err)
	}

	eng := NewEngine(staticRules(nil))
	env := &Env{}
	for i, n := range []*types.AnnotatedNode{
		taskNode(func(td *types.TaskData) { td.Priority = types.PriorityHigh }),
		taskNode(func(td *types.TaskData) { td.Priority = types.PriorityLow }),
		plainNode(types.KindNote),
	} {
		ra, err := eng.Matches(context.Background(), a, n, env)
		if err != nil {
			t.Fatalf("Matches(original, node %d) error = %v", i, err)
		}
		rb, err := eng.Matches(context.Background(), b, n, env)
		if err != nil {
			t.Fatalf("Matches(decoded, node %d) error = %v", i, err)
		}
		if ra != rb {
			t.Errorf("node %d: original = %v, decoded = %v", i, ra, rb)
		}
	}
}
