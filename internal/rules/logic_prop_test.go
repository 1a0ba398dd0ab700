package rules

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

// Property: combining conditions under AND/OR agrees with evaluating each
// condition as its own single-condition rule and folding the booleans.
func TestLogicCombinator_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	eng := NewEngine(staticRules(nil))
	env := &Env{}
	ctx := context.Background()

	kinds := []string{"task", "note", "folder", "smart_folder"}
	statuses := []string{"todo", "in_progress", "done", "dropped"}
	priorities := []string{"low", "medium", "high", "urgent"}

	genCondition := gen.OneGenOf(
		gen.SliceOfN(2, gen.OneConstOf("task", "note", "folder")).Map(func(vs []string) types.Condition {
			return types.Condition{Type: "node_type", Operator: "in", Values: vs}
		}),
		gen.OneConstOf(statuses[0], statuses[1], statuses[2], statuses[3]).Map(func(v string) types.Condition {
			return types.Condition{Type: "task_status", Operator: "in", Values: []string{v}}
		}),
		gen.OneConstOf(priorities[0], priorities[1], priorities[2], priorities[3]).Map(func(v string) types.Condition {
			return types.Condition{Type: "task_priority", Operator: "not_in", Values: []string{v}}
		}),
		gen.OneConstOf("alpha", "beta", "gamma").Map(func(v string) types.Condition {
			return types.Condition{Type: "title_contains", Operator: "contains", Values: []string{v}}
		}),
	)

	genNode := gopter.CombineGens(
		gen.OneConstOf(kinds[0], kinds[1], kinds[2], kinds[3]),
		gen.OneConstOf(statuses[0], statuses[1], statuses[2], statuses[3]),
		gen.OneConstOf(priorities[0], priorities[1], priorities[2], priorities[3]),
		gen.OneConstOf("alpha report", "beta notes", "gamma list", "delta"),
	).Map(func(vs []interface{}) *types.AnnotatedNode {
		kind := types.Kind(vs[0].(string))
		n := &types.AnnotatedNode{
			Node: types.Node{ID: types.NewNodeID(), Kind: kind, Title: vs[3].(string)},
		}
		if kind == types.KindTask {
			n.Task = &types.TaskData{
				Status:   types.TaskStatus(vs[1].(string)),
				Priority: types.TaskPriority(vs[2].(string)),
			}
		}
		return n
	})

	evalOne := func(c types.Condition, n *types.AnnotatedNode) bool {
		r, err := Compile(types.RuleData{Logic: types.LogicAnd, Conditions: []types.Condition{c}})
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		got, err := eng.Matches(ctx, r, n, env)
		if err != nil {
			t.Fatalf("Matches() error = %v", err)
		}
		return got
	}

	properties := gopter.NewProperties(parameters)

	properties.Property("AND equals conjunction of members", prop.ForAll(
		func(conds []types.Condition, n *types.AnnotatedNode) bool {
			r, err := Compile(types.RuleData{Logic: types.LogicAnd, Conditions: conds})
			if err != nil {
				return false
			}
			got, err := eng.Matches(ctx, r, n, env)
			if err != nil {
				return false
			}
			want := true
			for _, c := range conds {
				want = want && evalOne(c, n)
			}
			return got == want
		},
		gen.SliceOf(genCondition),
		genNode,
	))

	properties.Property("OR equals disjunction of members", prop.ForAll(
		func(conds []types.Condition, n *types.AnnotatedNode) bool {
			r, err := Compile(types.RuleData{Logic: types.LogicOr, Conditions: conds})
			if err != nil {
				return false
			}
			got, err := eng.Matches(ctx, r, n, env)
			if err != nil {
				return false
			}
			want := false
			for _, c := range conds {
				want = want || evalOne(c, n)
			}
			return got == want
		},
		gen.SliceOf(genCondition),
		genNode,
	))

	properties.Property("negating OR of negations equals AND", prop.ForAll(
		func(conds []types.Condition, n *types.AnnotatedNode) bool {
			andRule, err := Compile(types.RuleData{Logic: types.LogicAnd, Conditions: conds})
			if err != nil {
				return false
			}
			andGot, err := eng.Matches(ctx, andRule, n, env)
			if err != nil {
				return false
			}
			anyFalse := false
			for _, c := range conds {
				if !evalOne(c, n) {
					anyFalse = true
				}
			}
			return andGot == !anyFalse
		},
		gen.SliceOf(genCondition),
		genNode,
	))

	properties.TestingRun(t)
}
