package rules

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

/*
 * Rule evaluation orchestration.
 *
 * Matches combines per-condition results with AND/OR semantics,
 * short-circuiting on the first decisive result. Short-circuit matters
 * because saved_filter conditions recurse through the rule store.
 *
 * Saved-filter resolution threads a visited set through recursive calls.
 * The set is copied at each fan-out, never shared, so sibling branches of
 * the same rule cannot inherit each other's visits. A detected cycle or an
 * exhausted depth budget degrades that branch to non-match and logs a
 * diagnostic; it never fails the request. A referenced rule that is
 * missing, invisible to the owner, or itself malformed degrades the same
 * way: one broken nested reference must not take down an otherwise valid
 * top-level rule.
 */

// MaxSavedFilterDepth bounds saved-filter reference chains. The visited
// set already guarantees termination; the depth cap guards against
// pathological non-cyclic chains.
const MaxSavedFilterDepth = 32

// RuleSource supplies stored rules for saved_filter resolution.
type RuleSource interface {
	// VisibleRule returns the rule iff it exists and is readable by owner
	// (owned, public, or system). Missing and invisible both return
	// types.ErrRuleNotFound.
	VisibleRule(ctx context.Context, id types.RuleID, owner types.OwnerID) (*types.Rule, error)
}

// Env carries the per-request data shared across candidate evaluations:
// the calling owner (saved-filter visibility) and the parent index built
// by the batch loader (ancestor walks).
type Env struct {
	Owner   types.OwnerID
	Parents map[types.NodeID]types.NodeID
}

// Engine evaluates compiled rules against annotated nodes.
// Stateless across calls; safe for concurrent use.
type Engine struct {
	rules RuleSource
	now   func() time.Time
	log   *slog.Logger
}

// NewEngine creates an engine backed by the given rule source.
func NewEngine(rules RuleSource) *Engine {
	return &Engine{rules: rules, now: time.Now, log: slog.Default()}
}

// WithClock overrides the engine clock. Relative date operators
// (is_today, this_week, ...) resolve against it.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithLogger overrides the diagnostic logger.
func (e *Engine) WithLogger(log *slog.Logger) *Engine {
	e.log = log
	return e
}

// Matches reports whether the node satisfies the rule.
// The visited cycle guard is seeded empty here; errors only surface for
// store failures, never for rule content.
func (e *Engine) Matches(ctx context.Context, r *CompiledRule, n *types.AnnotatedNode, env *Env) (bool, error) {
	return e.matches(ctx, r, n, env, nil, 0)
}

func (e *Engine) matches(ctx context.Context, r *CompiledRule, n *types.AnnotatedNode, env *Env, visited map[types.RuleID]struct{}, depth int) (bool, error) {
	if len(r.Conditions) == 0 {
		// vacuous AND matches, vacuous OR does not
		return r.Logic == types.LogicAnd, nil
	}

	for i := range r.Conditions {
		ok, err := e.evalCondition(ctx, &r.Conditions[i], n, env, visited, depth)
		if err != nil {
			return false, err
		}
		if r.Logic == types.LogicAnd && !ok {
			return false, nil
		}
		if r.Logic == types.LogicOr && ok {
			return true, nil
		}
	}
	return r.Logic == types.LogicAnd, nil
}

func (e *Engine) evalCondition(ctx context.Context, cc *CompiledCondition, n *types.AnnotatedNode, env *Env, visited map[types.RuleID]struct{}, depth int) (bool, error) {
	switch cc.Kind {
	case CondNodeType:
		in := containsKind(cc.Kinds, n.Kind)
		if cc.Op == OpNotEquals || cc.Op == OpNotIn {
			return !in, nil
		}
		return in, nil

	case CondTaskStatus:
		td, ok := taskData(n)
		if !ok {
			return false, nil
		}
		in := containsStatus(cc.Statuses, td.Status)
		if cc.Op == OpNotIn {
			return !in, nil
		}
		return in, nil

	case CondTaskPriority:
		td, ok := taskData(n)
		if !ok {
			return false, nil
		}
		in := containsPriority(cc.Priorities, td.Priority)
		if cc.Op == OpNotIn {
			return !in, nil
		}
		return in, nil

	case CondDueDate, CondEarliestStart:
		v, ok := dateField(n, cc.Kind)
		if !ok {
			return false, nil
		}
		return compareDate(cc, v, e.now().UTC()), nil

	case CondTitle:
		return compareTitle(cc.Op, n.Title, cc.Text), nil

	case CondTag:
		return compareTags(cc.Op, tagSet(n), cc.TagIDs), nil

	case CondParent:
		in := n.ParentID != nil && containsNodeID(cc.NodeIDs, *n.ParentID)
		if cc.Op == OpNotEquals || cc.Op == OpNotIn {
			return !in, nil
		}
		return in, nil

	case CondAncestor:
		return e.hasAncestor(n, env, cc.NodeIDs), nil

	case CondHasChildren:
		return (n.ChildCount > 0) == cc.Bool, nil

	case CondSavedFilter:
		matched, ok, err := e.resolveSavedFilter(ctx, cc.RuleID, n, env, visited, depth)
		if err != nil {
			return false, err
		}
		if !ok {
			// broken reference, cycle, or depth exhausted: non-match
			// regardless of matches/not_matches polarity
			return false, nil
		}
		if cc.Op == OpNotMatches {
			return !matched, nil
		}
		return matched, nil
	}
	return false, nil
}

// hasAncestor walks the parent chain through the loader's parent index.
// The store guarantees an acyclic forest; the hop cap is a backstop
// against corrupted data.
func (e *Engine) hasAncestor(n *types.AnnotatedNode, env *Env, want []types.NodeID) bool {
	if env == nil || env.Parents == nil {
		return false
	}
	cur := n.ParentID
	for hops := 0; cur != nil && hops <= len(env.Parents); hops++ {
		if containsNodeID(want, *cur) {
			return true
		}
		next, ok := env.Parents[*cur]
		if !ok {
			return false
		}
		cur = &next
	}
	return false
}

// resolveSavedFilter fetches and recursively evaluates a referenced rule.
// ok=false means the branch degraded (cycle, depth, missing or malformed
// rule); err is reserved for store failures.
func (e *Engine) resolveSavedFilter(ctx context.Context, id types.RuleID, n *types.AnnotatedNode, env *Env, visited map[types.RuleID]struct{}, depth int) (matched, ok bool, err error) {
	if depth >= MaxSavedFilterDepth {
		e.log.Warn("saved filter chain too deep", "rule_id", string(id), "depth", depth)
		return false, false, nil
	}
	if _, seen := visited[id]; seen {
		e.log.Warn("saved filter cycle detected", "rule_id", string(id))
		return false, false, nil
	}

	var owner types.OwnerID
	if env != nil {
		owner = env.Owner
	}
	rule, err := e.rules.VisibleRule(ctx, id, owner)
	if err != nil {
		if errors.Is(err, types.ErrRuleNotFound) {
			return false, false, nil
		}
		return false, false, err
	}

	compiled, err := Compile(rule.RuleData)
	if err != nil {
		// Malformed stored data in a nested reference degrades instead of
		// failing the request; only the directly requested rule may abort.
		e.log.Warn("referenced rule failed to compile", "rule_id", string(id), "error", err)
		return false, false, nil
	}

	// Copy-on-recurse: sibling branches must not see this branch's visits.
	next := make(map[types.RuleID]struct{}, len(visited)+1)
	for k := range visited {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}

	matched, err = e.matches(ctx, compiled, n, env, next, depth+1)
	if err != nil {
		return false, false, err
	}
	return matched, true, nil
}
