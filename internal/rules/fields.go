package rules

import (
	"time"

	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

// Field accessors over an annotated node. A condition whose field does not
// exist on the candidate's kind evaluates to non-match, never to an error;
// accessors report applicability through their second return.

// taskData returns the task payload, or false for non-task nodes.
func taskData(n *types.AnnotatedNode) (*types.TaskData, bool) {
	if n.Kind != types.KindTask || n.Task == nil {
		return nil, false
	}
	return n.Task, true
}

// dateField returns the timestamp a date condition compares against.
// ok is false for non-task nodes; a nil time means the field is unset.
func dateField(n *types.AnnotatedNode, kind ConditionKind) (*time.Time, bool) {
	td, ok := taskData(n)
	if !ok {
		return nil, false
	}
	if kind == CondEarliestStart {
		return td.EarliestStartAt, true
	}
	return td.DueAt, true
}

// tagSet materializes the node's tag ids for membership tests.
func tagSet(n *types.AnnotatedNode) map[types.TagID]struct{} {
	set := make(map[types.TagID]struct{}, len(n.TagIDs))
	for _, id := range n.TagIDs {
		set[id] = struct{}{}
	}
	return set
}
