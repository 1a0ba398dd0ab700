package rules

import (
	"strings"
	"time"

	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

/*
 * Operator predicates.
 *
 * Function-based comparison over a closed operator enum, dispatched from
 * evaluate.go. All inputs arrive typed from compilation; there is no
 * runtime coercion.
 *
 * Date semantics:
 *   - before/after compare raw instants; on matches the operand's UTC day
 *   - between is inclusive of both bounds
 *   - relative operators (is_today, this_week, ...) derive half-open
 *     [start, end) windows from the engine clock in UTC
 *   - calendar weeks run Monday through Sunday
 */

// compareTitle applies a string operator to the node title.
// Matching is case-insensitive; operand is lowercased at compile time.
func compareTitle(op Operator, title, operand string) bool {
	t := strings.ToLower(title)
	switch op {
	case OpContains:
		return strings.Contains(t, operand)
	case OpNotContains:
		return !strings.Contains(t, operand)
	case OpEquals:
		return t == operand
	case OpStartsWith:
		return strings.HasPrefix(t, operand)
	case OpEndsWith:
		return strings.HasSuffix(t, operand)
	default:
		return false
	}
}

// compareDate applies a date operator to a field value. The field pointer
// is nil when unset; only null checks match in that case.
func compareDate(cc *CompiledCondition, v *time.Time, now time.Time) bool {
	switch cc.Op {
	case OpIsNull:
		return v == nil
	case OpIsNotNull:
		return v != nil
	}
	if v == nil {
		return false
	}
	t := v.UTC()

	switch cc.Op {
	case OpBefore:
		return t.Before(cc.Times[0])
	case OpAfter:
		return t.After(cc.Times[0])
	case OpOn:
		start := startOfDay(cc.Times[0])
		return inWindow(t, start, start.AddDate(0, 0, 1))
	case OpBetween:
		return !t.Before(cc.Times[0]) && !t.After(cc.Times[1])
	case OpIsToday:
		start := startOfDay(now)
		return inWindow(t, start, start.AddDate(0, 0, 1))
	case OpIsOverdue:
		return t.Before(startOfDay(now))
	case OpThisWeek:
		start := startOfWeek(now)
		return inWindow(t, start, start.AddDate(0, 0, 7))
	case OpNextWeek:
		start := startOfWeek(now).AddDate(0, 0, 7)
		return inWindow(t, start, start.AddDate(0, 0, 7))
	case OpThisMonth:
		start := startOfMonth(now)
		return inWindow(t, start, start.AddDate(0, 1, 0))
	case OpYesterday:
		start := startOfDay(now).AddDate(0, 0, -1)
		return inWindow(t, start, start.AddDate(0, 0, 1))
	case OpTomorrow:
		start := startOfDay(now).AddDate(0, 0, 1)
		return inWindow(t, start, start.AddDate(0, 0, 1))
	case OpDueWithinDays:
		// today through N days out, inclusive of both days
		start := startOfDay(now)
		return inWindow(t, start, start.AddDate(0, 0, cc.Days+1))
	case OpWithinLastDays:
		// N days back through end of today
		end := startOfDay(now).AddDate(0, 0, 1)
		return inWindow(t, end.AddDate(0, 0, -(cc.Days+1)), end)
	default:
		return false
	}
}

// compareTags applies a set operator between the node's tags and the
// condition's tag id list.
func compareTags(op Operator, nodeTags map[types.TagID]struct{}, want []types.TagID) bool {
	switch op {
	case OpAnyTag:
		for _, id := range want {
			if _, ok := nodeTags[id]; ok {
				return true
			}
		}
		return false
	case OpAllTags:
		for _, id := range want {
			if _, ok := nodeTags[id]; !ok {
				return false
			}
		}
		return true
	case OpNoTags:
		for _, id := range want {
			if _, ok := nodeTags[id]; ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// containsKind reports membership of k in set.
func containsKind(set []types.Kind, k types.Kind) bool {
	for _, v := range set {
		if v == k {
			return true
		}
	}
	return false
}

func containsStatus(set []types.TaskStatus, s types.TaskStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(set []types.TaskPriority, p types.TaskPriority) bool {
	for _, v := range set {
		if v == p {
			return true
		}
	}
	return false
}

func containsNodeID(set []types.NodeID, id types.NodeID) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// startOfWeek returns midnight of the Monday on or before t.
func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
