// Package types provides domain models shared across FastGTD components.
//
// Hand-written types only: node rows and their per-kind payloads, tags,
// rules, and the wire shape for rule definitions. Persistence row mapping
// lives in internal/core/store; this package has no database dependencies.
package types

import "time"

// Kind identifies the concrete node type behind a polymorphic node row.
type Kind string

const (
	KindTask        Kind = "task"
	KindNote        Kind = "note"
	KindFolder      Kind = "folder"
	KindSmartFolder Kind = "smart_folder"
	KindTemplate    Kind = "template"
)

// ParseKind validates a node type literal.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindTask, KindNote, KindFolder, KindSmartFolder, KindTemplate:
		return Kind(s), true
	}
	return "", false
}

// TaskStatus is the lifecycle state of a task node.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
	StatusDropped    TaskStatus = "dropped"
)

// ParseTaskStatus validates a task status literal.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case StatusTodo, StatusInProgress, StatusDone, StatusDropped:
		return TaskStatus(s), true
	}
	return "", false
}

// TaskPriority is the urgency level of a task node.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// ParseTaskPriority validates a task priority literal.
func ParseTaskPriority(s string) (TaskPriority, bool) {
	switch TaskPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return TaskPriority(s), true
	}
	return "", false
}

// Node is the polymorphic base row shared by every node kind.
// ParentID nil means the node is a root. Siblings order by SortOrder
// ascending; the store breaks ties by id.
type Node struct {
	ID        NodeID    `json:"id"`
	OwnerID   OwnerID   `json:"owner_id"`
	ParentID  *NodeID   `json:"parent_id,omitempty"`
	Kind      Kind      `json:"node_type"`
	Title     string    `json:"title"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskData is the task-specific payload of a task node.
type TaskData struct {
	Status          TaskStatus   `json:"status"`
	Priority        TaskPriority `json:"priority"`
	DueAt           *time.Time   `json:"due_at,omitempty"`
	EarliestStartAt *time.Time   `json:"earliest_start_at,omitempty"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
	Archived        bool         `json:"archived"`
}

// NoteData is the note-specific payload of a note node.
type NoteData struct {
	Body string `json:"body"`
}

// SmartFolderData is the payload of a smart folder node.
// RuleID references a Rule entity; Rules is the legacy inline definition
// kept for unmigrated folders. RuleID wins when both are present.
type SmartFolderData struct {
	RuleID      *RuleID   `json:"rule_id,omitempty"`
	Rules       *RuleData `json:"rules,omitempty"`
	AutoRefresh bool      `json:"auto_refresh"`
	Description string    `json:"description,omitempty"`
}

// TemplateData is the payload of a template node.
type TemplateData struct {
	Description     string  `json:"description,omitempty"`
	Category        string  `json:"category,omitempty"`
	UsageCount      int     `json:"usage_count"`
	TargetNodeID    *NodeID `json:"target_node_id,omitempty"`
	CreateContainer bool    `json:"create_container"`
}

// Tag is a user-scoped label attachable to any node.
type Tag struct {
	ID      TagID   `json:"id"`
	OwnerID OwnerID `json:"owner_id"`
	Name    string  `json:"name"`
}

// AnnotatedNode is a node row assembled with every auxiliary attribute
// rule evaluation can touch: tag ids, child count, and the kind-specific
// payload. Exactly one payload pointer is set for task/note/smart_folder/
// template nodes; folders carry none. Assembled once per request by the
// batch loader; evaluation never fetches.
type AnnotatedNode struct {
	Node
	TagIDs      []TagID          `json:"tag_ids,omitempty"`
	ChildCount  int              `json:"child_count"`
	Task        *TaskData        `json:"task,omitempty"`
	Note        *NoteData        `json:"note,omitempty"`
	SmartFolder *SmartFolderData `json:"smart_folder,omitempty"`
	Template    *TemplateData    `json:"template,omitempty"`
}

// ResultSet is an ordered page of matched nodes with pagination metadata.
type ResultSet struct {
	Nodes  []*AnnotatedNode `json:"nodes"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}
