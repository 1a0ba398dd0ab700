package types

import "github.com/google/uuid"

// NodeID identifies a node. UUIDv7 string; time-ordering clusters
// sequential inserts in B-tree indexes.
type NodeID string

// OwnerID identifies the user owning a node, tag, or rule.
type OwnerID string

// TagID identifies a tag.
type TagID string

// RuleID identifies a stored rule.
type RuleID string

// NewNodeID generates a UUIDv7 node identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewNodeID() NodeID {
	return NodeID(uuid.Must(uuid.NewV7()).String())
}

// NewTagID generates a UUIDv7 tag identifier.
func NewTagID() TagID {
	return TagID(uuid.Must(uuid.NewV7()).String())
}

// NewRuleID generates a UUIDv7 rule identifier.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}

// ParseNodeID validates and converts a string to NodeID.
func ParseNodeID(s string) (NodeID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return NodeID(s), nil
}

// ParseOwnerID validates and converts a string to OwnerID.
func ParseOwnerID(s string) (OwnerID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return OwnerID(s), nil
}

// ParseRuleID validates and converts a string to RuleID.
func ParseRuleID(s string) (RuleID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return RuleID(s), nil
}
