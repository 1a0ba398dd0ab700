package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

// RuleStore persists saved rule definitions. Visibility is enforced here:
// reads only ever hand back rules the caller may see, so callers never
// have to re-check ownership.
type RuleStore struct {
	q *Queries
}

// NewRuleStore wraps a named-query set.
func NewRuleStore(q *Queries) *RuleStore {
	return &RuleStore{q: q}
}

type ruleRow struct {
	ID          string         `db:"id"`
	OwnerID     string         `db:"owner_id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	RuleData    string         `db:"rule_data"`
	IsPublic    bool           `db:"is_public"`
	IsSystem    bool           `db:"is_system"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *ruleRow) toRule() (*types.Rule, error) {
	rule := &types.Rule{
		ID:          types.RuleID(r.ID),
		OwnerID:     types.OwnerID(r.OwnerID),
		Name:        r.Name,
		Description: r.Description.String,
		IsPublic:    r.IsPublic,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.RuleData), &rule.RuleData); err != nil {
		return nil, fmt.Errorf("malformed rule data for rule %s: %w", r.ID, err)
	}
	return rule, nil
}

// VisibleRule fetches a rule by id, returning types.ErrRuleNotFound for
// rules that do not exist or that the caller may not see. Missing and
// invisible are deliberately indistinguishable to the caller.
func (s *RuleStore) VisibleRule(ctx context.Context, id types.RuleID, owner types.OwnerID) (*types.Rule, error) {
	var row ruleRow
	err := s.q.Get(ctx, "get-rule", &row, string(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to fetch rule: %w", err)
	}
	rule, err := row.toRule()
	if err != nil {
		return nil, err
	}
	if !rule.VisibleTo(owner) {
		return nil, types.ErrRuleNotFound
	}
	return rule, nil
}

// ListRules returns every rule visible to the owner, optionally narrowed
// to public or system rules, newest first.
func (s *RuleStore) ListRules(ctx context.Context, owner types.OwnerID, includePublic, includeSystem bool) ([]*types.Rule, error) {
	var rows []ruleRow
	err := s.q.Select(ctx, "list-rules", &rows, string(owner), includePublic, includeSystem)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	rules := make([]*types.Rule, 0, len(rows))
	for i := range rows {
		rule, err := rows[i].toRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// InsertRule stores a new rule.
func (s *RuleStore) InsertRule(ctx context.Context, rule *types.Rule) error {
	data, err := json.Marshal(rule.RuleData)
	if err != nil {
		return fmt.Errorf("failed to encode rule data: %w", err)
	}
	_, err = s.q.Exec(ctx, "insert-rule",
		string(rule.ID), string(rule.OwnerID), rule.Name, rule.Description,
		string(data), rule.IsPublic, rule.IsSystem, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}
	return nil
}

// UpdateRule rewrites an owned, non-system rule in place. Returns
// types.ErrRuleNotFound when no such row exists for this owner.
func (s *RuleStore) UpdateRule(ctx context.Context, rule *types.Rule) error {
	data, err := json.Marshal(rule.RuleData)
	if err != nil {
		return fmt.Errorf("failed to encode rule data: %w", err)
	}
	res, err := s.q.Exec(ctx, "update-rule",
		rule.Name, rule.Description, string(data), rule.IsPublic, rule.UpdatedAt,
		string(rule.ID), string(rule.OwnerID))
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return types.ErrRuleNotFound
	}
	return nil
}

// DeleteRule removes an owned, non-system rule. Returns
// types.ErrRuleNotFound when no such row exists for this owner.
func (s *RuleStore) DeleteRule(ctx context.Context, id types.RuleID, owner types.OwnerID) error {
	res, err := s.q.Exec(ctx, "delete-rule", string(id), string(owner))
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return types.ErrRuleNotFound
	}
	return nil
}
