package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bkarjoo/fastgtd-sub000/internal/rules"
	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

// RuleRepository is the persistence surface the rule service needs.
type RuleRepository interface {
	rules.RuleSource
	ListRules(ctx context.Context, owner types.OwnerID, includePublic, includeSystem bool) ([]*types.Rule, error)
	InsertRule(ctx context.Context, rule *types.Rule) error
	UpdateRule(ctx context.Context, rule *types.Rule) error
	DeleteRule(ctx context.Context, id types.RuleID, owner types.OwnerID) error
}

// RuleService manages saved rule definitions. Rule data is compiled
// before any write so malformed rules never reach storage.
type RuleService struct {
	repo RuleRepository
}

// NewRuleService wires a rule service.
func NewRuleService(repo RuleRepository) *RuleService {
	return &RuleService{repo: repo}
}

// List returns the owner's rules, optionally widened to public and
// system rules.
func (s *RuleService) List(ctx context.Context, owner types.OwnerID, includePublic, includeSystem bool) ([]*types.Rule, error) {
	return s.repo.ListRules(ctx, owner, includePublic, includeSystem)
}

// Get returns one visible rule.
func (s *RuleService) Get(ctx context.Context, id types.RuleID, owner types.OwnerID) (*types.Rule, error) {
	return s.repo.VisibleRule(ctx, id, owner)
}

// CreateParams carries the caller-supplied fields of a new rule.
type CreateParams struct {
	Name        string
	Description string
	RuleData    types.RuleData
	IsPublic    bool
}

// Create validates and stores a new private or public rule owned by the
// caller. System rules are seeded, never created through the API.
func (s *RuleService) Create(ctx context.Context, owner types.OwnerID, p CreateParams) (*types.Rule, error) {
	if err := validateName(p.Name); err != nil {
		return nil, err
	}
	if _, err := rules.Compile(p.RuleData); err != nil {
		return nil, err
	}
	ts := now()
	rule := &types.Rule{
		ID:          types.NewRuleID(),
		OwnerID:     owner,
		Name:        strings.TrimSpace(p.Name),
		Description: p.Description,
		RuleData:    p.RuleData,
		IsPublic:    p.IsPublic,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.repo.InsertRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// Update rewrites an owned, non-system rule.
func (s *RuleService) Update(ctx context.Context, id types.RuleID, owner types.OwnerID, p CreateParams) (*types.Rule, error) {
	if err := validateName(p.Name); err != nil {
		return nil, err
	}
	if _, err := rules.Compile(p.RuleData); err != nil {
		return nil, err
	}
	existing, err := s.repo.VisibleRule(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	// Visible covers public and system rules too; only the owner's own
	// non-system rules are writable.
	if existing.OwnerID != owner || existing.IsSystem {
		return nil, types.ErrRuleNotFound
	}
	existing.Name = strings.TrimSpace(p.Name)
	existing.Description = p.Description
	existing.RuleData = p.RuleData
	existing.IsPublic = p.IsPublic
	existing.UpdatedAt = now()
	if err := s.repo.UpdateRule(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes an owned, non-system rule.
func (s *RuleService) Delete(ctx context.Context, id types.RuleID, owner types.OwnerID) error {
	return s.repo.DeleteRule(ctx, id, owner)
}

// Duplicate copies any visible rule into a new private rule owned by the
// caller. An empty name defaults to "<original name> (Copy)".
func (s *RuleService) Duplicate(ctx context.Context, id types.RuleID, owner types.OwnerID, name string) (*types.Rule, error) {
	src, err := s.repo.VisibleRule(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = src.Name + " (Copy)"
	}
	ts := now()
	copied := &types.Rule{
		ID:          types.NewRuleID(),
		OwnerID:     owner,
		Name:        name,
		Description: src.Description,
		RuleData:    src.RuleData,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.repo.InsertRule(ctx, copied); err != nil {
		return nil, err
	}
	return copied, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: rule name must not be empty", types.ErrBadRule)
	}
	return nil
}
