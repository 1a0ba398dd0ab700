package service

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

type memRepo struct {
	byID map[types.RuleID]*types.Rule
}

func newMemRepo(rules ...*types.Rule) *memRepo {
	r := &memRepo{byID: map[types.RuleID]*types.Rule{}}
	for _, rule := range rules {
		r.byID[rule.ID] = rule
	}
	return r
}

func (r *memRepo) VisibleRule(_ context.Context, id types.RuleID, owner types.OwnerID) (*types.Rule, error) {
	rule, ok := r.byID[id]
	if !ok || !rule.VisibleTo(owner) {
		return nil, types.ErrRuleNotFound
	}
	cp := *rule
	return &cp, nil
}

func (r *memRepo) ListRules(_ context.Context, owner types.OwnerID, includePublic, includeSystem bool) ([]*types.Rule, error) {
	var out []*types.Rule
	for _, rule := range r.byID {
		switch {
		case rule.OwnerID == owner,
			includePublic && rule.IsPublic,
			includeSystem && rule.IsSystem:
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) InsertRule(_ context.Context, rule *types.Rule) error {
	cp := *rule
	r.byID[rule.ID] = &cp
	return nil
}

func (r *memRepo) UpdateRule(_ context.Context, rule *types.Rule) error {
	existing, ok := r.byID[rule.ID]
	if !ok || existing.OwnerID != rule.OwnerID || existing.IsSystem {
		return types.ErrRuleNotFound
	}
	cp := *rule
	r.byID[rule.ID] = &cp
	return nil
}

func (r *memRepo) DeleteRule(_ context.Context, id types.RuleID, owner types.OwnerID) error {
	existing, ok := r.byID[id]
	if !ok || existing.OwnerID != owner || existing.IsSystem {
		return types.ErrRuleNotFound
	}
	delete(r.byID, id)
	return nil
}

func highPriorityData() types.RuleData {
	return types.RuleData{
		Logic: types.LogicAnd,
		Conditions: []types.Condition{
			{Type: "task_priority", Operator: "in", Values: []string{"high", "urgent"}},
		},
	}
}

func TestRuleServiceCreate(t *testing.T) {
	svc := NewRuleService(newMemRepo())

	rule, err := svc.Create(context.Background(), owner, CreateParams{
		Name:     "  important  ",
		RuleData: highPriorityData(),
	})
	require.NoError(t, err)
	assert.Equal(t, "important", rule.Name)
	assert.Equal(t, owner, rule.OwnerID)
	assert.NotEmpty(t, rule.ID)
	assert.False(t, rule.IsSystem)

	got, err := svc.Get(context.Background(), rule.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, rule.RuleData, got.RuleData)
}

func TestRuleServiceCreateRejectsInvalid(t *testing.T) {
	svc := NewRuleService(newMemRepo())

	_, err := svc.Create(context.Background(), owner, CreateParams{
		Name: "bad",
		RuleData: types.RuleData{
			Logic:      "XOR",
			Conditions: []types.Condition{},
		},
	})
	assert.ErrorIs(t, err, types.ErrBadRule)

	_, err = svc.Create(context.Background(), owner, CreateParams{Name: "   ", RuleData: highPriorityData()})
	assert.ErrorIs(t, err, types.ErrBadRule)
}

func TestRuleServiceList(t *testing.T) {
	repo := newMemRepo(
		&types.Rule{ID: "r-mine", OwnerID: owner, Name: "mine", RuleData: highPriorityData()},
		&types.Rule{ID: "r-pub", OwnerID: "owner-2", Name: "shared", IsPublic: true, RuleData: highPriorityData()},
		&types.Rule{ID: "r-sys", OwnerID: "system", Name: "builtin", IsSystem: true, RuleData: highPriorityData()},
		&types.Rule{ID: "r-priv", OwnerID: "owner-2", Name: "theirs", RuleData: highPriorityData()},
	)
	svc := NewRuleService(repo)

	own, err := svc.List(context.Background(), owner, false, false)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, types.RuleID("r-mine"), own[0].ID)

	all, err := svc.List(context.Background(), owner, true, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRuleServiceUpdate(t *testing.T) {
	repo := newMemRepo(
		&types.Rule{ID: "r-mine", OwnerID: owner, Name: "mine", RuleData: highPriorityData()},
		&types.Rule{ID: "r-sys", OwnerID: "system", Name: "builtin", IsSystem: true, RuleData: highPriorityData()},
	)
	svc := NewRuleService(repo)

	updated, err := svc.Update(context.Background(), "r-mine", owner, CreateParams{
		Name:     "renamed",
		RuleData: highPriorityData(),
		IsPublic: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.True(t, updated.IsPublic)

	// System rules are read-only even though they are visible.
	_, err = svc.Update(context.Background(), "r-sys", owner, CreateParams{Name: "x", RuleData: highPriorityData()})
	assert.ErrorIs(t, err, types.ErrRuleNotFound)
}

func TestRuleServiceDelete(t *testing.T) {
	repo := newMemRepo(
		&types.Rule{ID: "r-mine", OwnerID: owner, Name: "mine", RuleData: highPriorityData()},
	)
	svc := NewRuleService(repo)

	require.NoError(t, svc.Delete(context.Background(), "r-mine", owner))
	assert.ErrorIs(t, svc.Delete(context.Background(), "r-mine", owner), types.ErrRuleNotFound)
}

func TestRuleServiceDuplicate(t *testing.T) {
	repo := newMemRepo(
		&types.Rule{ID: "r-pub", OwnerID: "owner-2", Name: "shared", IsPublic: true, RuleData: highPriorityData()},
	)
	svc := NewRuleService(repo)

	copied, err := svc.Duplicate(context.Background(), "r-pub", owner, "")
	require.NoError(t, err)
	assert.Equal(t, "shared (Copy)", copied.Name)
	assert.Equal(t, owner, copied.OwnerID)
	assert.False(t, copied.IsPublic)
	assert.NotEqual(t, types.RuleID("r-pub"), copied.ID)
	assert.Equal(t, highPriorityData(), copied.RuleData)

	named, err := svc.Duplicate(context.Background(), "r-pub", owner, "my version")
	require.NoError(t, err)
	assert.Equal(t, "my version", named.Name)

	_, err = svc.Duplicate(context.Background(), "r-missing", owner, "")
	assert.ErrorIs(t, err, types.ErrRuleNotFound)
}
