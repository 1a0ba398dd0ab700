// Package service implements smart folder resolution and saved rule
// management on top of the rule engine and the batch candidate loader.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/bkarjoo/fastgtd-sub000/internal/core/store"
	"github.com/bkarjoo/fastgtd-sub000/internal/rules"
	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

// Pagination bounds applied when the caller omits or overshoots limits.
const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// SmartFolderSource fetches smart folder nodes for content resolution.
type SmartFolderSource interface {
	GetSmartFolder(ctx context.Context, id types.NodeID, owner types.OwnerID) (*types.Node, *types.SmartFolderData, error)
}

// CandidateLoader loads an owner's annotated candidate scope.
type CandidateLoader interface {
	Load(ctx context.Context, owner types.OwnerID) (*store.CandidateSet, error)
}

// Service resolves smart folder contents and previews ad-hoc rules.
type Service struct {
	folders SmartFolderSource
	loader  CandidateLoader
	ruleSrc rules.RuleSource
	engine  *rules.Engine
	log     *slog.Logger
}

// New wires a smart folder service.
func New(folders SmartFolderSource, loader CandidateLoader, ruleSrc rules.RuleSource, engine *rules.Engine, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		folders: folders,
		loader:  loader,
		ruleSrc: ruleSrc,
		engine:  engine,
		log:     log,
	}
}

// Contents resolves a smart folder's current member nodes. The folder's
// effective rule comes from rule_id when set, otherwise from the embedded
// legacy rules; with neither, the folder shows the owner's full candidate
// scope. A rule_id pointing at a missing or invisible rule yields an
// empty result rather than an error.
func (s *Service) Contents(ctx context.Context, owner types.OwnerID, folderID types.NodeID, limit, offset int) (*types.ResultSet, error) {
	node, data, err := s.folders.GetSmartFolder(ctx, folderID, owner)
	if err != nil {
		return nil, err
	}

	var compiled *rules.CompiledRule
	switch {
	case data.RuleID != nil:
		rule, err := s.ruleSrc.VisibleRule(ctx, *data.RuleID, owner)
		if err != nil {
			if errors.Is(err, types.ErrRuleNotFound) {
				s.log.Warn("smart folder references unavailable rule",
					"folder_id", folderID, "rule_id", *data.RuleID)
				return emptyResult(limit, offset), nil
			}
			return nil, err
		}
		if compiled, err = rules.Compile(rule.RuleData); err != nil {
			return nil, err
		}
	case data.Rules != nil:
		if compiled, err = rules.Compile(*data.Rules); err != nil {
			return nil, err
		}
	}

	return s.resolve(ctx, owner, compiled, node.ID, limit, offset)
}

// Preview evaluates an ad-hoc rule over the owner's candidate scope
// without persisting anything.
func (s *Service) Preview(ctx context.Context, owner types.OwnerID, rd types.RuleData, limit, offset int) (*types.ResultSet, error) {
	compiled, err := rules.Compile(rd)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, owner, compiled, "", limit, offset)
}

// resolve loads the candidate scope once, filters it through the compiled
// rule (nil rule means everything matches), and paginates. The folder
// itself never appears in its own results.
func (s *Service) resolve(ctx context.Context, owner types.OwnerID, compiled *rules.CompiledRule, self types.NodeID, limit, offset int) (*types.ResultSet, error) {
	set, err := s.loader.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	env := &rules.Env{Owner: owner, Parents: set.Parents}
	matched := make([]*types.AnnotatedNode, 0, len(set.Nodes))
	for _, n := range set.Nodes {
		if self != "" && n.ID == self {
			continue
		}
		if compiled != nil {
			ok, err := s.engine.Matches(ctx, compiled, n, env)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		matched = append(matched, n)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	return paginate(matched, limit, offset), nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

func paginate(nodes []*types.AnnotatedNode, limit, offset int) *types.ResultSet {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	total := len(nodes)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return &types.ResultSet{
		Nodes:  nodes[offset:end],
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}

func emptyResult(limit, offset int) *types.ResultSet {
	rs := paginate(nil, limit, offset)
	rs.Nodes = []*types.AnnotatedNode{}
	return rs
}

// now is split out so rule timestamps stay testable.
var now = func() time.Time { return time.Now().UTC() }
