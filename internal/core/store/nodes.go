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

// NodeStore reads node rows, tag associations, and per-kind payloads.
// All methods are grouped fetches: one query regardless of id count.
type NodeStore struct {
	q *Queries
}

// NewNodeStore wraps a named-query set.
func NewNodeStore(q *Queries) *NodeStore {
	return &NodeStore{q: q}
}

type nodeRow struct {
	ID        string         `db:"id"`
	OwnerID   string         `db:"owner_id"`
	ParentID  sql.NullString `db:"parent_id"`
	NodeType  string         `db:"node_type"`
	Title     string         `db:"title"`
	SortOrder int            `db:"sort_order"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *nodeRow) toNode() types.Node {
	n := types.Node{
		ID:        types.NodeID(r.ID),
		OwnerID:   types.OwnerID(r.OwnerID),
		Kind:      types.Kind(r.NodeType),
		Title:     r.Title,
		SortOrder: r.SortOrder,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.ParentID.Valid {
		pid := types.NodeID(r.ParentID.String)
		n.ParentID = &pid
	}
	return n
}

// FetchNodes returns the owner's candidate nodes (templates excluded)
// ordered by creation time with id tiebreak.
func (s *NodeStore) FetchNodes(ctx context.Context, owner types.OwnerID) ([]types.Node, error) {
	var rows []nodeRow
	if err := s.q.Select(ctx, "list-candidate-nodes", &rows, string(owner)); err != nil {
		return nil, fmt.Errorf("failed to fetch nodes: %w", err)
	}
	nodes := make([]types.Node, len(rows))
	for i := range rows {
		nodes[i] = rows[i].toNode()
	}
	return nodes, nil
}

// FetchTagsForNodes returns tag associations for all ids in one query,
// bucketed by node id.
func (s *NodeStore) FetchTagsForNodes(ctx context.Context, ids []types.NodeID) (map[types.NodeID][]types.Tag, error) {
	if len(ids) == 0 {
		return map[types.NodeID][]types.Tag{}, nil
	}
	var rows []struct {
		NodeID  string `db:"node_id"`
		TagID   string `db:"tag_id"`
		OwnerID string `db:"owner_id"`
		Name    string `db:"name"`
	}
	if err := s.q.SelectIn(ctx, "list-node-tags", &rows, idStrings(ids)); err != nil {
		return nil, fmt.Errorf("failed to fetch node tags: %w", err)
	}
	out := make(map[types.NodeID][]types.Tag, len(rows))
	for _, r := range rows {
		nid := types.NodeID(r.NodeID)
		out[nid] = append(out[nid], types.Tag{
			ID:      types.TagID(r.TagID),
			OwnerID: types.OwnerID(r.OwnerID),
			Name:    r.Name,
		})
	}
	return out, nil
}

// FetchTaskData returns task payloads for the given ids in one query.
func (s *NodeStore) FetchTaskData(ctx context.Context, ids []types.NodeID) (map[types.NodeID]*types.TaskData, error) {
	if len(ids) == 0 {
		return map[types.NodeID]*types.TaskData{}, nil
	}
	var rows []struct {
		ID              string       `db:"id"`
		Status          string       `db:"status"`
		Priority        string       `db:"priority"`
		DueAt           sql.NullTime `db:"due_at"`
		EarliestStartAt sql.NullTime `db:"earliest_start_at"`
		CompletedAt     sql.NullTime `db:"completed_at"`
		Archived        bool         `db:"archived"`
	}
	if err := s.q.SelectIn(ctx, "list-task-data", &rows, idStrings(ids)); err != nil {
		return nil, fmt.Errorf("failed to fetch task data: %w", err)
	}
	out := make(map[types.NodeID]*types.TaskData, len(rows))
	for _, r := range rows {
		out[types.NodeID(r.ID)] = &types.TaskData{
			Status:          types.TaskStatus(r.Status),
			Priority:        types.TaskPriority(r.Priority),
			DueAt:           nullTime(r.DueAt),
			EarliestStartAt: nullTime(r.EarliestStartAt),
			CompletedAt:     nullTime(r.CompletedAt),
			Archived:        r.Archived,
		}
	}
	return out, nil
}

// FetchNoteData returns note payloads for the given ids in one query.
func (s *NodeStore) FetchNoteData(ctx context.Context, ids []types.NodeID) (map[types.NodeID]*types.NoteData, error) {
	if len(ids) == 0 {
		return map[types.NodeID]*types.NoteData{}, nil
	}
	var rows []struct {
		ID   string `db:"id"`
		Body string `db:"body"`
	}
	if err := s.q.SelectIn(ctx, "list-note-data", &rows, idStrings(ids)); err != nil {
		return nil, fmt.Errorf("failed to fetch note data: %w", err)
	}
	out := make(map[types.NodeID]*types.NoteData, len(rows))
	for _, r := range rows {
		out[types.NodeID(r.ID)] = &types.NoteData{Body: r.Body}
	}
	return out, nil
}

type smartFolderRow struct {
	ID          string         `db:"id"`
	RuleID      sql.NullString `db:"rule_id"`
	Rules       sql.NullString `db:"rules"`
	AutoRefresh bool           `db:"auto_refresh"`
	Description sql.NullString `db:"description"`
}

func (r *smartFolderRow) toData() (*types.SmartFolderData, error) {
	data := &types.SmartFolderData{
		AutoRefresh: r.AutoRefresh,
		Description: r.Description.String,
	}
	if r.RuleID.Valid {
		rid := types.RuleID(r.RuleID.String)
		data.RuleID = &rid
	}
	if r.Rules.Valid && r.Rules.String != "" {
		var rd types.RuleData
		if err := json.Unmarshal([]byte(r.Rules.String), &rd); err != nil {
			return nil, fmt.Errorf("malformed legacy rules for smart folder %s: %w", r.ID, err)
		}
		data.Rules = &rd
	}
	return data, nil
}

// FetchSmartFolderData returns smart folder payloads for the given ids in
// one query. The legacy rules column is decoded from its JSON wire shape.
func (s *NodeStore) FetchSmartFolderData(ctx context.Context, ids []types.NodeID) (map[types.NodeID]*types.SmartFolderData, error) {
	if len(ids) == 0 {
		return map[types.NodeID]*types.SmartFolderData{}, nil
	}
	var rows []smartFolderRow
	if err := s.q.SelectIn(ctx, "list-smart-folder-data", &rows, idStrings(ids)); err != nil {
		return nil, fmt.Errorf("failed to fetch smart folder data: %w", err)
	}
	out := make(map[types.NodeID]*types.SmartFolderData, len(rows))
	for i := range rows {
		data, err := rows[i].toData()
		if err != nil {
			return nil, err
		}
		out[types.NodeID(rows[i].ID)] = data
	}
	return out, nil
}

// FetchTemplateData returns template payloads for the given ids in one
// query. Templates are excluded from candidate scope but the smart folder
// node itself can still reference one through navigation responses.
func (s *NodeStore) FetchTemplateData(ctx context.Context, ids []types.NodeID) (map[types.NodeID]*types.TemplateData, error) {
	if len(ids) == 0 {
		return map[types.NodeID]*types.TemplateData{}, nil
	}
	var rows []struct {
		ID              string         `db:"id"`
		Description     sql.NullString `db:"description"`
		Category        sql.NullString `db:"category"`
		UsageCount      int            `db:"usage_count"`
		TargetNodeID    sql.NullString `db:"target_node_id"`
		CreateContainer bool           `db:"create_container"`
	}
	if err := s.q.SelectIn(ctx, "list-template-data", &rows, idStrings(ids)); err != nil {
		return nil, fmt.Errorf("failed to fetch template data: %w", err)
	}
	out := make(map[types.NodeID]*types.TemplateData, len(rows))
	for _, r := range rows {
		td := &types.TemplateData{
			Description:     r.Description.String,
			Category:        r.Category.String,
			UsageCount:      r.UsageCount,
			CreateContainer: r.CreateContainer,
		}
		if r.TargetNodeID.Valid {
			tid := types.NodeID(r.TargetNodeID.String)
			td.TargetNodeID = &tid
		}
		out[types.NodeID(r.ID)] = td
	}
	return out, nil
}

// GetSmartFolder fetches one smart folder owned by the caller.
// Missing, foreign, and non-smart-folder nodes all return
// types.ErrSmartFolderNotFound.
func (s *NodeStore) GetSmartFolder(ctx context.Context, id types.NodeID, owner types.OwnerID) (*types.Node, *types.SmartFolderData, error) {
	var row struct {
		nodeRow
		RuleID      sql.NullString `db:"rule_id"`
		Rules       sql.NullString `db:"rules"`
		AutoRefresh bool           `db:"auto_refresh"`
		Description sql.NullString `db:"description"`
	}
	err := s.q.Get(ctx, "get-smart-folder", &row, string(id), string(owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, types.ErrSmartFolderNotFound
		}
		return nil, nil, fmt.Errorf("failed to fetch smart folder: %w", err)
	}
	node := row.nodeRow.toNode()
	sf := smartFolderRow{
		ID:          row.ID,
		RuleID:      row.RuleID,
		Rules:       row.Rules,
		AutoRefresh: row.AutoRefresh,
		Description: row.Description,
	}
	data, err := sf.toData()
	if err != nil {
		return nil, nil, err
	}
	return &node, data, nil
}

func idStrings(ids []types.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
