package store

import (
	"context"
	"fmt"

	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

// Source is what the batch loader needs from persistence. Every method is
// a grouped fetch, so loading an owner's candidates costs one node query,
// one tag query, and one payload query per node kind present.
type Source interface {
	FetchNodes(ctx context.Context, owner types.OwnerID) ([]types.Node, error)
	FetchTagsForNodes(ctx context.Context, ids []types.NodeID) (map[types.NodeID][]types.Tag, error)
	FetchTaskData(ctx context.Context, ids []types.NodeID) (map[types.NodeID]*types.TaskData, error)
	FetchNoteData(ctx context.Context, ids []types.NodeID) (map[types.NodeID]*types.NoteData, error)
	FetchSmartFolderData(ctx context.Context, ids []types.NodeID) (map[types.NodeID]*types.SmartFolderData, error)
	FetchTemplateData(ctx context.Context, ids []types.NodeID) (map[types.NodeID]*types.TemplateData, error)
}

// CandidateSet is one owner's fully annotated candidate scope plus the
// parent index rule evaluation walks for ancestor conditions.
type CandidateSet struct {
	Nodes   []*types.AnnotatedNode
	Parents map[types.NodeID]types.NodeID
}

// Loader assembles annotated candidate nodes with a bounded number of
// queries, independent of candidate count.
type Loader struct {
	src Source
}

// NewLoader builds a loader over a node source.
func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// Load fetches and annotates the owner's entire candidate scope. Child
// counts and the parent index are derived in memory from the single node
// fetch rather than queried per node.
func (l *Loader) Load(ctx context.Context, owner types.OwnerID) (*CandidateSet, error) {
	nodes, err := l.src.FetchNodes(ctx, owner)
	if err != nil {
		return nil, err
	}

	ids := make([]types.NodeID, len(nodes))
	byKind := make(map[types.Kind][]types.NodeID)
	for i := range nodes {
		ids[i] = nodes[i].ID
		byKind[nodes[i].Kind] = append(byKind[nodes[i].Kind], nodes[i].ID)
	}

	set := &CandidateSet{
		Nodes:   make([]*types.AnnotatedNode, len(nodes)),
		Parents: make(map[types.NodeID]types.NodeID),
	}
	childCounts := make(map[types.NodeID]int)
	for i := range nodes {
		if nodes[i].ParentID != nil {
			set.Parents[nodes[i].ID] = *nodes[i].ParentID
			childCounts[*nodes[i].ParentID]++
		}
	}

	var tags map[types.NodeID][]types.Tag
	if len(ids) > 0 {
		if tags, err = l.src.FetchTagsForNodes(ctx, ids); err != nil {
			return nil, err
		}
	}

	tasks, err := fetchKind(ctx, byKind[types.KindTask], l.src.FetchTaskData)
	if err != nil {
		return nil, err
	}
	notes, err := fetchKind(ctx, byKind[types.KindNote], l.src.FetchNoteData)
	if err != nil {
		return nil, err
	}
	smartFolders, err := fetchKind(ctx, byKind[types.KindSmartFolder], l.src.FetchSmartFolderData)
	if err != nil {
		return nil, err
	}
	templates, err := fetchKind(ctx, byKind[types.KindTemplate], l.src.FetchTemplateData)
	if err != nil {
		return nil, err
	}

	for i := range nodes {
		an := &types.AnnotatedNode{
			Node:       nodes[i],
			ChildCount: childCounts[nodes[i].ID],
		}
		for _, t := range tags[nodes[i].ID] {
			an.TagIDs = append(an.TagIDs, t.ID)
		}
		switch nodes[i].Kind {
		case types.KindTask:
			if an.Task = tasks[nodes[i].ID]; an.Task == nil {
				return nil, fmt.Errorf("task node %s has no task data", nodes[i].ID)
			}
		case types.KindNote:
			if an.Note = notes[nodes[i].ID]; an.Note == nil {
				return nil, fmt.Errorf("note node %s has no note data", nodes[i].ID)
			}
		case types.KindSmartFolder:
			if an.SmartFolder = smartFolders[nodes[i].ID]; an.SmartFolder == nil {
				return nil, fmt.Errorf("smart folder node %s has no smart folder data", nodes[i].ID)
			}
		case types.KindTemplate:
			an.Template = templates[nodes[i].ID]
		}
		set.Nodes[i] = an
	}

	return set, nil
}

func fetchKind[T any](ctx context.Context, ids []types.NodeID, fetch func(context.Context, []types.NodeID) (map[types.NodeID]*T, error)) (map[types.NodeID]*T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return fetch(ctx, ids)
}
