package store

import (
	"context"
	"testing"
	"time"

	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

// fakeSource serves canned data and counts every fetch so tests can
// assert the loader's query bound.
type fakeSource struct {
	nodes        []types.Node
	tags         map[types.NodeID][]types.Tag
	tasks        map[types.NodeID]*types.TaskData
	notes        map[types.NodeID]*types.NoteData
	smartFolders map[types.NodeID]*types.SmartFolderData
	templates    map[types.NodeID]*types.TemplateData

	fetches int
}

func (f *fakeSource) FetchNodes(_ context.Context, owner types.OwnerID) ([]types.Node, error) {
	f.fetches++
	var out []types.Node
	for _, n := range f.nodes {
		if n.OwnerID == owner && n.Kind != types.KindTemplate {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeSource) FetchTagsForNodes(_ context.Context, ids []types.NodeID) (map[types.NodeID][]types.Tag, error) {
	f.fetches++
	return pick(f.tags, ids), nil
}

func (f *fakeSource) FetchTaskData(_ context.Context, ids []types.NodeID) (map[types.NodeID]*types.TaskData, error) {
	f.fetches++
	return pick(f.tasks, ids), nil
}

func (f *fakeSource) FetchNoteData(_ context.Context, ids []types.NodeID) (map[types.NodeID]*types.NoteData, error) {
	f.fetches++
	return pick(f.notes, ids), nil
}

func (f *fakeSource) FetchSmartFolderData(_ context.Context, ids []types.NodeID) (map[types.NodeID]*types.SmartFolderData, error) {
	f.fetches++
	return pick(f.smartFolders, ids), nil
}

func (f *fakeSource) FetchTemplateData(_ context.Context, ids []types.NodeID) (map[types.NodeID]*types.TemplateData, error) {
	f.fetches++
	return pick(f.templates, ids), nil
}

func pick[V any](m map[types.NodeID]V, ids []types.NodeID) map[types.NodeID]V {
	out := make(map[types.NodeID]V)
	for _, id := range ids {
		if v, ok := m[id]; ok {
			out[id] = v
		}
	}
	return out
}

const loaderOwner = types.OwnerID("owner-1")

func fixtureSource() *fakeSource {
	at := func(i int) time.Time {
		return time.Date(2026, 9, 1, 0, 0, i, 0, time.UTC)
	}
	node := func(id string, kind types.Kind, parent string, i int) types.Node {
		n := types.Node{
			ID:        types.NodeID(id),
			OwnerID:   loaderOwner,
			Kind:      kind,
			Title:     id,
			CreatedAt: at(i),
			UpdatedAt: at(i),
		}
		if parent != "" {
			pid := types.NodeID(parent)
			n.ParentID = &pid
		}
		return n
	}
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	return &fakeSource{
		nodes: []types.Node{
			node("folder-a", types.KindFolder, "", 0),
			node("task-1", types.KindTask, "folder-a", 1),
			node("task-2", types.KindTask, "folder-a", 2),
			node("note-1", types.KindNote, "task-1", 3),
			node("sf-1", types.KindSmartFolder, "", 4),
		},
		tags: map[types.NodeID][]types.Tag{
			"task-1": {
				{ID: "tag-urgent", OwnerID: loaderOwner, Name: "urgent"},
				{ID: "tag-work", OwnerID: loaderOwner, Name: "work"},
			},
		},
		tasks: map[types.NodeID]*types.TaskData{
			"task-1": {Status: types.StatusTodo, Priority: types.PriorityHigh, DueAt: &due},
			"task-2": {Status: types.StatusDone, Priority: types.PriorityLow},
		},
		notes: map[types.NodeID]*types.NoteData{
			"note-1": {Body: "meeting notes"},
		},
		smartFolders: map[types.NodeID]*types.SmartFolderData{
			"sf-1": {AutoRefresh: true},
		},
	}
}

func TestLoaderAssemblesAnnotations(t *testing.T) {
	src := fixtureSource()
	set, err := NewLoader(src).Load(context.Background(), loaderOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := len(set.Nodes), 5; got != want {
		t.Fatalf("got %d nodes, want %d", got, want)
	}

	byID := make(map[types.NodeID]*types.AnnotatedNode)
	for _, n := range set.Nodes {
		byID[n.ID] = n
	}

	task1 := byID["task-1"]
	if task1.Task == nil || task1.Task.Priority != types.PriorityHigh {
		t.Errorf("task-1 payload not attached: %+v", task1.Task)
	}
	if got, want := len(task1.TagIDs), 2; got != want {
		t.Errorf("task-1 got %d tags, want %d", got, want)
	}
	if note := byID["note-1"]; note.Note == nil || note.Note.Body != "meeting notes" {
		t.Errorf("note-1 payload not attached: %+v", note.Note)
	}
	if sf := byID["sf-1"]; sf.SmartFolder == nil || !sf.SmartFolder.AutoRefresh {
		t.Errorf("sf-1 payload not attached: %+v", sf.SmartFolder)
	}
	if folder := byID["folder-a"]; folder.Task != nil || folder.Note != nil || folder.SmartFolder != nil {
		t.Errorf("folder-a should carry no payload")
	}
}

func TestLoaderDerivesStructureInMemory(t *testing.T) {
	src := fixtureSource()
	set, err := NewLoader(src).Load(context.Background(), loaderOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := set.Parents["task-1"]; got != "folder-a" {
		t.Errorf("task-1 parent = %q, want folder-a", got)
	}
	if got := set.Parents["note-1"]; got != "task-1" {
		t.Errorf("note-1 parent = %q, want task-1", got)
	}
	if _, ok := set.Parents["folder-a"]; ok {
		t.Errorf("root node should have no parent entry")
	}

	counts := make(map[types.NodeID]int)
	for _, n := range set.Nodes {
		counts[n.ID] = n.ChildCount
	}
	if counts["folder-a"] != 2 {
		t.Errorf("folder-a child count = %d, want 2", counts["folder-a"])
	}
	if counts["task-1"] != 1 {
		t.Errorf("task-1 child count = %d, want 1", counts["task-1"])
	}
	if counts["task-2"] != 0 {
		t.Errorf("task-2 child count = %d, want 0", counts["task-2"])
	}
}

func TestLoaderQueryCountIsBounded(t *testing.T) {
	src := fixtureSource()
	if _, err := NewLoader(src).Load(context.Background(), loaderOwner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1 node fetch + 1 tag fetch + one payload fetch per kind present
	// (task, note, smart_folder).
	if got, want := src.fetches, 5; got != want {
		t.Errorf("got %d fetches, want %d", got, want)
	}
}

func TestLoaderEmptyScope(t *testing.T) {
	src := &fakeSource{}
	set, err := NewLoader(src).Load(context.Background(), loaderOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Nodes) != 0 {
		t.Errorf("got %d nodes, want 0", len(set.Nodes))
	}
	// Only the node fetch should have run.
	if src.fetches != 1 {
		t.Errorf("got %d fetches, want 1", src.fetches)
	}
}
