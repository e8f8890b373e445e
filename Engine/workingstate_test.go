package Engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeTaskStateServerFieldsWin(t *testing.T) {
	server := &ServerTask{
		TaskID:       7,
		Status:       TaskComplete,
		ReviewStatus: ReviewRework,
		ReworkCount:  2,
		ReviewNote:   "missing photo",
		Note:         "saved note",
		Photos:       []string{"/Evidence/a.jpg"},
	}
	draft := &DraftTask{
		TaskID:       7,
		Status:       TaskIncomplete,
		ReviewStatus: ReviewPending,
		ReworkCount:  0,
		Note:         "half-typed local note",
	}

	merged := MergeTaskState(server, draft)
	assert.Equal(t, TaskComplete, merged.Status)
	assert.Equal(t, ReviewRework, merged.ReviewStatus)
	assert.Equal(t, 2, merged.ReworkCount)
	assert.Equal(t, "missing photo", merged.ReviewNote)
	assert.Equal(t, "saved note", merged.Note)
	assert.Equal(t, []string{"/Evidence/a.jpg"}, merged.Photos)
}

// An in-progress local note survives reconciliation while the server has no
// opinion on it yet.
func TestMergeTaskStatePreservesDraftOnlyEdits(t *testing.T) {
	server := &ServerTask{TaskID: 7, Status: TaskIncomplete, ReviewStatus: ReviewPending}
	draft := &DraftTask{TaskID: 7, Note: "typing...", Value: "36.5", Photos: []string{"/Evidence/local.jpg"}}

	merged := MergeTaskState(server, draft)
	assert.Equal(t, "typing...", merged.Note)
	assert.Equal(t, "36.5", merged.Value)
	assert.Equal(t, []string{"/Evidence/local.jpg"}, merged.Photos)
}

func TestMergeTaskStateNilSides(t *testing.T) {
	draft := &DraftTask{TaskID: 3, Note: "local"}
	assert.Equal(t, *draft, MergeTaskState(nil, draft))

	server := &ServerTask{TaskID: 3, Status: TaskComplete, ReviewStatus: ReviewApproved}
	merged := MergeTaskState(server, nil)
	assert.Equal(t, TaskComplete, merged.Status)
	assert.Equal(t, ReviewApproved, merged.ReviewStatus)
}

// A completed task's draft is frozen except for the note and photo edits a
// rework fix needs.
func TestAllowDraftEditFreezesCompletedTasks(t *testing.T) {
	tests := []struct {
		name         string
		status       TaskStatus
		touchesNA    bool
		touchesValue bool
		want         bool
	}{
		{"incomplete accepts any edit", TaskIncomplete, true, true, true},
		{"complete rejects na toggle", TaskComplete, true, false, false},
		{"complete rejects value change", TaskComplete, false, true, false},
		{"complete accepts note and photo edits", TaskComplete, false, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AllowDraftEdit(tc.status, tc.touchesNA, tc.touchesValue))
		})
	}
}

func TestStoreSeedIsIdempotent(t *testing.T) {
	store := NewStore()
	key := SessionKey{TasklistID: 1, Date: "2026-08-24"}
	tasks := []TaskSnapshot{{ID: 100}, {ID: 101}}

	store.Seed(key, tasks)
	ok := store.EditDraft(key, 100, func(d *DraftTask) { d.Note = "in progress" })
	require.True(t, ok)

	store.Seed(key, tasks)
	d, ok := store.Get(key, 100)
	require.True(t, ok)
	assert.Equal(t, "in progress", d.Note)
}

func TestStoreReconcileKeepsLocalEdits(t *testing.T) {
	store := NewStore()
	key := SessionKey{TasklistID: 1, Date: "2026-08-24"}
	store.Seed(key, []TaskSnapshot{{ID: 100}, {ID: 101}})

	store.EditDraft(key, 100, func(d *DraftTask) { d.Note = "being typed" })
	store.Reconcile(key, []ServerTask{
		{TaskID: 100, Status: TaskIncomplete, ReviewStatus: ReviewPending},
		{TaskID: 101, Status: TaskComplete, ReviewStatus: ReviewRework, ReworkCount: 1, ReviewNote: "redo"},
	})

	typed, _ := store.Get(key, 100)
	assert.Equal(t, "being typed", typed.Note)

	reworked, _ := store.Get(key, 101)
	assert.Equal(t, ReviewRework, reworked.ReviewStatus)
	assert.Equal(t, 1, reworked.ReworkCount)
	assert.Equal(t, "redo", reworked.ReviewNote)
}

func TestStoreSnapshotOrderedByTaskID(t *testing.T) {
	store := NewStore()
	key := SessionKey{TasklistID: 1, Date: "2026-08-24"}
	store.Seed(key, []TaskSnapshot{{ID: 300}, {ID: 100}, {ID: 200}})

	snap := store.Snapshot(key)
	require.Len(t, snap, 3)
	assert.Equal(t, uint(100), snap[0].TaskID)
	assert.Equal(t, uint(200), snap[1].TaskID)
	assert.Equal(t, uint(300), snap[2].TaskID)
}

func TestStoreEditUnknownTask(t *testing.T) {
	store := NewStore()
	key := SessionKey{TasklistID: 1, Date: "2026-08-24"}
	assert.False(t, store.EditDraft(key, 42, func(d *DraftTask) {}))
}

func TestStoreDrop(t *testing.T) {
	store := NewStore()
	key := SessionKey{TasklistID: 1, Date: "2026-08-24"}
	store.Seed(key, []TaskSnapshot{{ID: 100}})
	store.Drop(key)
	_, ok := store.Get(key, 100)
	assert.False(t, ok)
}
