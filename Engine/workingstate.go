package Engine

import (
	"sort"
	"sync"
)

// ServerTask is the authoritative submission-task row as read back from
// storage. The working-state store must always be reconcilable from these
// rows, never the reverse.
type ServerTask struct {
	TaskID       uint
	Status       TaskStatus
	ReviewStatus ReviewStatus
	NA           bool
	Value        string
	Note         string
	Photos       []string
	ReworkCount  int
	ReviewNote   string
}

// DraftTask is the session-local working state for one task.
type DraftTask struct {
	TaskID       uint         `json:"task_id"`
	Status       TaskStatus   `json:"status"`
	ReviewStatus ReviewStatus `json:"review_status"`
	NA           bool         `json:"na"`
	Value        string       `json:"value"`
	Note         string       `json:"note"`
	Photos       []string     `json:"photos"`
	ReworkCount  int          `json:"rework_count"`
	ReviewNote   string       `json:"review_note"`
}

// State adapts the draft into the eligibility evaluator's input.
func (d DraftTask) State() *TaskState {
	return &TaskState{NA: d.NA, Value: d.Value, Note: d.Note, Photos: d.Photos}
}

// MergeTaskState reconciles an authoritative row into a draft. Server-owned
// fields (status, review status, rework count, review note) always win;
// draft-only in-progress edits survive only when the server has no value
// for them yet.
func MergeTaskState(server *ServerTask, draft *DraftTask) DraftTask {
	if server == nil {
		if draft == nil {
			return DraftTask{}
		}
		return *draft
	}
	merged := DraftTask{
		TaskID:       server.TaskID,
		Status:       server.Status,
		ReviewStatus: server.ReviewStatus,
		NA:           server.NA,
		Value:        server.Value,
		Note:         server.Note,
		Photos:       server.Photos,
		ReworkCount:  server.ReworkCount,
		ReviewNote:   server.ReviewNote,
	}
	if draft != nil {
		if merged.Note == "" {
			merged.Note = draft.Note
		}
		if merged.Value == "" {
			merged.Value = draft.Value
		}
		if len(merged.Photos) == 0 {
			merged.Photos = draft.Photos
		}
	}
	return merged
}

// AllowDraftEdit reports whether an edit touching the given fields may be
// applied to a draft in the given status. Once a task is Complete its state
// is frozen except for the note and photo changes a rework fix needs;
// status-bearing fields reopen only through the rework transition, which
// resets the task to Incomplete.
func AllowDraftEdit(status TaskStatus, touchesNA, touchesValue bool) bool {
	if status != TaskComplete {
		return true
	}
	return !touchesNA && !touchesValue
}

// SessionKey identifies one tasklist's working state for one calendar day.
type SessionKey struct {
	TasklistID uint
	Date       string
}

// Store holds per-tasklist draft state during work sessions. It is shared
// by the request handlers and the reconciliation callbacks; reconciliation
// re-derives state from a fresh authoritative read rather than applying
// diffs.
type Store struct {
	mu       sync.RWMutex
	sessions map[SessionKey]map[uint]*DraftTask
}

func NewStore() *Store {
	return &Store{sessions: make(map[SessionKey]map[uint]*DraftTask)}
}

// Seed creates default drafts for a freshly resolved tasklist. Drafts that
// already exist are kept, so seeding is idempotent.
func (s *Store) Seed(key SessionKey, tasks []TaskSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.sessions[key]
	if m == nil {
		m = make(map[uint]*DraftTask, len(tasks))
		s.sessions[key] = m
	}
	for _, t := range tasks {
		if _, ok := m[t.ID]; ok {
			continue
		}
		m[t.ID] = &DraftTask{
			TaskID:       t.ID,
			Status:       TaskIncomplete,
			ReviewStatus: ReviewPending,
		}
	}
}

// EditDraft applies a worker edit to one task's draft. Returns false when
// the tasklist was never seeded or the task is unknown.
func (s *Store) EditDraft(key SessionKey, taskID uint, edit func(*DraftTask)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.sessions[key][taskID]
	if !ok {
		return false
	}
	edit(d)
	return true
}

// Reconcile folds authoritative rows into the session. Every row present in
// the read replaces the server-owned fields of its draft per MergeTaskState.
func (s *Store) Reconcile(key SessionKey, rows []ServerTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.sessions[key]
	if m == nil {
		m = make(map[uint]*DraftTask, len(rows))
		s.sessions[key] = m
	}
	for i := range rows {
		row := rows[i]
		merged := MergeTaskState(&row, m[row.TaskID])
		m[row.TaskID] = &merged
	}
}

// Get returns a copy of one task's draft.
func (s *Store) Get(key SessionKey, taskID uint) (DraftTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.sessions[key][taskID]
	if !ok {
		return DraftTask{}, false
	}
	return *d, true
}

// Snapshot returns the tasklist's drafts ordered by task id.
func (s *Store) Snapshot(key SessionKey) []DraftTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.sessions[key]
	out := make([]DraftTask, 0, len(m))
	for _, d := range m {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

// Drop discards a session's drafts, e.g. when the day rolls over.
func (s *Store) Drop(key SessionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}
