package Models

import (
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"ShiftCheck/Engine"
)

// Submission is the one-per-day durable record binding a tasklist instance
// to a calendar date and location. The natural key (tasklist, location,
// date) is unique; creation always goes through FindOrCreateSubmission.
type Submission struct {
	gorm.Model
	TenantID    uint                    `json:"tenant_id" gorm:"index;not null"`
	TasklistID  uint                    `json:"tasklist_id" gorm:"index;not null"` // originating template
	LocationID  uint                    `json:"location_id" gorm:"index;not null"`
	Date        string                  `json:"date" gorm:"type:varchar(10);not null"` // ISO date in the location's timezone
	Status      Engine.SubmissionStatus `json:"status" gorm:"type:varchar(10);default:'Pending'"`
	SignedBy    string                  `json:"signed_by"` // PIN-derived actor tag
	SubmittedBy uint                    `json:"submitted_by"`

	Tasks []SubmissionTask `json:"tasks" gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

// SubmissionTask is one task's durable outcome within a submission, keyed
// by (submission, task) and written only through UpsertSubmissionTask.
type SubmissionTask struct {
	gorm.Model
	SubmissionID uint                `json:"submission_id" gorm:"index;not null"`
	TaskID       uint                `json:"task_id" gorm:"index;not null"`
	Status       Engine.TaskStatus   `json:"status" gorm:"type:varchar(10);default:'Incomplete'"`
	ReviewStatus Engine.ReviewStatus `json:"review_status" gorm:"type:varchar(10);default:'Pending'"`
	NA           bool                `json:"na"`
	Value        string              `json:"value"`
	Note         string              `json:"note" gorm:"type:text"`
	ReworkCount  int                 `json:"rework_count" gorm:"default:0"` // monotonic, never reset
	ReviewNote   string              `json:"review_note" gorm:"type:text"`
	SubmittedBy  uint                `json:"submitted_by"`

	Photos     []string        `json:"photos" gorm:"-"`
	JSONPhotos json.RawMessage `json:"-" gorm:"column:photos"`
}

func (t *SubmissionTask) BeforeSave(tx *gorm.DB) error {
	data, err := json.Marshal(t.Photos)
	if err != nil {
		return err
	}
	t.JSONPhotos = data
	return nil
}

func (t *SubmissionTask) AfterFind(tx *gorm.DB) error {
	if len(t.JSONPhotos) == 0 {
		t.Photos = nil
		return nil
	}
	return json.Unmarshal(t.JSONPhotos, &t.Photos)
}

// ServerState adapts the row for working-state reconciliation.
func (t *SubmissionTask) ServerState() Engine.ServerTask {
	return Engine.ServerTask{
		TaskID:       t.TaskID,
		Status:       t.Status,
		ReviewStatus: t.ReviewStatus,
		NA:           t.NA,
		Value:        t.Value,
		Note:         t.Note,
		Photos:       t.Photos,
		ReworkCount:  t.ReworkCount,
		ReviewNote:   t.ReviewNote,
	}
}

// TaskState adapts the row for the eligibility evaluator.
func (t *SubmissionTask) TaskState() *Engine.TaskState {
	return &Engine.TaskState{NA: t.NA, Value: t.Value, Note: t.Note, Photos: t.Photos}
}

// SetupSubmissionIndexes enforces the natural keys: one submission per
// (tasklist, location, date) and one row per (submission, task).
func SetupSubmissionIndexes(db *gorm.DB) error {
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_submission_natural_key ON submissions (tasklist_id, location_id, date) WHERE deleted_at IS NULL").Error; err != nil {
		return err
	}
	return db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_submission_task_key ON submission_tasks (submission_id, task_id) WHERE deleted_at IS NULL").Error
}

// IsUniqueViolation reports whether err is the storage layer refusing a
// duplicate key.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "Duplicate entry")
}

// FindOrCreateSubmission returns the single daily submission for the
// natural key, creating it when absent. A concurrent creator losing the
// race on the unique index is absorbed by re-reading the winner's row, so
// both callers end up with the same submission id.
func FindOrCreateSubmission(db *gorm.DB, tenantID, tasklistID, locationID uint, dateISO string) (*Submission, error) {
	var sub Submission
	err := db.Where("tasklist_id = ? AND location_id = ? AND date = ?", tasklistID, locationID, dateISO).First(&sub).Error
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sub = Submission{
		TenantID:   tenantID,
		TasklistID: tasklistID,
		LocationID: locationID,
		Date:       dateISO,
		Status:     Engine.SubmissionPending,
	}
	if createErr := db.Create(&sub).Error; createErr != nil {
		if IsUniqueViolation(createErr) {
			var existing Submission
			if err := db.Where("tasklist_id = ? AND location_id = ? AND date = ?", tasklistID, locationID, dateISO).First(&existing).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, createErr
	}
	return &sub, nil
}

// SubmissionTaskPatch carries only the fields the caller wants written;
// nil fields are left untouched by the upsert. Photos replace the stored
// list wholesale, so appending is read-merge-write on the caller's side.
type SubmissionTaskPatch struct {
	Status       *Engine.TaskStatus
	ReviewStatus *Engine.ReviewStatus
	NA           *bool
	Value        *string
	Note         *string
	Photos       []string
	ReviewNote   *string
	SubmittedBy  *uint
}

// UpsertSubmissionTask is the idempotent write keyed by (submission, task).
// Retrying the same call after a transient failure is safe.
func UpsertSubmissionTask(db *gorm.DB, submissionID, taskID uint, patch SubmissionTaskPatch) (*SubmissionTask, error) {
	var row SubmissionTask
	err := db.Where("submission_id = ? AND task_id = ?", submissionID, taskID).First(&row).Error
	created := false
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = SubmissionTask{
			SubmissionID: submissionID,
			TaskID:       taskID,
			Status:       Engine.TaskIncomplete,
			ReviewStatus: Engine.ReviewPending,
		}
		created = true
	} else if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		row.Status = *patch.Status
	}
	if patch.ReviewStatus != nil {
		row.ReviewStatus = *patch.ReviewStatus
	}
	if patch.NA != nil {
		row.NA = *patch.NA
	}
	if patch.Value != nil {
		row.Value = *patch.Value
	}
	if patch.Note != nil {
		row.Note = *patch.Note
	}
	if patch.Photos != nil {
		row.Photos = patch.Photos
	}
	if patch.ReviewNote != nil {
		row.ReviewNote = *patch.ReviewNote
	}
	if patch.SubmittedBy != nil {
		row.SubmittedBy = *patch.SubmittedBy
	}

	if saveErr := db.Save(&row).Error; saveErr != nil {
		if created && IsUniqueViolation(saveErr) {
			// Lost a first-write race on (submission, task); the winner's
			// row exists now, re-apply on top of it.
			return UpsertSubmissionTask(db, submissionID, taskID, patch)
		}
		return nil, saveErr
	}
	return &row, nil
}

// ApplyReviewTransition moves each named task's review status, recomputes
// the aggregate and returns it. Rework stores the manager's note, bumps the
// task's own counter exactly once per distinct transition and resets its
// status so the eligibility gate re-engages; Approved clears the note and
// leaves the counter untouched.
func ApplyReviewTransition(db *gorm.DB, submissionID uint, taskIDs []uint, target Engine.ReviewStatus, note string) (Engine.SubmissionStatus, error) {
	if target != Engine.ReviewApproved && target != Engine.ReviewRework {
		return "", errors.New("review transition target must be Approved or Rework")
	}
	var rows []SubmissionTask
	if err := db.Where("submission_id = ? AND task_id IN ?", submissionID, taskIDs).Find(&rows).Error; err != nil {
		return "", err
	}
	for i := range rows {
		row := &rows[i]
		switch target {
		case Engine.ReviewRework:
			if row.ReviewStatus != Engine.ReviewRework {
				row.ReworkCount++
			}
			row.ReviewStatus = Engine.ReviewRework
			row.ReviewNote = note
			row.Status = Engine.TaskIncomplete
		case Engine.ReviewApproved:
			row.ReviewStatus = Engine.ReviewApproved
			row.ReviewNote = ""
		}
		if err := db.Save(row).Error; err != nil {
			return "", err
		}
	}
	return RecomputeSubmissionStatus(db, submissionID)
}

// RecomputeSubmissionStatus re-derives the aggregate from the current rows
// and persists it. Runs after every task-level transition; the stored
// status is never trusted stale.
func RecomputeSubmissionStatus(db *gorm.DB, submissionID uint) (Engine.SubmissionStatus, error) {
	var rows []SubmissionTask
	if err := db.Where("submission_id = ?", submissionID).Find(&rows).Error; err != nil {
		return "", err
	}
	reviews := make([]Engine.ReviewStatus, len(rows))
	for i, r := range rows {
		reviews[i] = r.ReviewStatus
	}
	status := Engine.AggregateStatus(reviews)
	if err := db.Model(&Submission{}).Where("id = ?", submissionID).Update("status", status).Error; err != nil {
		return "", err
	}
	return status, nil
}

// ResubmitReworkTasks hands fixed tasks back to review. Each task currently
// Rework moves to Pending only if it is now Complete and still satisfies
// its completion rules; the rest are left untouched, so partial
// resubmission is valid and expected.
func ResubmitReworkTasks(db *gorm.DB, submissionID uint, rules map[uint]Engine.CompletionRules) ([]uint, error) {
	var rows []SubmissionTask
	if err := db.Where("submission_id = ? AND review_status = ?", submissionID, Engine.ReviewRework).Find(&rows).Error; err != nil {
		return nil, err
	}
	var moved []uint
	for i := range rows {
		row := &rows[i]
		if row.Status != Engine.TaskComplete {
			continue
		}
		if !Engine.CanComplete(rules[row.TaskID], row.TaskState()) {
			continue
		}
		row.ReviewStatus = Engine.ReviewPending
		if err := db.Save(row).Error; err != nil {
			return nil, err
		}
		moved = append(moved, row.TaskID)
	}
	if len(moved) > 0 {
		if _, err := RecomputeSubmissionStatus(db, submissionID); err != nil {
			return nil, err
		}
	}
	return moved, nil
}

// SignOffSubmission stamps the submission with the gate-confirmed identity.
// Signoff does not approve anything; every task stays Pending for review.
// A second signoff for the same natural key overwrites the stamp rather
// than being rejected.
func SignOffSubmission(db *gorm.DB, submissionID uint, signedBy string, submittedBy uint) error {
	return db.Model(&Submission{}).Where("id = ?", submissionID).Updates(map[string]interface{}{
		"signed_by":    signedBy,
		"submitted_by": submittedBy,
	}).Error
}
