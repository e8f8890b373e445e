package Models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ShiftCheck/Engine"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func mustReview(t *testing.T, db *gorm.DB, submissionID uint, taskIDs []uint, target Engine.ReviewStatus, note string) Engine.SubmissionStatus {
	t.Helper()
	status, err := ApplyReviewTransition(db, submissionID, taskIDs, target, note)
	require.NoError(t, err)
	return status
}

func statusPtr(s Engine.TaskStatus) *Engine.TaskStatus { return &s }
func strPtr(s string) *string                          { return &s }
func boolPtr(b bool) *bool                             { return &b }
func uintPtr(v uint) *uint                             { return &v }

func TestFindOrCreateSubmissionIsIdempotent(t *testing.T) {
	db := testDB(t)

	first, err := FindOrCreateSubmission(db, 1, 10, 20, "2026-08-24")
	require.NoError(t, err)
	second, err := FindOrCreateSubmission(db, 1, 10, 20, "2026-08-24")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, Engine.SubmissionPending, first.Status)

	var count int64
	db.Model(&Submission{}).Where("tasklist_id = ? AND location_id = ? AND date = ?", 10, 20, "2026-08-24").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSubmissionNaturalKeyIsUnique(t *testing.T) {
	db := testDB(t)

	_, err := FindOrCreateSubmission(db, 1, 10, 20, "2026-08-24")
	require.NoError(t, err)

	dup := Submission{TenantID: 1, TasklistID: 10, LocationID: 20, Date: "2026-08-24"}
	err = db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	// A different date is a different natural key.
	other, err := FindOrCreateSubmission(db, 1, 10, 20, "2026-08-25")
	require.NoError(t, err)
	assert.NotZero(t, other.ID)
}

func TestUpsertSubmissionTaskMergesPatches(t *testing.T) {
	db := testDB(t)
	sub, err := FindOrCreateSubmission(db, 1, 10, 20, "2026-08-24")
	require.NoError(t, err)

	row, err := UpsertSubmissionTask(db, sub.ID, 100, SubmissionTaskPatch{
		Status:      statusPtr(Engine.TaskComplete),
		Value:       strPtr("36.5"),
		Photos:      []string{"/Evidence/a.jpg"},
		SubmittedBy: uintPtr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, Engine.TaskComplete, row.Status)
	assert.Equal(t, Engine.ReviewPending, row.ReviewStatus)

	// A later patch that omits fields leaves them untouched.
	row, err = UpsertSubmissionTask(db, sub.ID, 100, SubmissionTaskPatch{
		Note: strPtr("sensor recalibrated"),
	})
	require.NoError(t, err)
	assert.Equal(t, "36.5", row.Value)
	assert.Equal(t, []string{"/Evidence/a.jpg"}, row.Photos)
	assert.Equal(t, "sensor recalibrated", row.Note)
	assert.EqualValues(t, 7, row.SubmittedBy)

	// Appending a photo is read-merge-write; the patched list replaces.
	row, err = UpsertSubmissionTask(db, sub.ID, 100, SubmissionTaskPatch{
		Photos: append(row.Photos, "/Evidence/b.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/Evidence/a.jpg", "/Evidence/b.jpg"}, row.Photos)

	var count int64
	db.Model(&SubmissionTask{}).Where("submission_id = ?", sub.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestUpsertSubmissionTaskPhotosSurviveReload(t *testing.T) {
	db := testDB(t)
	sub, err := FindOrCreateSubmission(db, 1, 10, 20, "2026-08-24")
	require.NoError(t, err)

	_, err = UpsertSubmissionTask(db, sub.ID, 100, SubmissionTaskPatch{Photos: []string{"/Evidence/a.jpg"}})
	require.NoError(t, err)

	var reloaded SubmissionTask
	require.NoError(t, db.Where("submission_id = ? AND task_id = ?", sub.ID, 100).First(&reloaded).Error)
	assert.Equal(t, []string{"/Evidence/a.jpg"}, reloaded.Photos)
}

func TestReworkTransitionCountsExactlyOnce(t *testing.T) {
	db := testDB(t)
	sub, err := FindOrCreateSubmission(db, 1, 10, 20, "2026-08-24")
	require.NoError(t, err)
	_, err = UpsertSubmissionTask(db, sub.ID, 100, SubmissionTaskPatch{Status: statusPtr(Engine.TaskComplete)})
	require.NoError(t, err)

	mustReview(t, db, sub.ID, []uint{100}, Engine.ReviewRework, "missing photo")

	var row SubmissionTask
	require.NoError(t, db.Where("submission_id = ? AND task_id = ?", sub.ID, 100).First(&row).Error)
	assert.Equal(t, Engine.ReviewRework, row.ReviewStatus)
	assert.Equal(t, "missing photo", row.ReviewNote)
	assert.Equal(t, 1, row.ReworkCount)
	assert.Equal(t, Engine.TaskIncomplete, row.Status) // eligibility gate re-engages

	// Sending an already-Rework task to Rework again is not a distinct
	// transition and must not double-count.
	mustReview(t, db, sub.ID, []uint{100}, Engine.ReviewRework, "still missing")
	require.NoError(t, db.Where("submission_id = ? AND task_id = ?", sub.ID, 100).First(&row).Error)
	assert.Equal(t, 1, row.ReworkCount)

	// Approval clears the note but never decrements the counter.
	mustReview(t, db, sub.ID, []uint{100}, Engine.ReviewApproved, "")
	require.NoError(t, db.Where("submission_id = ? AND task_id = ?", sub.ID, 100).First(&row).Error)
	assert.Equal(t, Engine.ReviewApproved, row.ReviewStatus)
	assert.Empty(t, row.ReviewNote)
	assert.Equal(t, 1, row.ReworkCount)
}

func TestAggregateStatusRecomputedAfterTransitions(t *testing.T) {
	db := testDB(t)
	sub, err := FindOrCreateSubmission(db, 1, 10, 20, "2026-08-24")
	require.NoError(t, err)

	for taskID := uint(100); taskID < 103; taskID++ {
		_, err = UpsertSubmissionTask(db, sub.ID, taskID, SubmissionTaskPatch{Status: statusPtr(Engine.TaskComplete)})
		require.NoError(t, err)
	}

	status, err := RecomputeSubmissionStatus(db, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, Engine.SubmissionPending, status)

	// The transition reports the aggregate it just persisted.
	assert.Equal(t, Engine.SubmissionPending, mustReview(t, db, sub.ID, []uint{100, 101}, Engine.ReviewApproved, ""))
	var reloaded Submission
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, Engine.SubmissionPending, reloaded.Status)

	assert.Equal(t, Engine.SubmissionApproved, mustReview(t, db, sub.ID, []uint{102}, Engine.ReviewApproved, ""))
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, Engine.SubmissionApproved, reloaded.Status)

	assert.Equal(t, Engine.SubmissionRework, mustReview(t, db, sub.ID, []uint{101}, Engine.ReviewRework, "redo"))
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, Engine.SubmissionRework, reloaded.Status)
}

// The manager sends 2 of 5 tasks to rework; the worker fixes only one and
// resubmits. Only the fixed task returns to Pending, the other stays
// Rework, and the aggregate remains Rework throughout.
func TestPartialResubmissionScenario(t *testing.T) {
	db := testDB(t)
	sub, err := FindOrCreateSubmission(db, 1, 10, 20, "2026-08-24")
	require.NoError(t, err)

	rules := make(map[uint]Engine.CompletionRules)
	for taskID := uint(100); taskID < 105; taskID++ {
		rules[taskID] = Engine.RulesFor(Engine.InputCheckbox, nil, nil, taskID == 100 || taskID == 101, false)
		patch := SubmissionTaskPatch{Status: statusPtr(Engine.TaskComplete)}
		if taskID == 100 || taskID == 101 {
			patch.Photos = []string{"/Evidence/orig.jpg"}
		}
		_, err = UpsertSubmissionTask(db, sub.ID, taskID, patch)
		require.NoError(t, err)
	}

	mustReview(t, db, sub.ID, []uint{102, 103, 104}, Engine.ReviewApproved, "")
	mustReview(t, db, sub.ID, []uint{100, 101}, Engine.ReviewRework, "missing photo")

	var reloaded Submission
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, Engine.SubmissionRework, reloaded.Status)

	// The other three tasks keep their review outcomes independently.
	var approved int64
	db.Model(&SubmissionTask{}).Where("submission_id = ? AND review_status = ?", sub.ID, Engine.ReviewApproved).Count(&approved)
	assert.EqualValues(t, 3, approved)

	// Worker fixes only task 100: new photo, re-marked complete.
	_, err = UpsertSubmissionTask(db, sub.ID, 100, SubmissionTaskPatch{
		Status: statusPtr(Engine.TaskComplete),
		Photos: []string{"/Evidence/retake.jpg"},
	})
	require.NoError(t, err)

	moved, err := ResubmitReworkTasks(db, sub.ID, rules)
	require.NoError(t, err)
	assert.Equal(t, []uint{100}, moved)

	var fixed, stale SubmissionTask
	require.NoError(t, db.Where("submission_id = ? AND task_id = ?", sub.ID, 100).First(&fixed).Error)
	require.NoError(t, db.Where("submission_id = ? AND task_id = ?", sub.ID, 101).First(&stale).Error)
	assert.Equal(t, Engine.ReviewPending, fixed.ReviewStatus)
	assert.Equal(t, Engine.ReviewRework, stale.ReviewStatus)

	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, Engine.SubmissionRework, reloaded.Status)
}

func TestResubmitSkipsIneligibleTasks(t *testing.T) {
	db := testDB(t)
	sub, err := FindOrCreateSubmission(db, 1, 10, 20, "2026-08-24")
	require.NoError(t, err)

	rules := map[uint]Engine.CompletionRules{
		100: Engine.RulesFor(Engine.InputNumber, fptrM(34), fptrM(40), false, false),
	}
	_, err = UpsertSubmissionTask(db, sub.ID, 100, SubmissionTaskPatch{
		Status: statusPtr(Engine.TaskComplete),
		Value:  strPtr("55"), // out of range: complete but not eligible
	})
	require.NoError(t, err)
	mustReview(t, db, sub.ID, []uint{100}, Engine.ReviewRework, "reading out of range")

	_, err = UpsertSubmissionTask(db, sub.ID, 100, SubmissionTaskPatch{Status: statusPtr(Engine.TaskComplete)})
	require.NoError(t, err)

	moved, err := ResubmitReworkTasks(db, sub.ID, rules)
	require.NoError(t, err)
	assert.Empty(t, moved)
}

func fptrM(v float64) *float64 { return &v }

func TestSignOffStampsIdentity(t *testing.T) {
	db := testDB(t)
	sub, err := FindOrCreateSubmission(db, 1, 10, 20, "2026-08-24")
	require.NoError(t, err)
	_, err = UpsertSubmissionTask(db, sub.ID, 100, SubmissionTaskPatch{Status: statusPtr(Engine.TaskComplete)})
	require.NoError(t, err)

	require.NoError(t, SignOffSubmission(db, sub.ID, "Dana R.", 7))

	var reloaded Submission
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, "Dana R.", reloaded.SignedBy)
	assert.EqualValues(t, 7, reloaded.SubmittedBy)

	// Signoff hands the batch to review; nothing gets approved by it.
	var row SubmissionTask
	require.NoError(t, db.Where("submission_id = ?", sub.ID).First(&row).Error)
	assert.Equal(t, Engine.ReviewPending, row.ReviewStatus)
}

func TestValidatePin(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&User{TenantID: 1, Name: "Dana R.", Pin: "4321", Permission: PermissionWorker, IsActive: true}).Error)
	require.NoError(t, db.Create(&User{TenantID: 1, Name: "Former Employee", Pin: "8888", Permission: PermissionWorker, IsActive: false}).Error)
	require.NoError(t, db.Create(&User{TenantID: 2, Name: "Other Tenant", Pin: "4321", Permission: PermissionWorker, IsActive: true}).Error)

	actor, err := ValidatePin(db, 1, "4321")
	require.NoError(t, err)
	require.NotNil(t, actor)
	assert.Equal(t, "Dana R.", actor.Name)

	// Wrong PIN is a normal outcome, not an error.
	actor, err = ValidatePin(db, 1, "0000")
	require.NoError(t, err)
	assert.Nil(t, actor)

	actor, err = ValidatePin(db, 1, "8888")
	require.NoError(t, err)
	assert.Nil(t, actor)

	actor, err = ValidatePin(db, 1, "")
	require.NoError(t, err)
	assert.Nil(t, actor)
}

func TestTemplateRecurrenceRoundTrip(t *testing.T) {
	db := testDB(t)
	tpl := ChecklistTemplate{
		TenantID:   1,
		LocationID: 20,
		Name:       "Opening Duties",
		Active:     true,
		Recurrence: []int{1, 3, 5},
		Tasks: []TaskDefinition{
			{Title: "Walk-in temp", InputType: Engine.InputNumber, SortOrder: 2},
			{Title: "Unlock doors", InputType: Engine.InputCheckbox, SortOrder: 1},
		},
	}
	require.NoError(t, db.Create(&tpl).Error)

	var reloaded ChecklistTemplate
	require.NoError(t, db.Preload("Tasks").First(&reloaded, tpl.ID).Error)
	assert.Equal(t, []int{1, 3, 5}, reloaded.Recurrence)

	spec := reloaded.Spec()
	require.Len(t, spec.Tasks, 2)
	assert.Equal(t, "Unlock doors", spec.Tasks[0].Title) // sort order respected
	assert.Equal(t, "Walk-in temp", spec.Tasks[1].Title)
}
