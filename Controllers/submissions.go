package Controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"ShiftCheck/Engine"
	"ShiftCheck/Models"
)

// SubmissionController owns the durable side of the workflow: PIN-gated
// task completion, tasklist sign-off and the manager-facing queries.
type SubmissionController struct {
	DB    *gorm.DB
	Store *Engine.Store
	Hub   *Engine.Hub
}

func NewSubmissionController(db *gorm.DB, store *Engine.Store, hub *Engine.Hub) *SubmissionController {
	return &SubmissionController{DB: db, Store: store, Hub: hub}
}

func (sc *SubmissionController) notifyChange(tenantID uint) {
	if sc.Hub != nil {
		sc.Hub.Notify(Engine.Topic("submissions", tenantID))
	}
}

type CompleteTaskRequest struct {
	TasklistID uint     `json:"tasklist_id" validate:"required"`
	LocationID uint     `json:"location_id" validate:"required"`
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
	TaskID     uint     `json:"task_id" validate:"required"`
	Pin        string   `json:"pin" validate:"required,numeric,min=4,max=8"`
	NA         *bool    `json:"na"`
	Value      *string  `json:"value"`
	Note       *string  `json:"note"`
	Photos     []string `json:"photos"`
}

// serializeValue maps the draft state onto the stored value string per
// input type: checkboxes store a fixed marker, numbers their numeric text,
// text tasks the raw note.
func serializeValue(inputType string, state *Engine.TaskState) string {
	if state.NA {
		return ""
	}
	switch inputType {
	case Engine.InputNumber:
		return strings.TrimSpace(state.Value)
	case Engine.InputText:
		return state.Note
	default:
		return "done"
	}
}

// CompleteTask is the single write path for marking a task complete. The
// eligibility gate runs before the PIN gate, and an ineligible or
// unauthenticated request leaves both draft and durable state untouched.
// Completion always re-enters review as Pending, also on rework fixes.
func (sc *SubmissionController) CompleteTask(c *fiber.Ctx) error {
	var req CompleteTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	tenantID := currentUser(c).TenantID
	var template Models.ChecklistTemplate
	if err := sc.DB.Where("id = ? AND tenant_id = ?", req.TasklistID, tenantID).First(&template).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tasklist not found"})
	}
	var def Models.TaskDefinition
	if err := sc.DB.Where("id = ? AND template_id = ?", req.TaskID, req.TasklistID).First(&def).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Task not found"})
	}

	// The request carries the final state; omitted fields fall back to the
	// session draft so a worker completing from the list view keeps edits
	// made earlier in the session.
	key := Engine.SessionKey{TasklistID: req.TasklistID, Date: req.Date}
	draft, _ := sc.Store.Get(key, req.TaskID)
	state := Engine.TaskState{NA: draft.NA, Value: draft.Value, Note: draft.Note, Photos: draft.Photos}
	if req.NA != nil {
		state.NA = *req.NA
	}
	if req.Value != nil {
		state.Value = *req.Value
	}
	if req.Note != nil {
		state.Note = *req.Note
	}
	if req.Photos != nil {
		state.Photos = req.Photos
	}
	if state.NA && !def.AllowNA {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Task cannot be marked N/A"})
	}
	if !Engine.CanComplete(def.CompletionRules(), &state) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Task does not meet its completion requirements"})
	}

	actor, err := Models.ValidatePin(sc.DB, tenantID, req.Pin)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to validate PIN"})
	}
	if actor == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Incorrect PIN"})
	}

	sub, err := Models.FindOrCreateSubmission(sc.DB, tenantID, req.TasklistID, req.LocationID, req.Date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to open submission"})
	}

	status := Engine.TaskComplete
	review := Engine.ReviewPending
	value := serializeValue(def.InputType, &state)
	row, err := Models.UpsertSubmissionTask(sc.DB, sub.ID, req.TaskID, Models.SubmissionTaskPatch{
		Status:       &status,
		ReviewStatus: &review,
		NA:           &state.NA,
		Value:        &value,
		Note:         &state.Note,
		Photos:       state.Photos,
		SubmittedBy:  &actor.Id,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to record completion"})
	}
	if _, err := Models.RecomputeSubmissionStatus(sc.DB, sub.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update submission status"})
	}

	sc.Store.Reconcile(key, []Engine.ServerTask{row.ServerState()})
	sc.notifyChange(tenantID)

	return c.JSON(fiber.Map{
		"submission_id": sub.ID,
		"task":          row,
		"completed_by":  fiber.Map{"id": actor.Id, "name": actor.Name},
	})
}

type SignOffRequest struct {
	TasklistID uint   `json:"tasklist_id" validate:"required"`
	LocationID uint   `json:"location_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Pin        string `json:"pin" validate:"required,numeric,min=4,max=8"`
}

// SignOff stamps a tasklist's submission once every task is either complete
// or N/A and still satisfies its rules. Sign-off never approves anything;
// the review queue is unchanged.
func (sc *SubmissionController) SignOff(c *fiber.Ctx) error {
	var req SignOffRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	tenantID := currentUser(c).TenantID
	var template Models.ChecklistTemplate
	if err := sc.DB.Preload("Tasks").Where("id = ? AND tenant_id = ?", req.TasklistID, tenantID).First(&template).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tasklist not found"})
	}

	var sub Models.Submission
	err := sc.DB.Preload("Tasks").
		Where("tasklist_id = ? AND location_id = ? AND date = ?", req.TasklistID, req.LocationID, req.Date).
		First(&sub).Error
	if notFound(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Nothing has been completed yet"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load submission"})
	}

	rowByTask := make(map[uint]*Models.SubmissionTask, len(sub.Tasks))
	for i := range sub.Tasks {
		rowByTask[sub.Tasks[i].TaskID] = &sub.Tasks[i]
	}
	for i := range template.Tasks {
		def := &template.Tasks[i]
		row := rowByTask[def.ID]
		if row == nil || (row.Status != Engine.TaskComplete && !row.NA) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "All tasks must be complete or N/A before signing off",
				"task_id": def.ID,
			})
		}
		if !Engine.CanComplete(def.CompletionRules(), row.TaskState()) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Task no longer meets its completion requirements",
				"task_id": def.ID,
			})
		}
	}

	actor, err := Models.ValidatePin(sc.DB, tenantID, req.Pin)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to validate PIN"})
	}
	if actor == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Incorrect PIN"})
	}

	if err := Models.SignOffSubmission(sc.DB, sub.ID, actor.Name, actor.Id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to sign off submission"})
	}
	sc.notifyChange(tenantID)

	return c.JSON(fiber.Map{
		"submission_id": sub.ID,
		"signed_by":     actor.Name,
		"status":        sub.Status,
	})
}

// GetSubmissions lists submissions for review dashboards. Date range,
// location, employee and status filter in the query; category, evidence and
// rework-count filters run over the preloaded rows.
func (sc *SubmissionController) GetSubmissions(c *fiber.Ctx) error {
	query := sc.DB.Preload("Tasks").Where("tenant_id = ?", currentUser(c).TenantID)
	if from := c.Query("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("date <= ?", to)
	}
	if locationID := c.Query("location_id"); locationID != "" {
		query = query.Where("location_id = ?", locationID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if employee := c.Query("employee_id"); employee != "" {
		query = query.Where("submitted_by = ?", employee)
	}

	var subs []Models.Submission
	if err := query.Order("date DESC").Find(&subs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to retrieve submissions"})
	}

	minRework := 0
	if v := c.Query("min_rework"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "min_rework must be a number"})
		}
		minRework = n
	}
	subs = filterSubmissionRows(sc.DB, subs, c.Query("category"), c.Query("has_photo") == "true", c.Query("has_note") == "true", minRework)
	return c.JSON(subs)
}

// filterSubmissionRows applies the row-level filters that do not map onto
// submission columns. A submission stays in when at least one of its task
// rows matches every requested condition.
func filterSubmissionRows(db *gorm.DB, subs []Models.Submission, category string, hasPhoto, hasNote bool, minRework int) []Models.Submission {
	if category == "" && !hasPhoto && !hasNote && minRework <= 0 {
		return subs
	}
	var categoryTaskIDs map[uint]bool
	if category != "" {
		categoryTaskIDs = taskIDsInCategory(db, subs, category)
	}
	out := subs[:0]
	for _, sub := range subs {
		matched := false
		for _, row := range sub.Tasks {
			if categoryTaskIDs != nil && !categoryTaskIDs[row.TaskID] {
				continue
			}
			if hasPhoto && len(row.Photos) == 0 {
				continue
			}
			if hasNote && strings.TrimSpace(row.Note) == "" {
				continue
			}
			if minRework > 0 && row.ReworkCount < minRework {
				continue
			}
			matched = true
			break
		}
		if matched {
			out = append(out, sub)
		}
	}
	return out
}

func taskIDsInCategory(db *gorm.DB, subs []Models.Submission, category string) map[uint]bool {
	ids := make(map[uint]bool)
	seen := make(map[uint]bool, len(subs))
	templateIDs := make([]uint, 0, len(subs))
	for _, sub := range subs {
		if !seen[sub.TasklistID] {
			seen[sub.TasklistID] = true
			templateIDs = append(templateIDs, sub.TasklistID)
		}
	}
	if len(templateIDs) == 0 {
		return ids
	}
	var defs []Models.TaskDefinition
	if err := db.Where("template_id IN ? AND category = ?", templateIDs, category).Find(&defs).Error; err != nil {
		return ids
	}
	for _, d := range defs {
		ids[d.ID] = true
	}
	return ids
}

func (sc *SubmissionController) GetSubmission(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid submission ID"})
	}
	var sub Models.Submission
	if err := sc.DB.Preload("Tasks").Where("id = ? AND tenant_id = ?", id, currentUser(c).TenantID).First(&sub).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Submission not found"})
	}
	return c.JSON(sub)
}
