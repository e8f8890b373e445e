package Controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"ShiftCheck/Engine"
	"ShiftCheck/Models"
)

// TasklistController serves the worker-facing view: today's resolved
// tasklists and the per-session working state layered on top of the
// durable submission rows.
type TasklistController struct {
	DB    *gorm.DB
	Store *Engine.Store
}

func NewTasklistController(db *gorm.DB, store *Engine.Store) *TasklistController {
	return &TasklistController{DB: db, Store: store}
}

// TasklistTaskView is one task as the worker screen needs it: the frozen
// definition, the current draft and whether completing is allowed right now.
type TasklistTaskView struct {
	Engine.TaskSnapshot
	Draft       Engine.DraftTask `json:"draft"`
	CanComplete bool             `json:"can_complete"`
}

type TasklistView struct {
	TemplateID uint               `json:"template_id"`
	Name       string             `json:"name"`
	TimeBlock  string             `json:"time_block"`
	StartKey   string             `json:"start_key"`
	Date       string             `json:"date"`
	Submission *Models.Submission `json:"submission,omitempty"`
	Tasks      []TasklistTaskView `json:"tasks"`
}

// resolveDay loads a location's templates and blocks and materializes the
// day's tasklists. The date defaults to "today" in the location's timezone.
func (tc *TasklistController) resolveDay(tenantID, locationID uint, dateISO string) (string, []Engine.Tasklist, error) {
	var location Models.Location
	if err := tc.DB.Where("id = ? AND tenant_id = ?", locationID, tenantID).First(&location).Error; err != nil {
		return "", nil, err
	}
	if dateISO == "" {
		var err error
		dateISO, err = Engine.DateInZone(time.Now(), location.Timezone)
		if err != nil {
			return "", nil, err
		}
	}

	var templates []Models.ChecklistTemplate
	if err := tc.DB.Preload("Tasks").Where("tenant_id = ? AND location_id = ?", tenantID, locationID).Find(&templates).Error; err != nil {
		return "", nil, err
	}
	var blocks []Models.TimeBlock
	if err := tc.DB.Where("tenant_id = ?", tenantID).Find(&blocks).Error; err != nil {
		return "", nil, err
	}

	specs := make([]Engine.TemplateSpec, len(templates))
	for i := range templates {
		specs[i] = templates[i].Spec()
	}
	lists, err := Engine.ResolveTasklistsForDay(specs, Models.TimeBlockSpecs(blocks), locationID, dateISO, location.Timezone)
	if err != nil {
		return "", nil, err
	}
	return dateISO, lists, nil
}

// reconcileFromSubmission folds the durable rows (if any) into the session
// drafts, so a worker opening the list mid-day sees completed work instead
// of a blank slate.
func (tc *TasklistController) reconcileFromSubmission(key Engine.SessionKey, locationID uint) (*Models.Submission, error) {
	var sub Models.Submission
	err := tc.DB.Preload("Tasks").
		Where("tasklist_id = ? AND location_id = ? AND date = ?", key.TasklistID, locationID, key.Date).
		First(&sub).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rows := make([]Engine.ServerTask, len(sub.Tasks))
	for i := range sub.Tasks {
		rows[i] = sub.Tasks[i].ServerState()
	}
	tc.Store.Reconcile(key, rows)
	return &sub, nil
}

func taskViews(tasks []Engine.TaskSnapshot, drafts []Engine.DraftTask) []TasklistTaskView {
	draftByID := make(map[uint]Engine.DraftTask, len(drafts))
	for _, d := range drafts {
		draftByID[d.TaskID] = d
	}
	views := make([]TasklistTaskView, len(tasks))
	for i, t := range tasks {
		draft := draftByID[t.ID]
		views[i] = TasklistTaskView{
			TaskSnapshot: t,
			Draft:        draft,
			CanComplete:  Engine.CanComplete(t.Rules(), draft.State()),
		}
	}
	return views
}

// GetTodayTasklists resolves a location's tasklists for the requested day
// (default: today in the location's timezone), seeds drafts for them and
// reconciles each against its submission.
func (tc *TasklistController) GetTodayTasklists(c *fiber.Ctx) error {
	locationID, err := c.ParamsInt("location_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid location ID"})
	}
	dateISO := c.Query("date")
	if dateISO != "" {
		if _, err := time.Parse("2006-01-02", dateISO); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Date must be YYYY-MM-DD"})
		}
	}

	date, lists, err := tc.resolveDay(currentUser(c).TenantID, uint(locationID), dateISO)
	if err != nil {
		if notFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Location not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to resolve tasklists"})
	}

	views := make([]TasklistView, len(lists))
	for i, list := range lists {
		key := Engine.SessionKey{TasklistID: list.TemplateID, Date: date}
		tc.Store.Seed(key, list.Tasks)
		sub, err := tc.reconcileFromSubmission(key, uint(locationID))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load submission state"})
		}
		views[i] = TasklistView{
			TemplateID: list.TemplateID,
			Name:       list.Name,
			TimeBlock:  list.TimeBlock,
			StartKey:   list.StartKey,
			Date:       date,
			Submission: sub,
			Tasks:      taskViews(list.Tasks, tc.Store.Snapshot(key)),
		}
	}
	return c.JSON(views)
}

// GetWorkingState returns the session drafts for one tasklist and day.
func (tc *TasklistController) GetWorkingState(c *fiber.Ctx) error {
	tasklistID, err := c.ParamsInt("tasklist_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid tasklist ID"})
	}
	dateISO := c.Query("date")
	if _, err := time.Parse("2006-01-02", dateISO); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Date must be YYYY-MM-DD"})
	}

	var template Models.ChecklistTemplate
	if err := tc.DB.Preload("Tasks").Where("id = ? AND tenant_id = ?", tasklistID, currentUser(c).TenantID).First(&template).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tasklist not found"})
	}

	key := Engine.SessionKey{TasklistID: uint(tasklistID), Date: dateISO}
	spec := template.Spec()
	tc.Store.Seed(key, spec.Tasks)
	if _, err := tc.reconcileFromSubmission(key, template.LocationID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load submission state"})
	}
	return c.JSON(fiber.Map{
		"tasklist_id": tasklistID,
		"date":        dateISO,
		"tasks":       taskViews(spec.Tasks, tc.Store.Snapshot(key)),
	})
}

type EditDraftRequest struct {
	TasklistID uint     `json:"tasklist_id" validate:"required"`
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
	TaskID     uint     `json:"task_id" validate:"required"`
	NA         *bool    `json:"na"`
	Value      *string  `json:"value"`
	Note       *string  `json:"note"`
	Photos     []string `json:"photos"`
}

// EditDraft applies an in-progress edit to the session draft only. Nothing
// durable changes until the task is completed through the PIN gate.
func (tc *TasklistController) EditDraft(c *fiber.Ctx) error {
	var req EditDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var def Models.TaskDefinition
	if err := tc.DB.Where("id = ? AND template_id = ?", req.TaskID, req.TasklistID).First(&def).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Task not found"})
	}
	if req.NA != nil && *req.NA && !def.AllowNA {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Task cannot be marked N/A"})
	}

	key := Engine.SessionKey{TasklistID: req.TasklistID, Date: req.Date}
	if current, ok := tc.Store.Get(key, req.TaskID); ok {
		if !Engine.AllowDraftEdit(current.Status, req.NA != nil, req.Value != nil) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Completed tasks accept only note and photo edits"})
		}
	}
	ok := tc.Store.EditDraft(key, req.TaskID, func(d *Engine.DraftTask) {
		if req.NA != nil {
			d.NA = *req.NA
		}
		if req.Value != nil {
			d.Value = *req.Value
		}
		if req.Note != nil {
			d.Note = *req.Note
		}
		if req.Photos != nil {
			d.Photos = req.Photos
		}
	})
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No working session for this tasklist"})
	}

	draft, _ := tc.Store.Get(key, req.TaskID)
	return c.JSON(fiber.Map{
		"draft":        draft,
		"can_complete": Engine.CanComplete(def.CompletionRules(), draft.State()),
	})
}
