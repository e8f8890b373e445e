package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"ShiftCheck/Engine"
	"ShiftCheck/Models"
)

// ReviewController is the manager side of the loop: approving and bouncing
// task rows, and handing fixed rework back to review.
type ReviewController struct {
	DB  *gorm.DB
	Hub *Engine.Hub
}

func NewReviewController(db *gorm.DB, hub *Engine.Hub) *ReviewController {
	return &ReviewController{DB: db, Hub: hub}
}

func (rc *ReviewController) loadSubmission(c *fiber.Ctx, id uint) (*Models.Submission, error) {
	var sub Models.Submission
	err := rc.DB.Where("id = ? AND tenant_id = ?", id, currentUser(c).TenantID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

type BatchReviewRequest struct {
	SubmissionID uint   `json:"submission_id" validate:"required"`
	TaskIDs      []uint `json:"task_ids" validate:"required,min=1"`
	Action       string `json:"action" validate:"required,oneof=approve rework"`
	Note         string `json:"note"`
}

// BatchReview applies one review decision to a set of task rows. Rework
// requires a note telling the worker what to fix; approval clears any
// previous note.
func (rc *ReviewController) BatchReview(c *fiber.Ctx) error {
	var req BatchReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if req.Action == "rework" && req.Note == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Rework requires a note"})
	}

	sub, err := rc.loadSubmission(c, req.SubmissionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Submission not found"})
	}

	target := Engine.ReviewApproved
	if req.Action == "rework" {
		target = Engine.ReviewRework
	}
	status, err := Models.ApplyReviewTransition(rc.DB, sub.ID, req.TaskIDs, target, req.Note)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to apply review"})
	}
	if rc.Hub != nil {
		rc.Hub.Notify(Engine.Topic("submissions", currentUser(c).TenantID))
	}
	return c.JSON(fiber.Map{"submission_id": sub.ID, "status": status})
}

type ResubmitRequest struct {
	SubmissionID uint `json:"submission_id" validate:"required"`
}

// Resubmit hands a submission's fixed rework tasks back to review. Tasks
// still ineligible are skipped, not rejected: resubmitting a partial fix is
// a normal workflow state.
func (rc *ReviewController) Resubmit(c *fiber.Ctx) error {
	var req ResubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	sub, err := rc.loadSubmission(c, req.SubmissionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Submission not found"})
	}

	var defs []Models.TaskDefinition
	if err := rc.DB.Where("template_id = ?", sub.TasklistID).Find(&defs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load task definitions"})
	}
	rules := make(map[uint]Engine.CompletionRules, len(defs))
	for i := range defs {
		rules[defs[i].ID] = defs[i].CompletionRules()
	}

	moved, err := Models.ResubmitReworkTasks(rc.DB, sub.ID, rules)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to resubmit"})
	}
	if len(moved) > 0 && rc.Hub != nil {
		rc.Hub.Notify(Engine.Topic("submissions", currentUser(c).TenantID))
	}
	return c.JSON(fiber.Map{"submission_id": sub.ID, "resubmitted": moved})
}

// GetReworkQueue lists submissions with at least one task awaiting rework,
// newest day first.
func (rc *ReviewController) GetReworkQueue(c *fiber.Ctx) error {
	query := rc.DB.Preload("Tasks").
		Where("tenant_id = ? AND status = ?", currentUser(c).TenantID, Engine.SubmissionRework)
	if locationID := c.Query("location_id"); locationID != "" {
		query = query.Where("location_id = ?", locationID)
	}
	var subs []Models.Submission
	if err := query.Order("date DESC").Find(&subs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to retrieve rework queue"})
	}
	return c.JSON(subs)
}
