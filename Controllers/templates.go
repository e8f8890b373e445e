package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"ShiftCheck/Models"
)

type LocationRequest struct {
	Name     string `json:"name" validate:"required"`
	Timezone string `json:"timezone" validate:"required"`
}

func CreateLocation(c *fiber.Ctx) error {
	var req LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Unknown timezone: " + req.Timezone})
	}

	location := Models.Location{
		TenantID: currentUser(c).TenantID,
		Name:     req.Name,
		Timezone: req.Timezone,
	}
	if err := Models.DB.Create(&location).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create location"})
	}
	return c.Status(fiber.StatusCreated).JSON(location)
}

func FetchLocations(c *fiber.Ctx) error {
	var locations []Models.Location
	if err := Models.DB.Where("tenant_id = ?", currentUser(c).TenantID).Find(&locations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to retrieve locations"})
	}
	return c.JSON(locations)
}

func UpdateLocation(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid location ID"})
	}
	var req LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Unknown timezone: " + req.Timezone})
	}

	var location Models.Location
	if err := Models.DB.Where("id = ? AND tenant_id = ?", id, currentUser(c).TenantID).First(&location).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Location not found"})
	}
	location.Name = req.Name
	location.Timezone = req.Timezone
	if err := Models.DB.Save(&location).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update location"})
	}
	return c.JSON(location)
}

type TimeBlockRequest struct {
	LocationID uint   `json:"location_id"`
	Name       string `json:"name" validate:"required"`
	StartTime  string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime    string `json:"end_time" validate:"omitempty,datetime=15:04"`
}

func CreateTimeBlock(c *fiber.Ctx) error {
	var req TimeBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	block := Models.TimeBlock{
		TenantID:   currentUser(c).TenantID,
		LocationID: req.LocationID,
		Name:       req.Name,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if err := Models.DB.Create(&block).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create time block"})
	}
	return c.Status(fiber.StatusCreated).JSON(block)
}

func FetchTimeBlocks(c *fiber.Ctx) error {
	query := Models.DB.Where("tenant_id = ?", currentUser(c).TenantID)
	if locationID := c.Query("location_id"); locationID != "" {
		query = query.Where("location_id = ?", locationID)
	}
	var blocks []Models.TimeBlock
	if err := query.Find(&blocks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to retrieve time blocks"})
	}
	return c.JSON(blocks)
}

type TaskDefinitionRequest struct {
	Title         string   `json:"title" validate:"required"`
	Category      string   `json:"category"`
	InputType     string   `json:"input_type" validate:"omitempty,oneof=checkbox number text"`
	MinValue      *float64 `json:"min_value"`
	MaxValue      *float64 `json:"max_value"`
	PhotoRequired bool     `json:"photo_required"`
	NoteRequired  bool     `json:"note_required"`
	AllowNA       bool     `json:"allow_na"`
	Priority      int      `json:"priority" validate:"omitempty,min=1,max=4"`
	SortOrder     int      `json:"sort_order"`
}

type TemplateRequest struct {
	LocationID       uint                    `json:"location_id" validate:"required"`
	Name             string                  `json:"name" validate:"required"`
	TimeBlockID      *uint                   `json:"time_block_id"`
	RequiresApproval *bool                   `json:"requires_approval"`
	Active           *bool                   `json:"active"`
	Recurrence       []int                   `json:"recurrence" validate:"dive,gte=0,lte=6"`
	Tasks            []TaskDefinitionRequest `json:"tasks" validate:"dive"`
}

func (r *TemplateRequest) taskDefinitions(templateID uint) []Models.TaskDefinition {
	defs := make([]Models.TaskDefinition, len(r.Tasks))
	for i, t := range r.Tasks {
		inputType := t.InputType
		if inputType == "" {
			inputType = "checkbox"
		}
		priority := t.Priority
		if priority == 0 {
			priority = 3
		}
		defs[i] = Models.TaskDefinition{
			TemplateID:    templateID,
			Title:         t.Title,
			Category:      t.Category,
			InputType:     inputType,
			MinValue:      t.MinValue,
			MaxValue:      t.MaxValue,
			PhotoRequired: t.PhotoRequired,
			NoteRequired:  t.NoteRequired,
			AllowNA:       t.AllowNA,
			Priority:      priority,
			SortOrder:     t.SortOrder,
		}
	}
	return defs
}

func CreateTemplate(c *fiber.Ctx) error {
	var req TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var location Models.Location
	if err := Models.DB.Where("id = ? AND tenant_id = ?", req.LocationID, currentUser(c).TenantID).First(&location).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Location not found"})
	}

	template := Models.ChecklistTemplate{
		TenantID:         currentUser(c).TenantID,
		LocationID:       req.LocationID,
		Name:             req.Name,
		TimeBlockID:      req.TimeBlockID,
		RequiresApproval: req.RequiresApproval == nil || *req.RequiresApproval,
		SignoffMethod:    "pin",
		Active:           req.Active == nil || *req.Active,
		Recurrence:       req.Recurrence,
		Tasks:            req.taskDefinitions(0),
	}
	if err := Models.DB.Create(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create template"})
	}
	return c.Status(fiber.StatusCreated).JSON(template)
}

func FetchTemplates(c *fiber.Ctx) error {
	query := Models.DB.Preload("Tasks").Where("tenant_id = ?", currentUser(c).TenantID)
	if locationID := c.Query("location_id"); locationID != "" {
		query = query.Where("location_id = ?", locationID)
	}
	var templates []Models.ChecklistTemplate
	if err := query.Find(&templates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to retrieve templates"})
	}
	return c.JSON(templates)
}

func GetTemplate(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid template ID"})
	}
	var template Models.ChecklistTemplate
	if err := Models.DB.Preload("Tasks").Where("id = ? AND tenant_id = ?", id, currentUser(c).TenantID).First(&template).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Template not found"})
	}
	return c.JSON(template)
}

// UpdateTemplate replaces the template header and its task definitions.
// Existing submissions keep their frozen task snapshots; edits only affect
// tasklists resolved after the change.
func UpdateTemplate(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid template ID"})
	}
	var req TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var template Models.ChecklistTemplate
	if err := Models.DB.Where("id = ? AND tenant_id = ?", id, currentUser(c).TenantID).First(&template).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Template not found"})
	}

	template.LocationID = req.LocationID
	template.Name = req.Name
	template.TimeBlockID = req.TimeBlockID
	if req.RequiresApproval != nil {
		template.RequiresApproval = *req.RequiresApproval
	}
	if req.Active != nil {
		template.Active = *req.Active
	}
	template.Recurrence = req.Recurrence

	if err := Models.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&template).Error; err != nil {
			return err
		}
		if err := tx.Where("template_id = ?", template.ID).Delete(&Models.TaskDefinition{}).Error; err != nil {
			return err
		}
		defs := req.taskDefinitions(template.ID)
		if len(defs) == 0 {
			return nil
		}
		return tx.Create(&defs).Error
	}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update template"})
	}

	return GetTemplate(c)
}

func DeleteTemplate(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid template ID"})
	}
	var template Models.ChecklistTemplate
	if err := Models.DB.Where("id = ? AND tenant_id = ?", id, currentUser(c).TenantID).First(&template).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Template not found"})
	}
	// Deactivate so history keeps resolving against the frozen definition.
	template.Active = false
	if err := Models.DB.Save(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete template"})
	}
	return c.JSON(fiber.Map{"message": "Template deactivated"})
}
