package Models

import (
	"encoding/json"
	"sort"

	"gorm.io/gorm"

	"ShiftCheck/Engine"
)

// ChecklistTemplate is the recurring definition of a tasklist. The weekday
// set is kept as a JSON column beside the working slice, same pattern as
// the photos column on SubmissionTask.
type ChecklistTemplate struct {
	gorm.Model
	TenantID         uint   `json:"tenant_id" gorm:"index;not null"`
	LocationID       uint   `json:"location_id" gorm:"index;not null"`
	Name             string `json:"name"`
	TimeBlockID      *uint  `json:"time_block_id"`
	RequiresApproval bool   `json:"requires_approval" gorm:"default:true"`
	SignoffMethod    string `json:"signoff_method" gorm:"type:varchar(10);default:'pin'"`
	Active           bool   `json:"active" gorm:"default:true"`

	// Weekday indices, Sunday=0.
	Recurrence     []int           `json:"recurrence" gorm:"-"`
	JSONRecurrence json.RawMessage `json:"-" gorm:"column:recurrence"`

	Tasks []TaskDefinition `json:"tasks" gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
}

func (t *ChecklistTemplate) BeforeSave(tx *gorm.DB) error {
	data, err := json.Marshal(t.Recurrence)
	if err != nil {
		return err
	}
	t.JSONRecurrence = data
	return nil
}

func (t *ChecklistTemplate) AfterFind(tx *gorm.DB) error {
	if len(t.JSONRecurrence) == 0 {
		t.Recurrence = nil
		return nil
	}
	return json.Unmarshal(t.JSONRecurrence, &t.Recurrence)
}

// Spec converts the template for the recurrence resolver. Tasks are ordered
// by sort order so resolved tasklists come out deterministic.
func (t *ChecklistTemplate) Spec() Engine.TemplateSpec {
	tasks := append([]TaskDefinition(nil), t.Tasks...)
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].SortOrder < tasks[j].SortOrder })
	snapshots := make([]Engine.TaskSnapshot, len(tasks))
	for i, d := range tasks {
		snapshots[i] = d.Snapshot()
	}
	return Engine.TemplateSpec{
		ID:          t.ID,
		LocationID:  t.LocationID,
		Name:        t.Name,
		TimeBlockID: t.TimeBlockID,
		Weekdays:    t.Recurrence,
		Active:      t.Active,
		Tasks:       snapshots,
	}
}

// TaskDefinition is one task within a template. Immutable during a work
// session; edited only through template administration.
type TaskDefinition struct {
	gorm.Model
	TemplateID    uint     `json:"template_id" gorm:"index;not null"`
	Title         string   `json:"title" gorm:"not null"`
	Category      string   `json:"category"`
	InputType     string   `json:"input_type" gorm:"type:varchar(10);default:'checkbox'"`
	MinValue      *float64 `json:"min_value"`
	MaxValue      *float64 `json:"max_value"`
	PhotoRequired bool     `json:"photo_required"`
	NoteRequired  bool     `json:"note_required"`
	AllowNA       bool     `json:"allow_na"`
	Priority      int      `json:"priority" gorm:"default:3"` // 1=Critical .. 4=Low
	SortOrder     int      `json:"sort_order"`
}

// CompletionRules maps the definition onto the engine's rule union.
func (d *TaskDefinition) CompletionRules() Engine.CompletionRules {
	return Engine.RulesFor(d.InputType, d.MinValue, d.MaxValue, d.PhotoRequired, d.NoteRequired)
}

// Snapshot freezes the definition for a resolved tasklist instance.
func (d *TaskDefinition) Snapshot() Engine.TaskSnapshot {
	return Engine.TaskSnapshot{
		ID:            d.ID,
		Title:         d.Title,
		Category:      d.Category,
		InputType:     d.InputType,
		Min:           d.MinValue,
		Max:           d.MaxValue,
		PhotoRequired: d.PhotoRequired,
		NoteRequired:  d.NoteRequired,
		AllowNA:       d.AllowNA,
		Priority:      d.Priority,
	}
}

// TimeBlockSpecs converts blocks for the resolver.
func TimeBlockSpecs(blocks []TimeBlock) []Engine.TimeBlockSpec {
	specs := make([]Engine.TimeBlockSpec, len(blocks))
	for i, b := range blocks {
		specs[i] = Engine.TimeBlockSpec{ID: b.ID, Name: b.Name, Start: b.StartTime}
	}
	return specs
}
