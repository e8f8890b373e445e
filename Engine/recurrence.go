package Engine

import (
	"fmt"
	"sort"
	"time"
)

// TaskSnapshot is a frozen copy of a task definition taken at resolution
// time. Template edits after resolution do not alter an already-resolved
// instance until it is re-resolved.
type TaskSnapshot struct {
	ID            uint     `json:"id"`
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	InputType     string   `json:"input_type"`
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
	PhotoRequired bool     `json:"photo_required"`
	NoteRequired  bool     `json:"note_required"`
	AllowNA       bool     `json:"allow_na"`
	Priority      int      `json:"priority"`
}

// Rules maps the snapshot onto the completion rule union.
func (t TaskSnapshot) Rules() CompletionRules {
	return RulesFor(t.InputType, t.Min, t.Max, t.PhotoRequired, t.NoteRequired)
}

// TemplateSpec is the resolver-facing view of a checklist template.
type TemplateSpec struct {
	ID          uint
	LocationID  uint
	Name        string
	TimeBlockID *uint
	Weekdays    []int // 0=Sunday .. 6=Saturday
	Active      bool
	Tasks       []TaskSnapshot
}

// TimeBlockSpec carries the label and start time used to order tasklists
// within a day. It is not a scheduling constraint.
type TimeBlockSpec struct {
	ID    uint
	Name  string
	Start string // "HH:MM" local time
}

// Tasklist is one day's materialized checklist instance.
type Tasklist struct {
	TemplateID uint           `json:"template_id"`
	Name       string         `json:"name"`
	TimeBlock  string         `json:"time_block"`
	StartKey   string         `json:"start_key"`
	Tasks      []TaskSnapshot `json:"tasks"`
}

// A template whose time block was deleted sorts first instead of erroring.
const fallbackStartKey = "00:00"

// WeekdayInZone returns the weekday index (Sunday=0) of an ISO date as
// observed in the given IANA timezone. A location's "today" must never
// depend on the caller's clock.
func WeekdayInZone(dateISO, timezone string) (int, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return 0, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	t, err := time.ParseInLocation("2006-01-02", dateISO, loc)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", dateISO, err)
	}
	return int(t.Weekday()), nil
}

// DateInZone formats an instant as the ISO calendar date observed in the
// given timezone.
func DateInZone(t time.Time, timezone string) (string, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return "", fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return t.In(loc).Format("2006-01-02"), nil
}

// ResolveTasklistsForDay selects the templates active for a location on a
// calendar date and materializes them into ordered tasklists. Results are
// sorted by time-block start time ascending, ties broken by template name,
// so resolving the same inputs twice yields identical order.
func ResolveTasklistsForDay(templates []TemplateSpec, blocks []TimeBlockSpec, locationID uint, dateISO, timezone string) ([]Tasklist, error) {
	weekday, err := WeekdayInZone(dateISO, timezone)
	if err != nil {
		return nil, err
	}

	blockByID := make(map[uint]TimeBlockSpec, len(blocks))
	for _, b := range blocks {
		blockByID[b.ID] = b
	}

	var lists []Tasklist
	for _, tpl := range templates {
		if !tpl.Active || tpl.LocationID != locationID {
			continue
		}
		if !containsWeekday(tpl.Weekdays, weekday) {
			continue
		}
		list := Tasklist{
			TemplateID: tpl.ID,
			Name:       tpl.Name,
			StartKey:   fallbackStartKey,
		}
		if tpl.TimeBlockID != nil {
			if b, ok := blockByID[*tpl.TimeBlockID]; ok {
				list.TimeBlock = b.Name
				list.StartKey = b.Start
			}
		}
		list.Tasks = append([]TaskSnapshot(nil), tpl.Tasks...)
		lists = append(lists, list)
	}

	sort.SliceStable(lists, func(i, j int) bool {
		if lists[i].StartKey != lists[j].StartKey {
			return lists[i].StartKey < lists[j].StartKey
		}
		return lists[i].Name < lists[j].Name
	})
	return lists, nil
}

func containsWeekday(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
