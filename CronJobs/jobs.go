package CronJobs

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"ShiftCheck/Engine"
	"ShiftCheck/Models"
)

// DailyScheduler warms up each location's submissions shortly after local
// midnight and logs the outstanding rework queue, so dashboards and the
// first worker of the day never hit a cold path.
type DailyScheduler struct {
	cronScheduler *cron.Cron
	db            *gorm.DB
	hub           *Engine.Hub
	jobID         cron.EntryID
}

func NewDailyScheduler(db *gorm.DB, hub *Engine.Hub) *DailyScheduler {
	return &DailyScheduler{
		cronScheduler: cron.New(cron.WithSeconds()),
		db:            db,
		hub:           hub,
	}
}

// Start schedules the daily warm-up. The job runs every hour at :05 because
// "local midnight" happens at a different server hour for every location
// timezone; the per-location date check makes reruns idempotent.
func (s *DailyScheduler) Start() error {
	var err error
	s.jobID, err = s.cronScheduler.AddFunc("0 5 * * * *", func() {
		log.Println("Running scheduled submission warm-up")
		s.runWarmUp()
	})
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	s.cronScheduler.Start()
	fmt.Println("Daily scheduler started - warm-up runs hourly at :05")
	return nil
}

// Stop terminates the scheduler.
func (s *DailyScheduler) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
		log.Println("Daily scheduler stopped")
	}
}

// UpdateSchedule changes the warm-up schedule.
// Format: "0 5 * * * *" = at minute 5 of every hour.
func (s *DailyScheduler) UpdateSchedule(schedule string) error {
	s.cronScheduler.Remove(s.jobID)

	var err error
	s.jobID, err = s.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled submission warm-up")
		s.runWarmUp()
	})
	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}

	log.Printf("Warm-up schedule updated to: %s\n", schedule)
	return nil
}

// RunManualWarmUp executes a warm-up outside the schedule.
func (s *DailyScheduler) RunManualWarmUp() {
	log.Println("Running manual submission warm-up")
	s.runWarmUp()
}

// runWarmUp creates today's submission shell for every tasklist that
// resolves at each location, then reports outstanding rework counts.
func (s *DailyScheduler) runWarmUp() {
	var locations []Models.Location
	if err := s.db.Find(&locations).Error; err != nil {
		log.Printf("Warm-up: failed to load locations: %v\n", err)
		return
	}

	now := time.Now()
	created := 0
	for _, location := range locations {
		date, err := Engine.DateInZone(now, location.Timezone)
		if err != nil {
			log.Printf("Warm-up: location %d has invalid timezone %q: %v\n", location.ID, location.Timezone, err)
			continue
		}

		var templates []Models.ChecklistTemplate
		if err := s.db.Preload("Tasks").Where("location_id = ?", location.ID).Find(&templates).Error; err != nil {
			log.Printf("Warm-up: failed to load templates for location %d: %v\n", location.ID, err)
			continue
		}
		var blocks []Models.TimeBlock
		if err := s.db.Where("tenant_id = ?", location.TenantID).Find(&blocks).Error; err != nil {
			log.Printf("Warm-up: failed to load time blocks for location %d: %v\n", location.ID, err)
			continue
		}

		specs := make([]Engine.TemplateSpec, len(templates))
		for i := range templates {
			specs[i] = templates[i].Spec()
		}
		lists, err := Engine.ResolveTasklistsForDay(specs, Models.TimeBlockSpecs(blocks), location.ID, date, location.Timezone)
		if err != nil {
			log.Printf("Warm-up: failed to resolve tasklists for location %d: %v\n", location.ID, err)
			continue
		}

		for _, list := range lists {
			if _, err := Models.FindOrCreateSubmission(s.db, location.TenantID, list.TemplateID, location.ID, date); err != nil {
				log.Printf("Warm-up: failed to open submission for tasklist %d at location %d: %v\n", list.TemplateID, location.ID, err)
				continue
			}
			created++
		}
		if len(lists) > 0 && s.hub != nil {
			s.hub.Notify(Engine.Topic("submissions", location.TenantID))
		}
	}
	log.Printf("Warm-up complete: %d submissions opened or confirmed\n", created)

	s.logReworkDigest()
}

// logReworkDigest reports how many submissions are still waiting on rework.
func (s *DailyScheduler) logReworkDigest() {
	var count int64
	if err := s.db.Model(&Models.Submission{}).Where("status = ?", Engine.SubmissionRework).Count(&count).Error; err != nil {
		log.Printf("Rework digest failed: %v\n", err)
		return
	}
	if count == 0 {
		log.Println("No submissions awaiting rework")
		return
	}
	log.Printf("%d submissions awaiting rework\n", count)
}
