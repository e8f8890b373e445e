package Models

import "gorm.io/gorm"

// Location is a tenant-scoped physical site. Its timezone decides what
// "today" means for every tasklist resolved against it.
type Location struct {
	gorm.Model
	TenantID uint   `json:"tenant_id" gorm:"index;not null"`
	Name     string `json:"name"`
	Timezone string `json:"timezone" gorm:"type:varchar(64);not null"` // IANA name, e.g. America/Chicago
}

// TimeBlock is a named daily window used to label and order tasklists
// within a day. It is not a scheduling constraint.
type TimeBlock struct {
	gorm.Model
	TenantID   uint   `json:"tenant_id" gorm:"index;not null"`
	LocationID uint   `json:"location_id" gorm:"index"`
	Name       string `json:"name"`
	StartTime  string `json:"start_time" gorm:"type:varchar(5)"` // "HH:MM" local
	EndTime    string `json:"end_time" gorm:"type:varchar(5)"`
}
