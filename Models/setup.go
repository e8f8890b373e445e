package Models

import (
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "shiftcheck.db"
	}
	connection, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database: ", err)
	}
	DB = connection

	if err := Migrate(DB); err != nil {
		log.Fatal("migration failed: ", err)
	}
}

// Migrate runs the ordered migrations and natural-key indexes. Split out of
// Connect so tests can run against an in-memory database.
func Migrate(db *gorm.DB) error {
	// 1. Base tables with no dependencies
	if err := db.AutoMigrate(
		&User{},     // tenant actor roster
		&Location{}, // sites and their timezones
		&TimeBlock{},
	); err != nil {
		return err
	}
	if err := SetupUserIndexes(db); err != nil {
		return err
	}

	// 2. Recurring templates and their task definitions
	if err := db.AutoMigrate(
		&ChecklistTemplate{},
		&TaskDefinition{},
	); err != nil {
		return err
	}

	// 3. Daily submissions depend on everything above
	if err := db.AutoMigrate(
		&Submission{},
		&SubmissionTask{},
	); err != nil {
		return err
	}

	return SetupSubmissionIndexes(db)
}
