package main

import (
	"log"

	"github.com/joho/godotenv"

	"ShiftCheck/CronJobs"
	"ShiftCheck/Engine"
	"ShiftCheck/FiberConfig"
	"ShiftCheck/Models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	Models.Connect()

	store := Engine.NewStore()
	hub := Engine.NewHub()

	scheduler := CronJobs.NewDailyScheduler(Models.DB, hub)
	if err := scheduler.Start(); err != nil {
		log.Printf("Failed to start daily scheduler: %v\n", err)
	}
	defer scheduler.Stop()

	FiberConfig.FiberConfig(store, hub)
}
