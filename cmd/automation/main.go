// Command automation runs one deadline-automation pass and exits. It is
// intended to be invoked from cron; a non-zero exit signals the scheduler
// that the pass failed and should be alerted on.
package main

import (
	"context"
	"log"
	"os"

	"letter-tracker/backend/internal/automation"
	"letter-tracker/backend/internal/config"
	"letter-tracker/backend/internal/deadline"
	"letter-tracker/backend/internal/notify"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access sql DB: %v", err)
	}
	defer sqlDB.Close()

	// Cron runs deliver in-process: there is no long-lived worker to hand
	// jobs to, and the pass must not exit before delivery is attempted.
	dispatcher := notify.NewDispatcher(notify.LogDelivery{})
	monitor := deadline.NewMonitor(deadline.SystemClock{}, dispatcher)
	runner := automation.NewRunner(monitor, deadline.SystemClock{}, cfg.Automation.Budget)

	summary, err := runner.Run(context.Background(), db)
	log.Printf("automation pass: overdue_processed=%d reminders_sent=%d", summary.OverdueProcessed, summary.RemindersSent)
	if err != nil {
		log.Printf("automation pass failed: %v", err)
		os.Exit(1)
	}
}
