package automation

import (
	"context"
	"fmt"
	"log"
	"time"

	"letter-tracker/backend/internal/deadline"
	"letter-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const DefaultBudget = 5 * time.Minute

// Summary is the result of one scheduled-automation invocation. The overdue
// count reflects the current overdue set on every run; reminders are
// idempotent per task per day, so a repeat run on the same day reports zero.
type Summary struct {
	OverdueProcessed int `json:"overdue_processed"`
	RemindersSent    int `json:"reminders_sent"`
}

// Runner is the cron-triggered entry point: an overdue-processing pass
// followed by a due-tomorrow reminder pass. A failure on one task never stops
// the rest of the batch; a failure before a batch starts aborts the run.
type Runner struct {
	monitor *deadline.Monitor
	clock   deadline.Clock
	budget  time.Duration
}

func NewRunner(monitor *deadline.Monitor, clock deadline.Clock, budget time.Duration) *Runner {
	if clock == nil {
		clock = deadline.SystemClock{}
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Runner{monitor: monitor, clock: clock, budget: budget}
}

func (r *Runner) Run(ctx context.Context, db *gorm.DB) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, r.budget)
	defer cancel()

	var summary Summary

	overdue, err := r.monitor.FindOverdueTasks(db)
	if err != nil {
		return summary, fmt.Errorf("overdue scan: %w", err)
	}
	for _, task := range overdue {
		if ctx.Err() != nil {
			log.Printf("automation budget exhausted after %d overdue tasks", summary.OverdueProcessed)
			break
		}
		if _, err := r.monitor.EscalateTask(db, task.ID); err != nil {
			log.Printf("escalation for task %s failed: %v", task.ID, err)
			continue
		}
		summary.OverdueProcessed++
	}

	dueTomorrow, err := r.monitor.FindTasksDueTomorrow(db)
	if err != nil {
		r.record(db, summary)
		return summary, fmt.Errorf("reminder scan: %w", err)
	}
	for _, task := range dueTomorrow {
		if ctx.Err() != nil {
			log.Printf("automation budget exhausted after %d reminders", summary.RemindersSent)
			break
		}
		sent, err := r.monitor.RemindDueTomorrow(db, task)
		if err != nil {
			log.Printf("reminder for task %s failed: %v", task.ID, err)
			continue
		}
		if sent > 0 {
			summary.RemindersSent++
		}
	}

	r.record(db, summary)
	return summary, nil
}

// record writes the audit row. Every invocation produces a fresh row, even a
// same-day repeat where all the work was already done.
func (r *Runner) record(db *gorm.DB, summary Summary) {
	id, err := uuid.NewV4()
	if err != nil {
		log.Printf("automation audit id generation failed: %v", err)
		return
	}
	run := models.AutomationRun{
		ID:               id,
		RanAt:            r.clock.Now(),
		OverdueProcessed: summary.OverdueProcessed,
		RemindersSent:    summary.RemindersSent,
	}
	if err := db.Create(&run).Error; err != nil {
		log.Printf("automation audit record failed: %v", err)
	}
}
