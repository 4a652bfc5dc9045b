package deadline

import (
	"fmt"

	"letter-tracker/backend/internal/models"
	"letter-tracker/backend/internal/notify"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const DefaultUpcomingWindowDays = 7

type OverdueTask struct {
	models.Task
	DaysOverdue int `json:"days_overdue"`
}

type UpcomingTask struct {
	models.Task
	DaysUntilDue int `json:"days_until_due"`
}

// Monitor scans tasks for deadline conditions. It holds no entity state:
// every scan re-reads the store, which is what keeps repeated runs within one
// day idempotent.
type Monitor struct {
	clock      Clock
	dispatcher *notify.Dispatcher
}

func NewMonitor(clock Clock, dispatcher *notify.Dispatcher) *Monitor {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Monitor{clock: clock, dispatcher: dispatcher}
}

// FindOverdueTasks returns every open task whose due date fell before today,
// annotated with whole days overdue.
func (m *Monitor) FindOverdueTasks(db *gorm.DB) ([]OverdueTask, error) {
	today := Day(m.clock.Now())

	var tasks []models.Task
	err := db.
		Where("due_date IS NOT NULL AND due_date < ?", today).
		Where("status IN ?", []models.TaskStatus{models.TaskStatusPending, models.TaskStatusInProgress}).
		Order("due_date asc").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("query overdue tasks: %w", err)
	}

	overdue := make([]OverdueTask, 0, len(tasks))
	for _, task := range tasks {
		overdue = append(overdue, OverdueTask{
			Task:        task,
			DaysOverdue: DaysBetween(*task.DueDate, today),
		})
	}
	return overdue, nil
}

// FindUpcomingDeadlines returns open tasks due within [today, today+window],
// both ends inclusive at day granularity.
func (m *Monitor) FindUpcomingDeadlines(db *gorm.DB, windowDays int) ([]UpcomingTask, error) {
	if windowDays <= 0 {
		windowDays = DefaultUpcomingWindowDays
	}
	today := Day(m.clock.Now())
	end := today.AddDate(0, 0, windowDays+1)

	var tasks []models.Task
	err := db.
		Where("due_date IS NOT NULL AND due_date >= ? AND due_date < ?", today, end).
		Where("status IN ?", []models.TaskStatus{models.TaskStatusPending, models.TaskStatusInProgress}).
		Order("due_date asc").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("query upcoming deadlines: %w", err)
	}

	upcoming := make([]UpcomingTask, 0, len(tasks))
	for _, task := range tasks {
		upcoming = append(upcoming, UpcomingTask{
			Task:         task,
			DaysUntilDue: DaysBetween(today, *task.DueDate),
		})
	}
	return upcoming, nil
}

// FindTasksDueTomorrow returns tasks due tomorrow that have not yet received
// a deadline reminder today. The exclusion joins against existing deadline
// notifications created on the current calendar date, which makes the
// reminder path idempotent per task per day.
func (m *Monitor) FindTasksDueTomorrow(db *gorm.DB) ([]models.Task, error) {
	today := Day(m.clock.Now())
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)

	remindedToday := db.Model(&models.Notification{}).
		Select("entity_id").
		Where("kind = ? AND entity_type = ?", models.NotificationDeadline, "task").
		Where("created_at >= ? AND created_at < ?", today, tomorrow)

	var tasks []models.Task
	err := db.
		Where("due_date IS NOT NULL AND due_date >= ? AND due_date < ?", tomorrow, dayAfter).
		Where("status NOT IN ?", []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusCancelled}).
		Where("id NOT IN (?)", remindedToday).
		Order("due_date asc").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("query tasks due tomorrow: %w", err)
	}
	return tasks, nil
}

// EscalateTask notifies the manager of the department owning the task's
// letter. A letter without a department, or a department without a manager,
// is deliberately a silent no-op: escalation is simply skipped, not an error.
func (m *Monitor) EscalateTask(db *gorm.DB, taskID uuid.UUID) (int, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		return 0, fmt.Errorf("load task for escalation: %w", err)
	}

	var letter models.Letter
	if err := db.First(&letter, "id = ?", task.LetterID).Error; err != nil {
		return 0, fmt.Errorf("load letter for escalation: %w", err)
	}

	if letter.DepartmentID == nil {
		return 0, nil
	}

	var department models.Department
	if err := db.First(&department, "id = ?", *letter.DepartmentID).Error; err != nil {
		return 0, fmt.Errorf("load department for escalation: %w", err)
	}

	if department.ManagerID == nil {
		return 0, nil
	}

	daysOverdue := 0
	if task.DueDate != nil {
		if d := DaysBetween(*task.DueDate, Day(m.clock.Now())); d > 0 {
			daysOverdue = d
		}
	}

	return m.dispatcher.TaskEscalated(db, task.ID, *department.ManagerID, daysOverdue)
}

// RemindDueTomorrow runs the reminder path for one task. Duplicate calls on
// the same day are filtered upstream by FindTasksDueTomorrow.
func (m *Monitor) RemindDueTomorrow(db *gorm.DB, task models.Task) (int, error) {
	daysUntil := 1
	if task.DueDate != nil {
		daysUntil = DaysBetween(Day(m.clock.Now()), *task.DueDate)
	}
	return m.dispatcher.DeadlineApproaching(db, task.ID, daysUntil)
}
