package handlers

import (
	"net/http"
	"strconv"

	"letter-tracker/backend/internal/automation"
	"letter-tracker/backend/internal/deadline"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AutomationHandler struct {
	db      *gorm.DB
	runner  *automation.Runner
	monitor *deadline.Monitor
}

func NewAutomationHandler(db *gorm.DB, runner *automation.Runner, monitor *deadline.Monitor) *AutomationHandler {
	return &AutomationHandler{db: db, runner: runner, monitor: monitor}
}

// Run triggers the scheduled-automation pass on demand. Safe to repeat: the
// reminder path is idempotent per day and the overdue pass reflects current
// state.
func (h *AutomationHandler) Run(c *gin.Context) {
	summary, err := h.runner.Run(c.Request.Context(), h.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "automation_failed",
			"message": err.Error(),
			"summary": summary,
		})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AutomationHandler) Overdue(c *gin.Context) {
	tasks, err := h.monitor.FindOverdueTasks(h.db)
	if err != nil {
		handleStoreError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

func (h *AutomationHandler) Upcoming(c *gin.Context) {
	windowDays := 0
	if w := c.Query("window"); w != "" {
		parsed, err := strconv.Atoi(w)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a non-negative integer"})
			return
		}
		windowDays = parsed
	}

	tasks, err := h.monitor.FindUpcomingDeadlines(h.db, windowDays)
	if err != nil {
		handleStoreError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}
