package handlers

import (
	"net/http"

	"letter-tracker/backend/internal/models"
	"letter-tracker/backend/internal/query"
	"letter-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReportHandler struct {
	db            *gorm.DB
	reportService services.ReportService
}

func NewReportHandler(db *gorm.DB, reportService services.ReportService) *ReportHandler {
	return &ReportHandler{db: db, reportService: reportService}
}

func (h *ReportHandler) letterFilters(c *gin.Context) ([]query.Predicate, bool) {
	var filters []query.Predicate
	if stakeholder := c.Query("stakeholder"); stakeholder != "" {
		filters = append(filters, query.StakeholderIs(stakeholder))
	}
	if departmentID := parseOptionalUUID(c.Query("department_id")); departmentID != nil {
		filters = append(filters, query.DepartmentIs(*departmentID))
	}
	from, errFrom := parseDate(c.Query("from"))
	to, errTo := parseDate(c.Query("to"))
	if errFrom != nil || errTo != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
		return nil, false
	}
	if from != nil && to != nil {
		filters = append(filters, query.ReceivedBetween(*from, *to))
	}
	return filters, true
}

func (h *ReportHandler) LettersReport(c *gin.Context) {
	filters, ok := h.letterFilters(c)
	if !ok {
		return
	}

	switch c.DefaultQuery("group_by", "status") {
	case "status":
		rows, err := h.reportService.LettersByStatus(h.db, filters...)
		if err != nil {
			handleStoreError(c, err, "report")
			return
		}
		c.JSON(http.StatusOK, gin.H{"group_by": "status", "rows": rows})
	case "stakeholder":
		rows, err := h.reportService.LettersByStakeholder(h.db, filters...)
		if err != nil {
			handleStoreError(c, err, "report")
			return
		}
		c.JSON(http.StatusOK, gin.H{"group_by": "stakeholder", "rows": rows})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_by must be status or stakeholder"})
	}
}

func (h *ReportHandler) TasksReport(c *gin.Context) {
	var filters []query.Predicate
	if status := c.Query("status"); status != "" {
		taskStatus := models.TaskStatus(status)
		if !taskStatus.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		filters = append(filters, query.TaskStatusIn(taskStatus))
	}

	switch c.DefaultQuery("group_by", "status") {
	case "status":
		rows, err := h.reportService.TasksByStatus(h.db, filters...)
		if err != nil {
			handleStoreError(c, err, "report")
			return
		}
		c.JSON(http.StatusOK, gin.H{"group_by": "status", "rows": rows})
	case "assignee":
		rows, err := h.reportService.TasksByAssignee(h.db, filters...)
		if err != nil {
			handleStoreError(c, err, "report")
			return
		}
		c.JSON(http.StatusOK, gin.H{"group_by": "assignee", "rows": rows})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_by must be status or assignee"})
	}
}
