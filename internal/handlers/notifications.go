package handlers

import (
	"net/http"

	"letter-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	db                  *gorm.DB
	notificationService services.NotificationService
}

func NewNotificationHandler(db *gorm.DB, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{db: db, notificationService: notificationService}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.notificationService.ListForUser(h.db, userID, unreadOnly)
	if err != nil {
		handleStoreError(c, err, "notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id := uuid.FromStringOrNil(c.Param("id"))

	if err := h.notificationService.MarkRead(h.db, id, userID); err != nil {
		handleStoreError(c, err, "notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	count, err := h.notificationService.UnreadCount(h.db, userID)
	if err != nil {
		handleStoreError(c, err, "notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}
