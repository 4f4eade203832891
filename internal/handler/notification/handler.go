package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/university-api/internal/model"
	notificationService "github.com/jwalitptl/university-api/internal/service/notification"
	"github.com/jwalitptl/university-api/pkg/logger"
)

const (
	msgRetrieveFailed = "Error retrieving notifications"
	msgUpdateFailed   = "Error updating notification"
)

// PollResponse is the dashboard payload.
type PollResponse struct {
	Success       bool                  `json:"success"`
	Notifications []*model.Notification `json:"notifications"`
	Count         int                   `json:"count"`
}

// StatusResponse reports the outcome of a dashboard call. Failures keep
// HTTP 200 and carry success=false.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type Handler struct {
	poller  *notificationService.Poller
	service notificationService.Service
	logger  *logger.Logger
}

func NewHandler(poller *notificationService.Poller, service notificationService.Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{poller: poller, service: service, logger: log}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.GetNotifications)
		notifications.POST("/mark-read", h.MarkAsRead)
	}
}

// GetNotifications drains up to one batch. Reading is destructive, so the
// response must not be cached.
func (h *Handler) GetNotifications(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	batch, err := h.poller.Poll(c.Request.Context())
	if err != nil {
		h.logger.Error(err, "failed to poll notifications")
		c.JSON(http.StatusOK, StatusResponse{Success: false, Message: msgRetrieveFailed})
		return
	}

	c.JSON(http.StatusOK, PollResponse{
		Success:       true,
		Notifications: batch,
		Count:         len(batch),
	})
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil {
		h.logger.Warn(err, "invalid notification id", "id", c.Query("id"))
		c.JSON(http.StatusOK, StatusResponse{Success: false, Message: msgUpdateFailed})
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), id); err != nil {
		h.logger.Error(err, "failed to mark notification as read", "id", id)
		c.JSON(http.StatusOK, StatusResponse{Success: false, Message: msgUpdateFailed})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Success: true})
}
