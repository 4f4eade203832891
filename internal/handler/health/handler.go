package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// TransportMode reports whether notifications are queued or only logged.
type TransportMode interface {
	Degraded() bool
}

type Handler struct {
	db        Pinger
	transport TransportMode
}

func NewHandler(db Pinger, transport TransportMode) *Handler {
	return &Handler{
		db:        db,
		transport: transport,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// ReadinessCheck fails only on the database. A degraded notification
// transport is reported but does not make the service unready.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	notifications := "durable"
	if h.transport == nil || h.transport.Degraded() {
		notifications = "degraded"
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":        "DOWN",
			"reason":        "Database connection failed",
			"notifications": notifications,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "UP",
		"notifications": notifications,
	})
}
