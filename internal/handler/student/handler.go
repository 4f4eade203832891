package student

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/university-api/internal/handler"
	"github.com/jwalitptl/university-api/internal/model"
	studentService "github.com/jwalitptl/university-api/internal/service/student"
)

type Handler struct {
	service studentService.StudentServicer
}

func NewHandler(service studentService.StudentServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	students := r.Group("/students")
	{
		students.POST("", h.CreateStudent)
		students.GET("", h.ListStudents)
		students.GET("/:id", h.GetStudent)
		students.PUT("/:id", h.UpdateStudent)
		students.DELETE("/:id", h.DeleteStudent)
	}
}

type studentRequest struct {
	LastName       string    `json:"last_name" binding:"required,max=50"`
	FirstMidName   string    `json:"first_mid_name" binding:"required,max=50"`
	EnrollmentDate time.Time `json:"enrollment_date" binding:"required"`
}

func (req studentRequest) toModel() *model.Student {
	return &model.Student{
		LastName:       req.LastName,
		FirstMidName:   req.FirstMidName,
		EnrollmentDate: req.EnrollmentDate,
	}
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(handler.BindError(err))
		return
	}

	student := req.toModel()
	if err := h.service.CreateStudent(c.Request.Context(), student); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(student))
}

func (h *Handler) GetStudent(c *gin.Context) {
	id, err := handler.ParseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	student, err := h.service.GetStudent(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(student))
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	id, err := handler.ParseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(handler.BindError(err))
		return
	}

	student := req.toModel()
	student.ID = id
	if err := h.service.UpdateStudent(c.Request.Context(), student); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(student))
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	id, err := handler.ParseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.DeleteStudent(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("student deleted"))
}

func (h *Handler) ListStudents(c *gin.Context) {
	var filter model.StudentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		_ = c.Error(handler.BindError(err))
		return
	}

	students, err := h.service.ListStudents(c.Request.Context(), &filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewListResponse(students, len(students), filter.Page, filter.Limit()))
}
