package course

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/university-api/internal/handler"
	"github.com/jwalitptl/university-api/internal/model"
	courseService "github.com/jwalitptl/university-api/internal/service/course"
)

type Handler struct {
	service courseService.CourseServicer
}

func NewHandler(service courseService.CourseServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	courses := r.Group("/courses")
	{
		courses.POST("", h.CreateCourse)
		courses.GET("", h.ListCourses)
		courses.GET("/:id", h.GetCourse)
		courses.PUT("/:id", h.UpdateCourse)
		courses.DELETE("/:id", h.DeleteCourse)
	}
}

type courseRequest struct {
	Title        string `json:"title" binding:"required,min=3,max=50"`
	Credits      int    `json:"credits" binding:"min=0,max=5"`
	DepartmentID int64  `json:"department_id" binding:"required,gt=0"`
}

func (req courseRequest) toModel() *model.Course {
	return &model.Course{
		Title:        req.Title,
		Credits:      req.Credits,
		DepartmentID: req.DepartmentID,
	}
}

func (h *Handler) CreateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(handler.BindError(err))
		return
	}

	course := req.toModel()
	if err := h.service.CreateCourse(c.Request.Context(), course); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(course))
}

func (h *Handler) GetCourse(c *gin.Context) {
	id, err := handler.ParseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	course, err := h.service.GetCourse(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(course))
}

func (h *Handler) UpdateCourse(c *gin.Context) {
	id, err := handler.ParseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(handler.BindError(err))
		return
	}

	course := req.toModel()
	course.ID = id
	if err := h.service.UpdateCourse(c.Request.Context(), course); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(course))
}

func (h *Handler) DeleteCourse(c *gin.Context) {
	id, err := handler.ParseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.DeleteCourse(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("course deleted"))
}

func (h *Handler) ListCourses(c *gin.Context) {
	var filter model.CourseFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		_ = c.Error(handler.BindError(err))
		return
	}

	courses, err := h.service.ListCourses(c.Request.Context(), &filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewListResponse(courses, len(courses), filter.Page, filter.Limit()))
}
