package department

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/university-api/internal/handler"
	"github.com/jwalitptl/university-api/internal/model"
	departmentService "github.com/jwalitptl/university-api/internal/service/department"
)

type Handler struct {
	service departmentService.DepartmentServicer
}

func NewHandler(service departmentService.DepartmentServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	departments := r.Group("/departments")
	{
		departments.POST("", h.CreateDepartment)
		departments.GET("", h.ListDepartments)
		departments.GET("/:id", h.GetDepartment)
		departments.PUT("/:id", h.UpdateDepartment)
		departments.DELETE("/:id", h.DeleteDepartment)
	}
}

type departmentRequest struct {
	Name      string    `json:"name" binding:"required,min=3,max=50"`
	Budget    float64   `json:"budget" binding:"gte=0"`
	StartDate time.Time `json:"start_date" binding:"required"`
}

func (h *Handler) CreateDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(handler.BindError(err))
		return
	}

	department := &model.Department{Name: req.Name, Budget: req.Budget, StartDate: req.StartDate}
	if err := h.service.CreateDepartment(c.Request.Context(), department); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(department))
}

func (h *Handler) GetDepartment(c *gin.Context) {
	id, err := handler.ParseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	department, err := h.service.GetDepartment(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(department))
}

func (h *Handler) UpdateDepartment(c *gin.Context) {
	id, err := handler.ParseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(handler.BindError(err))
		return
	}

	department := &model.Department{Base: model.Base{ID: id}, Name: req.Name, Budget: req.Budget, StartDate: req.StartDate}
	if err := h.service.UpdateDepartment(c.Request.Context(), department); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(department))
}

func (h *Handler) DeleteDepartment(c *gin.Context) {
	id, err := handler.ParseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.DeleteDepartment(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("department deleted"))
}

func (h *Handler) ListDepartments(c *gin.Context) {
	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		_ = c.Error(handler.BindError(err))
		return
	}

	departments, err := h.service.ListDepartments(c.Request.Context(), page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewListResponse(departments, len(departments), page.Page, page.Limit()))
}
