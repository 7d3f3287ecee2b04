package department

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Laktab-Noureddine-code/NessRH/internal/middleware"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/response"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("department.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("department.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	if httpErr.Status >= http.StatusInternalServerError {
		h.logger.Error("department request failed", zap.Error(err))
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	var req CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	activeOnly := c.Query("active") == "true"

	resp, err := h.service.GetAll(c.Request.Context(), p, activeOnly)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetByID(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	var req UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) AssignManager(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	var req AssignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.AssignManager(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	if err := h.service.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Department deleted"}, nil)
}
