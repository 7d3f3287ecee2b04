package employee

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Laktab-Noureddine-code/NessRH/internal/middleware"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/response"
)

const idempotencyCacheTTL = 24 * time.Hour

type Handler struct {
	service Service
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("employee.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.handler")
	}
	return &Handler{service: service, logger: l}
}

func NewHandlerWithRedis(service Service, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	h := NewHandler(service, logger...)
	h.rdb = rdb
	return h
}

func (h *Handler) writeError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	if httpErr.Status >= http.StatusInternalServerError {
		h.logger.Error("employee request failed", zap.Error(err))
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
	// Release the in-flight lock whatever the outcome; a cached
	// response below is what dedupes retries after that.
	if h.rdb != nil {
		if lk := c.GetString(middleware.IdempotencyLockKey); lk != "" {
			defer h.rdb.Del(c.Request.Context(), lk)
		}
	}

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if h.rdb != nil {
		if ck := c.GetString(middleware.IdempotencyCacheKey); ck != "" {
			if payload, marshalErr := json.Marshal(resp); marshalErr == nil {
				if setErr := h.rdb.Set(c.Request.Context(), ck, payload, idempotencyCacheTTL).Err(); setErr != nil {
					h.logger.Warn("cache idempotent response failed", zap.Error(setErr))
				}
			}
		}
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	resp, err := h.service.GetAll(c.Request.Context(), p, c.Query("department_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetOptions(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	resp, err := h.service.GetOptions(c.Request.Context(), p)
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

	var req UpdateEmployeeRequest
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

func (h *Handler) MoveDepartment(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	var req MoveDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.MoveDepartment(c.Request.Context(), p, c.Param("id"), req)
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

	response.Success(c, http.StatusOK, gin.H{"message": "Employee deleted"}, nil)
}
