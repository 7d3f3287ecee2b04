package contract

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Laktab-Noureddine-code/NessRH/internal/bootstrap"
	"github.com/Laktab-Noureddine-code/NessRH/internal/middleware"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/response"
)

const idempotencyCacheTTL = 24 * time.Hour

type Handler struct {
	service Service
	audit   bootstrap.AuditLogger
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewHandler(service Service, audit bootstrap.AuditLogger, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("contract.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("contract.handler")
	}
	return &Handler{service: service, audit: audit, logger: l}
}

func NewHandlerWithRedis(service Service, audit bootstrap.AuditLogger, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	h := NewHandler(service, audit, logger...)
	h.rdb = rdb
	return h
}

func (h *Handler) writeError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	if httpErr.Status >= http.StatusInternalServerError {
		h.logger.Error("contract request failed", zap.Error(err))
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
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

	var req CreateContractRequest
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

	resp, err := h.service.GetAll(c.Request.Context(), p, c.Query("employee_id"))
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

	var req UpdateContractRequest
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

func (h *Handler) Terminate(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	resp, err := h.service.Terminate(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	if h.audit != nil {
		h.audit.Log(c.Request.Context(), bootstrap.AuditLog{
			Action:  "CONTRACT_TERMINATED",
			Message: "Contract terminated by administrator",
			Meta: map[string]any{
				"contract_id": resp.ID,
				"company_id":  resp.CompanyID,
				"actor_id":    p.UserID,
			},
		})
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

	response.Success(c, http.StatusOK, gin.H{"message": "Contract deleted"}, nil)
}
