package company

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Laktab-Noureddine-code/NessRH/internal/bootstrap"
	"github.com/Laktab-Noureddine-code/NessRH/internal/middleware"
	"github.com/Laktab-Noureddine-code/NessRH/internal/session"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/response"
)

type Handler struct {
	service  Service
	sessions session.Manager
	audit    bootstrap.AuditLogger
	logger   *zap.Logger
}

func NewHandler(service Service, sessions session.Manager, audit bootstrap.AuditLogger, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("company.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("company.handler")
	}
	return &Handler{service: service, sessions: sessions, audit: audit, logger: l}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	if httpErr.Status >= http.StatusInternalServerError {
		h.logger.Error("company request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Onboard(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	var req OnboardCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Onboard(c.Request.Context(), principal, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	// The principal's company binding changed: rotate the session so
	// the old token cannot outlive the privilege change.
	principal.CompanyID = resp.ID
	if rec, err := h.sessions.Create(c.Request.Context(), principal); err == nil {
		middleware.SetSessionCookies(c, rec)
	} else {
		h.logger.Error("session rotation after onboarding failed", zap.Error(err))
	}

	h.audit.Log(c.Request.Context(), bootstrap.AuditLog{
		Action:  "COMPANY_ONBOARDED",
		Message: "Company created for admin account",
		Meta:    map[string]any{"company_id": resp.ID, "user_id": principal.UserID},
	})

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetCurrent(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	resp, err := h.service.GetCurrent(c.Request.Context(), principal)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), principal, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) DeleteCurrent(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	if err := h.service.DeleteCurrent(c.Request.Context(), principal); err != nil {
		h.writeError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), bootstrap.AuditLog{
		Action:  "COMPANY_DELETED",
		Message: "Company and all owned records removed",
		Meta:    map[string]any{"company_id": principal.CompanyID, "user_id": principal.UserID},
	})

	response.Success(c, http.StatusOK, gin.H{"message": "Company deleted"}, nil)
}
