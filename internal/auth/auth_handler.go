package auth

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
	l := zap.L().Named("auth.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.handler")
	}
	return &Handler{service: service, sessions: sessions, audit: audit, logger: l}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	if httpErr.Status >= http.StatusInternalServerError {
		h.logger.Error("auth request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperror.MapValidationError(err))
		return
	}

	principal, userResp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	rec, err := h.sessions.Create(c.Request.Context(), principal)
	if err != nil {
		h.writeError(c, err)
		return
	}
	middleware.SetSessionCookies(c, rec)

	h.audit.Log(c.Request.Context(), bootstrap.AuditLog{
		Action:  "USER_REGISTERED",
		Message: "New admin account registered",
		Meta:    map[string]any{"user_id": principal.UserID, "email": principal.Email},
	})

	response.Success(c, http.StatusCreated, gin.H{"user": userResp}, nil)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperror.MapValidationError(err))
		return
	}

	principal, userResp, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	// Rotation happens inside Create: the prior token for this user is
	// invalidated in the same transaction.
	rec, err := h.sessions.Create(c.Request.Context(), principal)
	if err != nil {
		h.writeError(c, err)
		return
	}
	middleware.SetSessionCookies(c, rec)

	h.audit.Log(c.Request.Context(), bootstrap.AuditLog{
		Action:  "USER_LOGIN",
		Message: "User logged in",
		Meta:    map[string]any{"user_id": principal.UserID},
	})

	response.Success(c, http.StatusOK, gin.H{"user": userResp}, nil)
}

func (h *Handler) Me(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	resp, err := h.service.GetMe(c.Request.Context(), principal)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Logout(c *gin.Context) {
	token, _ := c.Cookie(middleware.SessionCookie)

	if err := h.sessions.Invalidate(c.Request.Context(), token); err != nil {
		h.writeError(c, err)
		return
	}
	middleware.ClearSessionCookies(c)

	if principal, ok := middleware.GetPrincipal(c); ok {
		h.audit.Log(c.Request.Context(), bootstrap.AuditLog{
			Action:  "USER_LOGOUT",
			Message: "User logged out",
			Meta:    map[string]any{"user_id": principal.UserID},
		})
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Logged out successfully"}, nil)
}

// CSRFCookie re-issues the CSRF cookie for the current session. The SPA
// calls it once after loading, before its first mutating request.
func (h *Handler) CSRFCookie(c *gin.Context) {
	rec, ok := middleware.GetSession(c)
	if !ok {
		h.writeError(c, apperror.ErrUnauthenticated)
		return
	}

	middleware.SetSessionCookies(c, rec)
	response.Success(c, http.StatusOK, gin.H{"csrf_token": rec.CSRFToken}, nil)
}
