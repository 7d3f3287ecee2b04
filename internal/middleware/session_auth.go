package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Laktab-Noureddine-code/NessRH/internal/authz"
	"github.com/Laktab-Noureddine-code/NessRH/internal/session"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/contextutil"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/response"
)

const (
	// SessionCookie carries the opaque session token (HttpOnly).
	// CSRFCookie carries the CSRF token and is readable by the SPA.
	SessionCookie = "nessrh_session"
	CSRFCookie    = "nessrh_csrf"

	PrincipalKey = "principal"
	SessionKey   = "session"
)

// SessionAuth resolves the session cookie to a principal and makes it
// available to handlers. There is no ambient current user: everything
// downstream receives the principal explicitly from the context keys
// set here.
func SessionAuth(sessions session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(SessionCookie)

		rec, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			httpErr := apperror.ToHTTP(err)
			response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
			c.Abort()
			return
		}

		p := rec.Principal
		c.Set(PrincipalKey, p)
		c.Set(SessionKey, rec)
		c.Set("user_id", p.UserID)
		c.Set("company_id", p.CompanyID)
		c.Set("employee_id", p.EmployeeID)
		c.Set("role", string(p.Role))

		c.Request = c.Request.WithContext(
			contextutil.WithUserID(c.Request.Context(), p.UserID),
		)

		c.Next()
	}
}

// GetPrincipal returns the principal set by SessionAuth.
func GetPrincipal(c *gin.Context) (authz.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return authz.Principal{}, false
	}
	p, ok := v.(authz.Principal)
	return p, ok
}

// GetSession returns the full session record set by SessionAuth.
func GetSession(c *gin.Context) (*session.Record, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	rec, ok := v.(*session.Record)
	return rec, ok
}
