package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/response"
)

// CSRFHeader is the header the SPA copies the CSRF cookie value into on
// every mutating request (double-submit pattern).
const CSRFHeader = "X-CSRF-Token"

// CSRF rejects mutating requests whose X-CSRF-Token header does not
// match the token bound to the session. Must run after SessionAuth.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		rec, ok := GetSession(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication is required", nil)
			c.Abort()
			return
		}

		sent := c.GetHeader(CSRFHeader)
		if sent == "" || subtle.ConstantTimeCompare([]byte(sent), []byte(rec.CSRFToken)) != 1 {
			response.Error(c, http.StatusForbidden, "CSRF_MISMATCH", "CSRF token missing or invalid", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
