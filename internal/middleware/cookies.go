package middleware

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/Laktab-Noureddine-code/NessRH/internal/session"
)

func isProd() bool {
	return os.Getenv("APP_ENV") == "production"
}

// SetSessionCookies writes the session cookie (HttpOnly) and the CSRF
// cookie (readable by the SPA, echoed back in X-CSRF-Token).
func SetSessionCookies(c *gin.Context, rec *session.Record) {
	maxAge := int(session.DefaultTTL.Seconds())

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    rec.Token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isProd(),
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CSRFCookie,
		Value:    rec.CSRFToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   isProd(),
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookies(c *gin.Context) {
	for _, name := range []string{SessionCookie, CSRFCookie} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == SessionCookie,
			Secure:   isProd(),
			SameSite: http.SameSiteLaxMode,
		})
	}
}
