package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Laktab-Noureddine-code/NessRH/internal/authz"
	"github.com/Laktab-Noureddine-code/NessRH/internal/middleware"
	"github.com/Laktab-Noureddine-code/NessRH/internal/session"
)

type fakeSessions struct {
	records map[string]*session.Record
}

func (f *fakeSessions) Create(ctx context.Context, p authz.Principal) (*session.Record, error) {
	rec := &session.Record{
		Token:     uuid.NewString(),
		CSRFToken: uuid.NewString(),
		Principal: p,
		CreatedAt: time.Now().UTC(),
	}
	f.records[rec.Token] = rec
	return rec, nil
}

func (f *fakeSessions) Resolve(ctx context.Context, token string) (*session.Record, error) {
	rec, ok := f.records[token]
	if !ok {
		return nil, session.ErrUnauthenticated
	}
	return rec, nil
}

func (f *fakeSessions) Invalidate(ctx context.Context, token string) error {
	delete(f.records, token)
	return nil
}

func newAuthedRouter(sessions session.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authed := r.Group("", middleware.SessionAuth(sessions))
	authed.GET("/whoami", func(c *gin.Context) {
		p, _ := middleware.GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID})
	})
	authed.POST("/mutate", middleware.CSRF(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func seedSession(sessions *fakeSessions) *session.Record {
	rec, _ := sessions.Create(context.Background(), authz.Principal{
		UserID:    uuid.New().String(),
		CompanyID: uuid.New().String(),
		Role:      authz.RoleAdmin,
	})
	return rec
}

func TestSessionAuth(t *testing.T) {
	t.Run("valid cookie resolves the principal", func(t *testing.T) {
		sessions := &fakeSessions{records: map[string]*session.Record{}}
		rec := seedSession(sessions)
		r := newAuthedRouter(sessions)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: rec.Token})
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), rec.Principal.UserID)
	})

	t.Run("missing cookie", func(t *testing.T) {
		sessions := &fakeSessions{records: map[string]*session.Record{}}
		r := newAuthedRouter(sessions)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		sessions := &fakeSessions{records: map[string]*session.Record{}}
		r := newAuthedRouter(sessions)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "stale-token"})
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalidated token stops resolving", func(t *testing.T) {
		sessions := &fakeSessions{records: map[string]*session.Record{}}
		rec := seedSession(sessions)
		r := newAuthedRouter(sessions)

		assert.NoError(t, sessions.Invalidate(context.Background(), rec.Token))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: rec.Token})
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCSRF(t *testing.T) {
	t.Run("mutating request needs the header", func(t *testing.T) {
		sessions := &fakeSessions{records: map[string]*session.Record{}}
		rec := seedSession(sessions)
		r := newAuthedRouter(sessions)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: rec.Token})
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "CSRF_MISMATCH")
	})

	t.Run("wrong token is rejected", func(t *testing.T) {
		sessions := &fakeSessions{records: map[string]*session.Record{}}
		rec := seedSession(sessions)
		r := newAuthedRouter(sessions)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: rec.Token})
		req.Header.Set(middleware.CSRFHeader, "forged")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("matching token passes", func(t *testing.T) {
		sessions := &fakeSessions{records: map[string]*session.Record{}}
		rec := seedSession(sessions)
		r := newAuthedRouter(sessions)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: rec.Token})
		req.Header.Set(middleware.CSRFHeader, rec.CSRFToken)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("reads skip the check", func(t *testing.T) {
		sessions := &fakeSessions{records: map[string]*session.Record{}}
		rec := seedSession(sessions)
		r := newAuthedRouter(sessions)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: rec.Token})
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
