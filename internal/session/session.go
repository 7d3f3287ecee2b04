package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Laktab-Noureddine-code/NessRH/internal/authz"
	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/apperror"
)

const (
	sessionKeyPrefix = "session:"
	userKeyPrefix    = "user_session:"

	// DefaultTTL bounds a session's lifetime. It is not refreshed on
	// reads; the client re-authenticates after expiry.
	DefaultTTL = 24 * time.Hour

	tokenBytes = 32
)

var ErrUnauthenticated = apperror.ErrUnauthenticated

// Record is what a session token resolves to. The CSRF token lives in
// the record so a stolen session cookie alone cannot forge a mutating
// request.
type Record struct {
	Token     string          `json:"-"`
	CSRFToken string          `json:"csrf_token"`
	Principal authz.Principal `json:"principal"`
	CreatedAt time.Time       `json:"created_at"`
}

type Manager interface {
	// Create issues a fresh session for the principal. Any prior
	// session bound to the same user is invalidated in the same
	// transaction, so a login or privilege change always rotates the
	// token and the old one never stays usable.
	Create(ctx context.Context, p authz.Principal) (*Record, error)

	// Resolve returns the record behind a token, or ErrUnauthenticated
	// when the token is missing, unknown, or expired.
	Resolve(ctx context.Context, token string) (*Record, error)

	// Invalidate removes the session. Invalidating an already-gone
	// token is not an error.
	Invalidate(ctx context.Context, token string) error
}

type manager struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	newToken func() (string, error)
	now      func() time.Time
}

func NewManager(rdb *redis.Client, logger ...*zap.Logger) Manager {
	l := zap.L().Named("session.manager")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("session.manager")
	}
	return &manager{
		rdb:      rdb,
		ttl:      DefaultTTL,
		logger:   l,
		newToken: generateToken,
		now:      time.Now,
	}
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func userKey(userID string) string {
	return userKeyPrefix + userID
}

func (m *manager) Create(ctx context.Context, p authz.Principal) (*Record, error) {
	token, err := m.newToken()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError, "Could not create session", 500)
	}
	csrf, err := m.newToken()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError, "Could not create session", 500)
	}

	rec := &Record{
		Token:     token,
		CSRFToken: csrf,
		Principal: p,
		CreatedAt: m.now().UTC(),
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	oldToken, err := m.rdb.Get(ctx, userKey(p.UserID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	// One MULTI/EXEC: the old token dies and the new one becomes valid
	// atomically, so there is never a window with both alive.
	_, err = m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if oldToken != "" && oldToken != token {
			pipe.Del(ctx, sessionKey(oldToken))
		}
		pipe.Set(ctx, sessionKey(token), payload, m.ttl)
		pipe.Set(ctx, userKey(p.UserID), token, m.ttl)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("session created",
		zap.String("user_id", p.UserID),
		zap.Bool("rotated", oldToken != ""),
	)

	return rec, nil
}

func (m *manager) Resolve(ctx context.Context, token string) (*Record, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	val, err := m.rdb.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		m.logger.Error("corrupt session record", zap.Error(err))
		return nil, ErrUnauthenticated
	}
	rec.Token = token

	return &rec, nil
}

func (m *manager) Invalidate(ctx context.Context, token string) error {
	rec, err := m.Resolve(ctx, token)
	if errors.Is(err, ErrUnauthenticated) {
		return nil
	}
	if err != nil {
		return err
	}

	uk := userKey(rec.Principal.UserID)
	current, err := m.rdb.Get(ctx, uk).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	_, err = m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(token))
		// Only drop the user index when it still points at this token;
		// a rotation may already have replaced it.
		if current == token {
			pipe.Del(ctx, uk)
		}
		return nil
	})
	return err
}
