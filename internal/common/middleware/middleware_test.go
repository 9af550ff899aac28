package middleware

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweet-giveaway-backend/internal/common/errors"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/", handlers...)
	return r
}

func TestAuthenticateSetsIdentity(t *testing.T) {
	var got Identity
	r := newRouter(Authenticate(testSecret, ""), RequireAuth(), func(c *gin.Context) {
		got, _ = GetIdentity(c)
		c.Status(http.StatusOK)
	})

	token := signToken(t, jwt.MapClaims{
		"sub":    "u-42",
		"handle": "alice",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}, jwt.SigningMethodHS256)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Identity{ID: "u-42", Handle: "alice"}, got)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{
			name: "expired",
			header: "Bearer " + signToken(t, jwt.MapClaims{
				"sub": "u-1",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}, jwt.SigningMethodHS256),
		},
		{
			name:   "missing subject",
			header: "Bearer " + signToken(t, jwt.MapClaims{"handle": "bob"}, jwt.SigningMethodHS256),
		},
		{
			name:   "wrong algorithm",
			header: "Bearer " + signToken(t, jwt.MapClaims{"sub": "u-1"}, jwt.SigningMethodHS512),
		},
		{
			name:   "garbage",
			header: "Bearer not-a-jwt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(Authenticate(testSecret, ""), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireAuthWithoutToken(t *testing.T) {
	r := newRouter(Authenticate(testSecret, ""), RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseIdentityIssuer(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "u-1", "iss": "other"}, jwt.SigningMethodHS256)

	_, err := ParseIdentity(token, []byte(testSecret), "auth.example.com")
	assert.Error(t, err)

	id, err := ParseIdentity(token, []byte(testSecret), "other")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.ID)
}

func TestParseIdentityRejectsEmptyKey(t *testing.T) {
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "victim-creator",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(""))
	require.NoError(t, err)

	_, err = ParseIdentity(forged, nil, "")
	assert.Error(t, err)

	r := newRouter(Authenticate("", ""), RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseIdentityHandle(t *testing.T) {
	longSub := strings.Repeat("s", 128)
	tests := []struct {
		name    string
		claims  jwt.MapClaims
		want    string
		wantErr bool
	}{
		{name: "at prefix stripped", claims: jwt.MapClaims{"sub": "u-1", "handle": "@alice"}, want: "alice"},
		{name: "subject used as handle", claims: jwt.MapClaims{"sub": "bob_42"}, want: "bob_42"},
		{name: "long subject not used", claims: jwt.MapClaims{"sub": longSub}, want: ""},
		{name: "invalid handle", claims: jwt.MapClaims{"sub": "u-1", "handle": "not a handle"}, wantErr: true},
		{name: "handle too long", claims: jwt.MapClaims{"sub": "u-1", "handle": strings.Repeat("h", 64)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseIdentity(signToken(t, tt.claims, jwt.SigningMethodHS256), []byte(testSecret), "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.Handle)
			assert.LessOrEqual(t, len(id.Handle), 64)
		})
	}
}

func TestRespondErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{errors.NewGiveawayNotFoundError("g1"), http.StatusNotFound},
		{errors.NewDuplicateIDError("g1"), http.StatusConflict},
		{errors.NewDuplicateClaimError("g1"), http.StatusConflict},
		{errors.NewValidationError("token", "required"), http.StatusBadRequest},
		{errors.NewInvalidProofFormatError("x"), http.StatusBadRequest},
		{errors.NewCapacityReachedError("g1", 1), http.StatusUnprocessableEntity},
		{errors.NewKeywordsMissingError([]string{"win"}), http.StatusUnprocessableEntity},
		{errors.NewProofFetchFailedError("1", stderrors.New("timeout")), http.StatusBadGateway},
		{stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		r := newRouter(func(c *gin.Context) { RespondError(c, tt.err) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
	}
}

func TestRespondErrorHidesInternalCause(t *testing.T) {
	r := newRouter(func(c *gin.Context) {
		RespondError(c, errors.NewInternalError("insert claim", stderrors.New("pq: password authentication failed")))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, errors.ErrCodeInternal, resp.Error.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	r := newRouter(func(c *gin.Context) { panic("unexpected") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "unexpected")
}

type stubLimiter struct {
	allowed bool
	err     error
	calls   int
	subject string
}

func (s *stubLimiter) Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (bool, time.Duration, error) {
	s.calls++
	s.subject = subject
	return s.allowed, 30 * time.Second, s.err
}

func TestRateLimit(t *testing.T) {
	t.Run("blocks when limit exceeded", func(t *testing.T) {
		limiter := &stubLimiter{allowed: false}
		r := newRouter(RateLimit(limiter, "claim", 1, time.Minute), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "30", w.Header().Get("Retry-After"))
	})

	t.Run("fails open on limiter error", func(t *testing.T) {
		limiter := &stubLimiter{err: stderrors.New("redis down")}
		r := newRouter(RateLimit(limiter, "claim", 1, time.Minute), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, limiter.calls)
	})

	t.Run("keys by identity", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}
		token := signToken(t, jwt.MapClaims{"sub": "u-9"}, jwt.SigningMethodHS256)
		r := newRouter(Authenticate(testSecret, ""), RateLimit(limiter, "claim", 5, time.Minute), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u-9", limiter.subject)
	})
}
