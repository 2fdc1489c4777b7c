package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"identity_bridge_backend/internal/common"
	"identity_bridge_backend/internal/config"
	"identity_bridge_backend/internal/identity"
	"identity_bridge_backend/internal/profile"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifySession(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, userID string) (*profile.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Record), args.Error(1)
}

func (m *MockStore) Set(ctx context.Context, userID string, fields profile.Fields, opts profile.SetOptions) error {
	return m.Called(ctx, userID, fields, opts).Error(0)
}

func newTestRouter(verifier *MockVerifier, store *MockStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(ZapLogger(zap.NewNop(), &config.Config{GinMode: "test"}))
	r.Use(ErrorHandler(zap.NewNop()))

	auth := SessionAuth(verifier, store, zap.NewNop())
	r.GET("/me", auth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": common.GetUserIDFromContext(c)})
	})
	r.GET("/admin", auth, AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/fails", func(c *gin.Context) {
		_ = c.Error(identity.Errorf(identity.KindStoreUnavailable, "db down"))
	})
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionAuth(t *testing.T) {
	verifier := new(MockVerifier)
	store := new(MockStore)
	r := newTestRouter(verifier, store)

	verifier.On("VerifySession", mock.Anything, "good").Return("vk_1", nil)
	verifier.On("VerifySession", mock.Anything, "orphan").Return("vk_2", nil)
	verifier.On("VerifySession", mock.Anything, "broken").Return("vk_3", nil)
	verifier.On("VerifySession", mock.Anything, "bad").Return("", errors.New("expired"))
	store.On("Get", mock.Anything, "vk_1").Return(&profile.Record{Email: "a@b.com"}, nil)
	store.On("Get", mock.Anything, "vk_2").Return(nil, profile.ErrNotFound)
	store.On("Get", mock.Anything, "vk_3").Return(nil, errors.New("timeout"))

	w := do(r, http.MethodGet, "/me", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID":"vk_1"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "bad").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "orphan").Code)

	w = do(r, http.MethodGet, "/me", "broken")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"StoreUnavailable","details":"profile store read failed"}`, w.Body.String())
}

func TestAdminOnly_ReadsStoredFlag(t *testing.T) {
	verifier := new(MockVerifier)
	store := new(MockStore)
	r := newTestRouter(verifier, store)

	verifier.On("VerifySession", mock.Anything, "admin").Return("vk_admin", nil)
	verifier.On("VerifySession", mock.Anything, "user").Return("vk_user", nil)
	store.On("Get", mock.Anything, "vk_admin").Return(&profile.Record{IsAdmin: true}, nil)
	store.On("Get", mock.Anything, "vk_user").Return(&profile.Record{IsAdmin: false}, nil)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", "admin").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", "user").Code)
}

func TestErrorHandler(t *testing.T) {
	r := newTestRouter(new(MockVerifier), new(MockStore))

	w := do(r, http.MethodGet, "/fails", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"StoreUnavailable","details":"db down"}`, w.Body.String())

	w = do(r, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"NotFound"`)

	w = do(r, http.MethodPost, "/me", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"MethodNotAllowed"`)
}

func TestZapLogger_KeepsIncomingRequestID(t *testing.T) {
	r := newTestRouter(new(MockVerifier), new(MockStore))
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestZapLogger_RecordsErrorCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(ZapLogger(zap.New(core), &config.Config{GinMode: "release"}))
	r.Use(ErrorHandler(zap.NewNop()))
	r.GET("/fails", func(c *gin.Context) {
		_ = c.Error(identity.Errorf(identity.KindSignatureInvalid, "bad kid"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fails?access_token=secret", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	entries := logs.FilterMessage("Client error").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "SignatureInvalid", fields["error_code"])
		assert.Equal(t, "/fails", fields["path"])
		assert.NotContains(t, fields, "query")
	}
}
