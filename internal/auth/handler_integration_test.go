package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"identity_bridge_backend/internal/config"
	"identity_bridge_backend/internal/identity"
	"identity_bridge_backend/internal/middleware"
	"identity_bridge_backend/internal/profile"
	"identity_bridge_backend/internal/provider"
	"identity_bridge_backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	itClientID     = "app-123"
	itClientSecret = "very-secret-value"
	itProvider     = "providerX"
)

// countingStore records how often the pipeline touched the profile store.
type countingStore struct {
	profile.Store
	gets atomic.Int32
	sets atomic.Int32
}

func (s *countingStore) Get(ctx context.Context, userID string) (*profile.Record, error) {
	s.gets.Add(1)
	return s.Store.Get(ctx, userID)
}

func (s *countingStore) Set(ctx context.Context, userID string, fields profile.Fields, opts profile.SetOptions) error {
	s.sets.Add(1)
	return s.Store.Set(ctx, userID, fields, opts)
}

// IntegrationTestSuite runs the federated login endpoint against a fake provider,
// an in-memory sqlite profile store and the HS256 session minter.
type IntegrationTestSuite struct {
	suite.Suite
	Router *gin.Engine
	Cfg    *config.Config
	Store  *countingStore
	JWT    *session.JWTService

	provider  *httptest.Server
	sqlDB     *sql.DB
	mu        sync.Mutex
	published []jose.JSONWebKey
	signKey   *rsa.PrivateKey
	tokenHits atomic.Int32
	jwksHits  atomic.Int32
	tokenFunc http.HandlerFunc
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.tokenHits.Store(0)
	s.jwksHits.Store(0)
	s.published = nil

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"jwks_uri": s.provider.URL + "/keys"})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		s.jwksHits.Add(1)
		s.mu.Lock()
		set := jose.JSONWebKeySet{Keys: append([]jose.JSONWebKey(nil), s.published...)}
		s.mu.Unlock()
		s.writeJSON(w, http.StatusOK, set)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		s.tokenHits.Add(1)
		s.tokenFunc(w, r)
	})
	s.provider = httptest.NewServer(mux)

	var err error
	s.signKey, err = rsa.GenerateKey(rand.Reader, 2048)
	s.Require().NoError(err)
	s.publish("k1", s.signKey)

	s.Cfg = &config.Config{
		ProviderName:               itProvider,
		ProviderDomain:             "provider.example",
		ProviderProfileURLTemplate: "https://provider.example/id%s",
		ProviderClientID:           itClientID,
		ProviderClientSecret:       itClientSecret,
		ProviderRedirectURI:        "https://app.example.com/callback",
		ProviderTokenURL:           s.provider.URL + "/token",
		ProviderIssuer:             s.provider.URL,
		ProviderAudience:           itClientID,
		ProviderTimeout:            5 * time.Second,
		SessionJWTSecret:           "session-secret",
		SessionJWTIssuer:           "identity_bridge_backend",
		SessionJWTLifetime:         time.Hour,
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	s.Require().NoError(err)
	s.sqlDB, err = db.DB()
	s.Require().NoError(err)
	s.sqlDB.SetMaxOpenConns(1)
	gormStore, err := profile.NewGormStore(db, "users", zap.NewNop())
	s.Require().NoError(err)
	s.Store = &countingStore{Store: gormStore}

	logger := zap.NewNop()
	redactor := identity.NewRedactor(s.Cfg.Secrets()...)
	registry := provider.NewRegistryFromConfig(s.Cfg, s.provider.Client(), redactor, logger)
	s.JWT = session.NewJWTService(s.Cfg.SessionJWTSecret, s.Cfg.SessionJWTIssuer, s.Cfg.SessionJWTLifetime, logger)

	svc := NewService(s.Cfg,
		registry,
		profile.NewReconciler(s.Store, s.Cfg, logger),
		session.NewIssuer(s.JWT, s.Cfg.ProviderName, logger),
		logger)

	s.Router = gin.New()
	s.Router.Use(middleware.ErrorHandler(logger))
	NewHandler(svc, redactor, logger).RegisterRoutes(s.Router.Group("/api/v1"))
}

func (s *IntegrationTestSuite) TearDownTest() {
	s.provider.Close()
	_ = s.sqlDB.Close()
}

func (s *IntegrationTestSuite) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *IntegrationTestSuite) publish(kid string, key *rsa.PrivateKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, jose.JSONWebKey{Key: &key.PublicKey, KeyID: kid, Algorithm: "RS256", Use: "sig"})
}

func (s *IntegrationTestSuite) signIDToken(key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	base := jwt.MapClaims{
		"iss": s.provider.URL,
		"aud": itClientID,
		"sub": "123",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		base[k] = v
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, base)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	s.Require().NoError(err)
	return signed
}

func (s *IntegrationTestSuite) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/federated", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *IntegrationTestSuite) decodeSession(w *httptest.ResponseRecorder) string {
	var resp LoginResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().NotEmpty(resp.SessionCredential)
	uid, err := s.JWT.VerifySession(context.Background(), resp.SessionCredential)
	s.Require().NoError(err)
	return uid
}

// Code exchange happy path.
func (s *IntegrationTestSuite) TestCodeExchangeCreatesProfile() {
	idToken := s.signIDToken(s.signKey, "k1", jwt.MapClaims{"email": "a@b.com"})
	s.tokenFunc = func(w http.ResponseWriter, r *http.Request) {
		s.NoError(r.ParseForm())
		s.Equal("abc", r.PostForm.Get("code"))
		s.Equal("d1", r.PostForm.Get("device_id"))
		s.Equal("authorization_code", r.PostForm.Get("grant_type"))
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "t",
			"token_type":   "bearer",
			"id_token":     idToken,
		})
	}

	w := s.post(`{"code":"abc","deviceId":"d1"}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("providerX_123", s.decodeSession(w))

	rec, err := s.Store.Get(context.Background(), "providerX_123")
	s.Require().NoError(err)
	s.Equal("a@b.com", rec.Email)
	s.True(rec.IsVerified)
	s.False(rec.IsAdmin)
	s.Equal("https://provider.example/id123", rec.ProfileURL)
	s.False(rec.CreatedAt.IsZero())

	// A repeat login converges on the same record without writing.
	setsBefore := s.Store.sets.Load()
	w = s.post(`{"code":"abc","deviceId":"d1"}`)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(setsBefore, s.Store.sets.Load())
}

// Missing credential.
func (s *IntegrationTestSuite) TestMissingCredentialTouchesNothing() {
	s.tokenFunc = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}

	w := s.post(`{}`)
	s.Equal(http.StatusBadRequest, w.Code)

	var body map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("MissingCredential", body["error"])
	s.EqualValues(0, s.tokenHits.Load())
	s.EqualValues(0, s.jwksHits.Load())
	s.EqualValues(0, s.Store.gets.Load())
	s.EqualValues(0, s.Store.sets.Load())
}

// Provider rejects the code.
func (s *IntegrationTestSuite) TestProviderRejectionWritesNoProfile() {
	s.tokenFunc = func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "code expired; client_secret=" + itClientSecret,
		})
	}

	w := s.post(`{"code":"stale"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), `"error":"ProviderRejected"`)
	s.NotContains(w.Body.String(), itClientSecret)
	s.EqualValues(1, s.tokenHits.Load(), "no retry on rejection")
	s.EqualValues(0, s.Store.sets.Load())
}

// Signed token with a rotated key.
func (s *IntegrationTestSuite) TestSignedTokenKeyRotation() {
	w := s.post(`{"signedToken":"` + s.signIDToken(s.signKey, "k1", nil) + `"}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.EqualValues(1, s.jwksHits.Load())

	rotated, err := rsa.GenerateKey(rand.Reader, 2048)
	s.Require().NoError(err)
	s.publish("k2", rotated)

	w = s.post(`{"signedToken":"` + s.signIDToken(rotated, "k2", jwt.MapClaims{"sub": "456"}) + `"}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("providerX_456", s.decodeSession(w))
	s.EqualValues(2, s.jwksHits.Load(), "one refresh for the unknown key id")

	rogue, err := rsa.GenerateKey(rand.Reader, 2048)
	s.Require().NoError(err)
	w = s.post(`{"signedToken":"` + s.signIDToken(rogue, "k3", nil) + `"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), `"error":"SignatureInvalid"`)
	s.EqualValues(3, s.jwksHits.Load())
}

func (s *IntegrationTestSuite) TestAmbiguousCredential() {
	w := s.post(`{"code":"abc","idToken":"a.b.c"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), `"error":"AmbiguousCredential"`)
}

func (s *IntegrationTestSuite) TestOversizedBody() {
	w := s.post(`{"code":"` + strings.Repeat("a", maxLoginBodyBytes) + `"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), `"error":"MissingCredential"`)
	s.EqualValues(0, s.tokenHits.Load())
}
