package common

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"identity_bridge_backend/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetails_DoesNotMutateSharedError(t *testing.T) {
	withDetails := ErrBadRequest.WithDetails("broken")

	assert.Equal(t, "broken", withDetails.Details)
	assert.Empty(t, ErrBadRequest.Details)
	assert.Equal(t, ErrBadRequest.StatusCode, withDetails.StatusCode)
}

func TestIsAPIError_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrForbidden)
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestRespondWithError_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("api error", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		RespondWithError(c, NewAPIError(http.StatusBadRequest, "MissingCredential", "none").WithDetails("no credential"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, map[string]string{"error": "MissingCredential", "details": "no credential"}, body)
	})

	t.Run("plain error hides text", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		RespondWithError(c, fmt.Errorf("client_secret=hunter2 leaked"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "hunter2")
		assert.JSONEq(t, `{"error":"InternalError"}`, w.Body.String())
	})
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{identity.Errorf(identity.KindMissingCredential, "none"), http.StatusBadRequest, "MissingCredential"},
		{identity.Errorf(identity.KindAmbiguousCredential, "two"), http.StatusBadRequest, "AmbiguousCredential"},
		{identity.Errorf(identity.KindInvalidSubject, "empty"), http.StatusBadRequest, "InvalidSubject"},
		{identity.Errorf(identity.KindProviderExchangeFailed, "down"), http.StatusBadRequest, "ProviderExchangeFailed"},
		{identity.Errorf(identity.KindProviderRejected, "invalid_grant"), http.StatusBadRequest, "ProviderRejected"},
		{identity.Errorf(identity.KindSignatureInvalid, "bad sig"), http.StatusBadRequest, "SignatureInvalid"},
		{fmt.Errorf("wrapped: %w", identity.Errorf(identity.KindStoreUnavailable, "db")), http.StatusInternalServerError, "StoreUnavailable"},
		{identity.Errorf(identity.KindIssuerUnavailable, "kms"), http.StatusInternalServerError, "IssuerUnavailable"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "InternalError"},
		{ErrForbidden, http.StatusForbidden, "Forbidden"},
	}
	for _, tt := range tests {
		apiErr := ToAPIError(tt.err)
		assert.Equal(t, tt.wantStatus, apiErr.StatusCode, tt.err.Error())
		assert.Equal(t, tt.wantCode, apiErr.Code, tt.err.Error())
	}
}

func TestGetTokenFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Basic abc":   "",
		"Bearer":      "",
		"Bearer a b":  "",
		"":            "",
	}
	for header, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			c.Request.Header.Set(AuthorizationHeader, header)
		}
		assert.Equal(t, want, GetTokenFromContext(c), "header %q", header)
	}
}
