package firebase

import (
	"context"
	"errors"
	"testing"

	"identity_bridge_backend/internal/config"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockAuthClient struct {
	mock.Mock
}

func (m *MockAuthClient) CustomTokenWithClaims(ctx context.Context, uid string, devClaims map[string]interface{}) (string, error) {
	args := m.Called(ctx, uid, devClaims)
	return args.String(0), args.Error(1)
}

func (m *MockAuthClient) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Token), args.Error(1)
}

func TestNewFirebaseService_NotRequired(t *testing.T) {
	svc, err := NewFirebaseService(&config.Config{ProfileStore: config.StoreRedis, SessionMinter: config.MinterJWT}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, svc)
	assert.Nil(t, svc.Firestore())
	svc.Close()
}

func TestFirebaseService_Mint(t *testing.T) {
	client := new(MockAuthClient)
	svc := &FirebaseService{authClient: client, logger: zap.NewNop()}
	ctx := context.Background()
	claims := map[string]interface{}{"provider": "vk"}

	client.On("CustomTokenWithClaims", ctx, "vk_123", claims).Return("custom-token", nil).Once()
	token, err := svc.Mint(ctx, "vk_123", claims)
	require.NoError(t, err)
	assert.Equal(t, "custom-token", token)

	client.On("CustomTokenWithClaims", ctx, "vk_456", claims).Return("", errors.New("signer unavailable")).Once()
	_, err = svc.Mint(ctx, "vk_456", claims)
	assert.Error(t, err)
	client.AssertExpectations(t)
}

func TestFirebaseService_VerifySession(t *testing.T) {
	client := new(MockAuthClient)
	svc := &FirebaseService{authClient: client, logger: zap.NewNop()}
	ctx := context.Background()

	client.On("VerifyIDToken", ctx, "good").Return(&auth.Token{UID: "vk_123"}, nil)
	client.On("VerifyIDToken", ctx, "bad").Return(nil, errors.New("expired"))

	uid, err := svc.VerifySession(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "vk_123", uid)

	_, err = svc.VerifySession(ctx, "bad")
	assert.Error(t, err)

	_, err = svc.VerifySession(ctx, "")
	assert.Error(t, err)
}

func TestFirebaseService_NilSafe(t *testing.T) {
	var svc *FirebaseService
	_, err := svc.Mint(context.Background(), "vk_1", nil)
	assert.Error(t, err)
	_, err = svc.VerifySession(context.Background(), "x")
	assert.Error(t, err)
}
