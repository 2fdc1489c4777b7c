package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	"identity_bridge_backend/internal/config"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// authClient is the part of *auth.Client used here.
type authClient interface {
	CustomTokenWithClaims(ctx context.Context, uid string, devClaims map[string]interface{}) (string, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseService wraps the Firebase Admin SDK: custom-token minting, ID-token
// verification and the Firestore client for the profile store.
type FirebaseService struct {
	authClient authClient
	firestore  *firestore.Client
	logger     *zap.Logger
}

// NewFirebaseService initializes the Firebase Admin SDK. It returns (nil, nil) when no
// configured component uses Firebase.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	logger = logger.Named("FirebaseService")
	if !cfg.FirebaseRequired() {
		logger.Info("Firebase not required by the configured store and session minter; skipping initialization")
		return nil, nil
	}
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	// A nil config lets the SDK infer the project from the credentials.
	ctx := context.Background()
	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	svc := &FirebaseService{logger: logger}

	if cfg.SessionMinter == config.MinterFirebase {
		client, err := app.Auth(ctx)
		if err != nil {
			logger.Error("Failed to get Firebase Auth client", zap.Error(err))
			return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
		}
		svc.authClient = client
	}

	if cfg.ProfileStore == config.StoreFirestore {
		fs, err := app.Firestore(ctx)
		if err != nil {
			logger.Error("Failed to get Firestore client", zap.Error(err))
			return nil, fmt.Errorf("error getting Firestore client: %w", err)
		}
		svc.firestore = fs
	}

	logger.Info("Firebase Admin SDK initialized successfully.",
		zap.Bool("auth", svc.authClient != nil),
		zap.Bool("firestore", svc.firestore != nil))
	return svc, nil
}

// Firestore returns the Firestore client, or nil when Firestore is not the profile store.
func (s *FirebaseService) Firestore() *firestore.Client {
	if s == nil {
		return nil
	}
	return s.firestore
}

// Mint signs a custom token for uid carrying claims as developer claims.
func (s *FirebaseService) Mint(ctx context.Context, uid string, claims map[string]interface{}) (string, error) {
	if s == nil || s.authClient == nil {
		return "", fmt.Errorf("firebase auth is not initialized")
	}
	token, err := s.authClient.CustomTokenWithClaims(ctx, uid, claims)
	if err != nil {
		s.logger.Error("Failed to create Firebase custom token", zap.Error(err), zap.String("uid", uid))
		return "", fmt.Errorf("error creating custom token: %w", err)
	}
	return token, nil
}

// VerifySession verifies a Firebase ID token and returns its uid.
func (s *FirebaseService) VerifySession(ctx context.Context, idToken string) (string, error) {
	if s == nil || s.authClient == nil {
		return "", fmt.Errorf("firebase auth is not initialized")
	}
	if idToken == "" {
		return "", fmt.Errorf("ID token must not be empty")
	}

	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return "", fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}

	s.logger.Debug("Firebase ID token verified successfully", zap.String("uid", token.UID))
	return token.UID, nil
}

// Close releases the Firestore client.
func (s *FirebaseService) Close() {
	if s == nil || s.firestore == nil {
		return
	}
	if err := s.firestore.Close(); err != nil {
		s.logger.Error("Error closing Firestore client", zap.Error(err))
	}
}
