// File: internal/provider/registry.go
package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"identity_bridge_backend/internal/config"
	"identity_bridge_backend/internal/identity"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const defaultClockLeeway = 30 * time.Second

// Verifier establishes the authenticity of one credential variant.
type Verifier interface {
	Verify(ctx context.Context, cred *identity.InboundCredential) (*identity.VerifiedIdentity, error)
}

// Registry dispatches a credential to the verifier registered for its kind and owns the
// process-wide key-set cache.
type Registry struct {
	provider  string
	verifiers map[identity.CredentialKind]Verifier
	keys      *KeySetCache
	logger    *zap.Logger
}

func NewRegistry(provider string, logger *zap.Logger) *Registry {
	return &Registry{
		provider:  provider,
		verifiers: make(map[identity.CredentialKind]Verifier),
		logger:    logger.Named("ProviderRegistry"),
	}
}

// Register binds kind to v, replacing any earlier registration.
func (r *Registry) Register(kind identity.CredentialKind, v Verifier) {
	r.verifiers[kind] = v
}

// Enabled reports whether a verifier is registered for kind.
func (r *Registry) Enabled(kind identity.CredentialKind) bool {
	_, ok := r.verifiers[kind]
	return ok
}

// Keys is the shared key-set cache, nil when signature verification is not configured.
func (r *Registry) Keys() *KeySetCache { return r.keys }

// Verify runs the verifier for cred.Kind and stamps the provider name on the result.
func (r *Registry) Verify(ctx context.Context, cred *identity.InboundCredential) (*identity.VerifiedIdentity, error) {
	v, ok := r.verifiers[cred.Kind]
	if !ok {
		r.logger.Warn("No verifier enabled for credential kind", zap.String("kind", string(cred.Kind)))
		return nil, identity.Errorf(identity.KindProviderExchangeFailed, "%s credentials are not supported by this provider", cred.Kind)
	}

	verified, err := v.Verify(ctx, cred)
	if err != nil {
		return nil, err
	}
	verified.Provider = r.provider
	return verified, nil
}

// NewHTTPClient returns the client used for all outbound provider calls.
func NewHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.ProviderTimeout}
}

// DiscoveryURL resolves the discovery document location from the issuer when not set.
func DiscoveryURL(cfg *config.Config) string {
	if cfg.ProviderDiscoveryURL != "" {
		return cfg.ProviderDiscoveryURL
	}
	if cfg.ProviderIssuer == "" {
		return ""
	}
	return strings.TrimRight(cfg.ProviderIssuer, "/") + "/.well-known/openid-configuration"
}

// NewRegistryFromConfig enables every strategy the configuration has endpoints for.
func NewRegistryFromConfig(cfg *config.Config, client *http.Client, redactor *identity.Redactor, logger *zap.Logger) *Registry {
	reg := NewRegistry(cfg.ProviderName, logger)

	var assertions *SignatureVerifier
	if cfg.ProviderIssuer != "" {
		reg.keys = NewKeySetCache(&HTTPKeySource{
			DiscoveryURL: DiscoveryURL(cfg),
			JWKSURL:      cfg.ProviderJWKSURL,
			Client:       client,
		}, logger)
		assertions = NewSignatureVerifier(cfg.ProviderIssuer, cfg.ProviderAudience, reg.keys, defaultClockLeeway, time.Now, logger)
		reg.Register(identity.CredentialSignedToken, assertions)
	}

	var introspect *IntrospectionVerifier
	if cfg.ProviderUserInfoURL != "" {
		introspect = NewIntrospectionVerifier(cfg.ProviderUserInfoURL, cfg.ProviderClientID, client, redactor, logger)
		reg.Register(identity.CredentialAccessToken, introspect)
	}

	if cfg.ProviderTokenURL != "" {
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ProviderClientID,
			ClientSecret: cfg.ProviderClientSecret,
			RedirectURL:  cfg.ProviderRedirectURI,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.ProviderTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		}
		reg.Register(identity.CredentialCode, NewCodeExchangeVerifier(oauthCfg, client, assertions, introspect, redactor, logger))
	}

	reg.logger.Info("Provider verifiers configured",
		zap.Bool("code", reg.Enabled(identity.CredentialCode)),
		zap.Bool("access_token", reg.Enabled(identity.CredentialAccessToken)),
		zap.Bool("signed_token", reg.Enabled(identity.CredentialSignedToken)))
	return reg
}
