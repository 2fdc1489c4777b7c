// File: internal/provider/exchange.go
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"identity_bridge_backend/internal/identity"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// CodeExchangeVerifier trades an authorization code for a token bundle and then verifies
// the identity the bundle carries.
type CodeExchangeVerifier struct {
	oauth      *oauth2.Config
	client     *http.Client
	assertions *SignatureVerifier
	introspect *IntrospectionVerifier
	redactor   *identity.Redactor
	logger     *zap.Logger
}

// NewCodeExchangeVerifier wires the follow-up verifiers; either may be nil when the
// provider does not support that path.
func NewCodeExchangeVerifier(
	oauth *oauth2.Config,
	client *http.Client,
	assertions *SignatureVerifier,
	introspect *IntrospectionVerifier,
	redactor *identity.Redactor,
	logger *zap.Logger,
) *CodeExchangeVerifier {
	return &CodeExchangeVerifier{
		oauth:      oauth,
		client:     client,
		assertions: assertions,
		introspect: introspect,
		redactor:   redactor,
		logger:     logger.Named("CodeExchangeVerifier"),
	}
}

// Verify handles the code credential variant.
func (v *CodeExchangeVerifier) Verify(ctx context.Context, cred *identity.InboundCredential) (*identity.VerifiedIdentity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.client)

	var opts []oauth2.AuthCodeOption
	if cred.DeviceID != "" {
		opts = append(opts, oauth2.SetAuthURLParam("device_id", cred.DeviceID))
	}

	token, err := v.oauth.Exchange(ctx, cred.Code, opts...)
	if err != nil {
		return nil, v.classifyExchangeError(err)
	}
	if token.AccessToken == "" {
		return nil, identity.Errorf(identity.KindProviderExchangeFailed, "token response has no access token")
	}

	if raw, _ := token.Extra("id_token").(string); raw != "" {
		if v.assertions != nil {
			return v.assertions.VerifyAssertion(ctx, raw)
		}
		// Without a key set the id_token is ignored, never read unverified.
		if v.introspect == nil {
			v.logger.Error("Token bundle carries an id_token but no key set is configured to verify it")
			return nil, identity.Errorf(identity.KindProviderExchangeFailed, "identity token cannot be verified")
		}
		v.logger.Debug("No key set configured, introspecting access token instead of the id_token")
		return v.introspect.Introspect(ctx, token.AccessToken)
	}

	if v.introspect != nil {
		v.logger.Debug("Token bundle has no id_token, introspecting access token")
		return v.introspect.Introspect(ctx, token.AccessToken)
	}
	return nil, identity.Errorf(identity.KindProviderExchangeFailed, "token response has no identity token")
}

func (v *CodeExchangeVerifier) classifyExchangeError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		status := 0
		if rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		if rErr.ErrorCode != "" {
			v.logger.Warn("Provider rejected authorization code",
				zap.Int("status", status),
				zap.String("error_code", rErr.ErrorCode))
			details := rErr.ErrorCode
			if rErr.ErrorDescription != "" {
				details += ": " + rErr.ErrorDescription
			}
			return identity.NewError(identity.KindProviderRejected, v.redactor.Redact(details), err)
		}
		v.logger.Error("Token endpoint returned an error status", zap.Int("status", status))
		return identity.NewError(identity.KindProviderExchangeFailed, fmt.Sprintf("token endpoint returned status %d", status), err)
	}

	v.logger.Error("Authorization code exchange failed", zap.Error(err))
	return identity.NewError(identity.KindProviderExchangeFailed, "token endpoint unreachable or returned a malformed response", err)
}
