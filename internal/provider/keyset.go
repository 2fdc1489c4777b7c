// File: internal/provider/keyset.go
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-jose/go-jose/v4"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const maxProviderBodyBytes = 1 << 20

// ErrKeyNotFound means the key set holds no key for the requested key id, even after a refresh.
var ErrKeyNotFound = errors.New("signing key not found in provider key set")

// KeySource fetches the provider's current published key set.
type KeySource interface {
	FetchKeySet(ctx context.Context) (*jose.JSONWebKeySet, error)
}

// KeySetCache holds provider signing keys by key id for the life of the process.
// It has no expiry; an unknown key id triggers exactly one refresh.
type KeySetCache struct {
	source KeySource
	logger *zap.Logger

	mu   sync.RWMutex
	keys map[string]jose.JSONWebKey
}

func NewKeySetCache(source KeySource, logger *zap.Logger) *KeySetCache {
	return &KeySetCache{
		source: source,
		logger: logger.Named("KeySetCache"),
		keys:   make(map[string]jose.JSONWebKey),
	}
}

// Key returns the public key for kid, refreshing the cached set once when kid is unknown.
func (c *KeySetCache) Key(ctx context.Context, kid string) (*jose.JSONWebKey, error) {
	if key, ok := c.lookup(kid); ok {
		return key, nil
	}

	c.logger.Info("Key id not cached, refreshing provider key set", zap.String("kid", kid))
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	if key, ok := c.lookup(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

// Refresh replaces the cached keys with the provider's current set. Concurrent refreshes
// are harmless: each one stores the same published state.
func (c *KeySetCache) Refresh(ctx context.Context) error {
	set, err := c.source.FetchKeySet(ctx)
	if err != nil {
		c.logger.Error("Failed to fetch provider key set", zap.Error(err))
		return err
	}

	keys := make(map[string]jose.JSONWebKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.KeyID == "" || !k.Valid() {
			continue
		}
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		// Symmetric keys have no public half and are never accepted.
		pub := k.Public()
		if pub.Key == nil {
			continue
		}
		keys[k.KeyID] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()

	c.logger.Debug("Provider key set refreshed", zap.Int("keys", len(keys)))
	return nil
}

// Len reports how many keys are cached.
func (c *KeySetCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

func (c *KeySetCache) lookup(kid string) (*jose.JSONWebKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.keys[kid]
	if !ok {
		return nil, false
	}
	return &key, true
}

// HTTPKeySource locates the key set through the discovery document unless a key set URL
// is configured directly. Discovery is re-read on every fetch so a moved jwks_uri is followed.
type HTTPKeySource struct {
	DiscoveryURL string
	JWKSURL      string
	Client       *http.Client
}

func (s *HTTPKeySource) FetchKeySet(ctx context.Context) (*jose.JSONWebKeySet, error) {
	jwksURL := s.JWKSURL
	if jwksURL == "" {
		var err error
		if jwksURL, err = s.discoverJWKSURL(ctx); err != nil {
			return nil, err
		}
	}

	body, err := s.get(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("decode key set from %s: %w", jwksURL, err)
	}
	return &set, nil
}

func (s *HTTPKeySource) discoverJWKSURL(ctx context.Context) (string, error) {
	if s.DiscoveryURL == "" {
		return "", errors.New("no discovery document or key set URL configured")
	}
	body, err := s.get(ctx, s.DiscoveryURL)
	if err != nil {
		return "", fmt.Errorf("fetch discovery document: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("discovery document at %s is not valid JSON", s.DiscoveryURL)
	}
	for _, field := range []string{"jwks_uri", "jwksUri"} {
		if v := gjson.GetBytes(body, field); v.Type == gjson.String && v.String() != "" {
			return v.String(), nil
		}
	}
	return "", fmt.Errorf("discovery document at %s has no jwks_uri", s.DiscoveryURL)
}

func (s *HTTPKeySource) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return body, nil
}
