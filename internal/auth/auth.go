// Package auth is the thin bearer/JWT verification adapter (spec.md
// §6 Authentication): every inbound chat/selection/save request
// carries a bearer token, validated here and forwarded verbatim to
// tool dispatches. HTTP routing and the external identity provider
// itself stay out of scope; this package only decides whether a
// token is valid and which user it names.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrAuthDisabled = errors.New("auth disabled")
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidKey   = errors.New("invalid api key")
)

// Identity is the user named by a validated credential.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// Config configures the Service.
type Config struct {
	JWTSecret   string
	TokenExpiry time.Duration
	APIKeys     []APIKeyConfig
}

// APIKeyConfig declares a static API key and the identity it names,
// for service-to-service calls that bypass the identity provider.
type APIKeyConfig struct {
	Key    string
	UserID string
	Email  string
	Name   string
}

// Service validates bearer tokens (JWT or static API key) against
// the configured identity material.
type Service struct {
	mu      sync.RWMutex
	jwt     *JWTService
	apiKeys map[string]Identity
}

// NewService constructs a Service from static configuration.
func NewService(cfg Config) *Service {
	service := &Service{}
	if strings.TrimSpace(cfg.JWTSecret) != "" {
		service.jwt = NewJWTService(cfg.JWTSecret, cfg.TokenExpiry)
	}
	service.apiKeys = buildAPIKeyMap(cfg.APIKeys)
	return service
}

// Enabled reports whether any verification method is configured.
func (s *Service) Enabled() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jwt != nil || len(s.apiKeys) > 0
}

// GenerateJWT issues a signed token naming the given identity.
func (s *Service) GenerateJWT(identity Identity) (string, error) {
	if s == nil {
		return "", ErrAuthDisabled
	}
	s.mu.RLock()
	jwtSvc := s.jwt
	s.mu.RUnlock()
	if jwtSvc == nil {
		return "", ErrAuthDisabled
	}
	return jwtSvc.Generate(identity)
}

// Validate verifies a bearer token (JWT first, then static API key)
// and returns the identity it names.
func (s *Service) Validate(token string) (Identity, error) {
	if s == nil {
		return Identity{}, ErrAuthDisabled
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	s.mu.RLock()
	jwtSvc := s.jwt
	apiKeys := s.apiKeys
	s.mu.RUnlock()

	if jwtSvc != nil {
		if identity, err := jwtSvc.Validate(token); err == nil {
			return identity, nil
		}
	}
	if len(apiKeys) > 0 {
		if identity, err := validateAPIKey(apiKeys, token); err == nil {
			return identity, nil
		}
	}
	if jwtSvc == nil && len(apiKeys) == 0 {
		return Identity{}, ErrAuthDisabled
	}
	return Identity{}, ErrInvalidToken
}

// validateAPIKey compares key against every configured key in
// constant time, to avoid leaking which keys are valid through
// timing.
func validateAPIKey(apiKeys map[string]Identity, key string) (Identity, error) {
	var matched Identity
	var found bool
	for storedKey, identity := range apiKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(storedKey)) == 1 {
			matched = identity
			found = true
		}
	}
	if !found {
		return Identity{}, ErrInvalidKey
	}
	return matched, nil
}

func buildAPIKeyMap(keys []APIKeyConfig) map[string]Identity {
	out := map[string]Identity{}
	for _, entry := range keys {
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			continue
		}
		userID := strings.TrimSpace(entry.UserID)
		if userID == "" {
			sum := sha256.Sum256([]byte(key))
			userID = "api_" + hex.EncodeToString(sum[:8])
		}
		out[key] = Identity{
			ID:    userID,
			Email: strings.TrimSpace(entry.Email),
			Name:  strings.TrimSpace(entry.Name),
		}
	}
	return out
}
