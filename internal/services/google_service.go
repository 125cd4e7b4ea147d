package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// GoogleIdentity — утверждённая Google личность из проверенного ID-токена.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// KeyProvider отдаёт набор ключей для проверки подписи ID-токена.
type KeyProvider interface {
	Keys(ctx context.Context) (jwk.Set, error)
}

// GoogleService проверяет ID-токены Google: подпись по JWKS, audience,
// срок действия, issuer. Результат проверки — закрытый набор ошибок,
// вызывающий код переключается по errors.Is, а не по тексту.
type GoogleService struct {
	keys     KeyProvider
	audience string
}

func NewGoogleService(clientID string) *GoogleService {
	return &GoogleService{
		keys:     newJWKSCache(googleJWKSURL, time.Hour),
		audience: clientID,
	}
}

// NewGoogleServiceWithKeys — вариант с внешним источником ключей (для тестов).
func NewGoogleServiceWithKeys(clientID string, keys KeyProvider) *GoogleService {
	return &GoogleService{keys: keys, audience: clientID}
}

func (s *GoogleService) Verify(ctx context.Context, raw string) (*GoogleIdentity, error) {
	keys, err := s.keys.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("google keys: %w", err)
	}

	token, err := jwt.Parse([]byte(raw),
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	// audience и issuer проверяем сами: наружу уходит закрытый набор ошибок
	audOK := false
	for _, aud := range token.Audience() {
		if aud == s.audience {
			audOK = true
			break
		}
	}
	if !audOK {
		return nil, ErrAudienceMismatch
	}

	// Google подписывает ID-токены обоими вариантами issuer.
	if iss := token.Issuer(); iss != "https://accounts.google.com" && iss != "accounts.google.com" {
		return nil, ErrTokenMalformed
	}

	ident := &GoogleIdentity{Subject: token.Subject()}
	if v, ok := token.Get("email"); ok {
		ident.Email, _ = v.(string)
	}
	if ident.Email == "" {
		return nil, ErrMissingEmail
	}
	if v, ok := token.Get("name"); ok {
		ident.Name, _ = v.(string)
	}
	if v, ok := token.Get("picture"); ok {
		ident.Picture, _ = v.(string)
	}
	return ident, nil
}

// jwksCache кэширует набор ключей с одного URL на заданный TTL.
type jwksCache struct {
	url string
	ttl time.Duration

	mu      sync.RWMutex
	keys    jwk.Set
	expires time.Time
}

func newJWKSCache(url string, ttl time.Duration) *jwksCache {
	return &jwksCache{url: url, ttl: ttl}
}

func (c *jwksCache) Keys(ctx context.Context) (jwk.Set, error) {
	c.mu.RLock()
	if c.keys != nil && time.Now().Before(c.expires) {
		keys := c.keys
		c.mu.RUnlock()
		return keys, nil
	}
	c.mu.RUnlock()

	keys, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.keys = keys
	c.expires = time.Now().Add(c.ttl)
	c.mu.Unlock()

	return keys, nil
}

func (c *jwksCache) fetch(ctx context.Context) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}

	keys, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	return keys, nil
}
