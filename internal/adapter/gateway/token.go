package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"pixbridge/internal/core/domain"
	"pixbridge/internal/core/ports"
	"pixbridge/pkg/apperror"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	tokenPath = "/v1/auth/token"
	// Tokens are refreshed this long before their reported expiry.
	tokenSafetyMargin = 5 * time.Minute
	// Applied when the exchange response omits expires_in.
	defaultTokenTTL = time.Hour
)

// TokenManager implements ports.TokenProvider. It caches the bearer token
// together with the credentials snapshot that produced it; any credential
// rotation invalidates the cache on the next GetToken.
type TokenManager struct {
	creds  ports.CredentialSource
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	issuedFor domain.Credentials
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(creds ports.CredentialSource, client *http.Client, log zerolog.Logger) *TokenManager {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenManager{
		creds:  creds,
		client: client,
		log:    log.With().Str("component", "token_manager").Logger(),
		now:    time.Now,
	}
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	ErrorDescription string `json:"error_description"`
}

// GetToken returns a valid bearer token, performing a client-credentials
// exchange when the cached one is absent, expired, or was issued for rotated
// credentials. Concurrent callers share a single exchange.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	creds, err := m.creds.Fetch(ctx)
	if err != nil {
		return "", err
	}
	if creds.Mode() != domain.DialectNew {
		return "", apperror.ErrGatewayNotConfigured()
	}

	m.mu.Lock()
	if m.token != "" && m.now().Before(m.expiresAt) && m.issuedFor == creds {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	// The flight key carries the credentials snapshot: during a rotation,
	// callers holding different credentials never share an exchange.
	key := fmt.Sprintf("%s\x00%s\x00%s", creds.BaseURL, creds.ClientID, creds.ClientSecret)
	v, err, _ := m.group.Do(key, func() (any, error) {
		return m.exchange(ctx, creds)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next GetToken exchanges afresh.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
}

func (m *TokenManager) exchange(ctx context.Context, creds domain.Credentials) (string, error) {
	body, err := json.Marshal(tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.BaseURL+tokenPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	m.log.Info().Msg("exchanging client credentials for token")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", apperror.ErrGatewayUnavailable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperror.ErrGatewayUnavailable(err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil || resp.StatusCode != http.StatusOK || tr.AccessToken == "" {
		m.log.Error().
			Int("status", resp.StatusCode).
			Str("description", tr.ErrorDescription).
			Msg("token exchange failed")
		return "", apperror.ErrGatewayAuth(tr.ErrorDescription, err)
	}

	ttl := defaultTokenTTL
	if tr.ExpiresIn > 0 {
		ttl = time.Duration(tr.ExpiresIn) * time.Second
	}

	m.mu.Lock()
	m.token = tr.AccessToken
	m.expiresAt = m.now().Add(ttl - tokenSafetyMargin)
	m.issuedFor = creds
	m.mu.Unlock()

	m.log.Info().Time("expires_at", m.expiresAt).Msg("token obtained")
	return tr.AccessToken, nil
}
