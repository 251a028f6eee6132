package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"charterbus/utils"
)

// Provider names accepted by AuthorizeURL.
const (
	ProviderGoogle = "google"
	ProviderKakao  = "kakao"
)

// IdentityUser is the profile the identity provider reports for a
// signed-in user.
type IdentityUser struct {
	ID       string                 `json:"id"`
	Email    string                 `json:"email"`
	Phone    string                 `json:"phone"`
	Metadata map[string]interface{} `json:"user_metadata"`
	AppMeta  struct {
		Provider string `json:"provider"`
	} `json:"app_metadata"`
}

// TokenPair is the provider's access/refresh token grant.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// IdentityClient talks to the hosted identity provider. Sign-in is
// OAuth only; there are no local credentials anywhere in this service.
type IdentityClient struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func NewIdentityClient(baseURL, anonKey string) *IdentityClient {
	return &IdentityClient{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func NewIdentityClientWithHTTP(baseURL, anonKey string, hc *http.Client) *IdentityClient {
	return &IdentityClient{baseURL: baseURL, anonKey: anonKey, httpClient: hc}
}

// AuthorizeURL builds the provider redirect for an OAuth sign-in.
func (c *IdentityClient) AuthorizeURL(provider, redirectTo string) (string, error) {
	if provider != ProviderGoogle && provider != ProviderKakao {
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}
	q := url.Values{}
	q.Set("provider", provider)
	q.Set("redirect_to", redirectTo)
	return c.baseURL + "/auth/v1/authorize?" + q.Encode(), nil
}

func (c *IdentityClient) do(ctx context.Context, method, path, bearer string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		utils.LogExternalAPI(utils.ExternalCall{
			Provider: "identity", Endpoint: path,
			DurationMs: time.Since(start).Milliseconds(), Err: err,
		})
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	utils.LogExternalAPI(utils.ExternalCall{
		Provider: "identity", Endpoint: path, StatusCode: resp.StatusCode,
		DurationMs: time.Since(start).Milliseconds(),
	})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("identity provider: %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

// ExchangeCode trades the OAuth callback code for a token grant.
func (c *IdentityClient) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	var pair TokenPair
	body := map[string]string{"auth_code": code}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=pkce", "", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// GetUser fetches the profile behind an access token.
func (c *IdentityClient) GetUser(ctx context.Context, accessToken string) (*IdentityUser, error) {
	var user IdentityUser
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RefreshToken exchanges a refresh token for a new grant.
func (c *IdentityClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// SignOut revokes the grant at the provider.
func (c *IdentityClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}
