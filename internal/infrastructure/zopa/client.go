package zopa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	authorizePath  = "/oauth/authorize"
	tokenPath      = "/oauth/token"
	accountPath    = "/lending/account"
	interestPath   = "/lending/interest-payments"
	dateFormat     = "2006-01-02"
)

// Client handles communication with the Zopa lending API
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	redirectURI  string
	baseURL      string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Zopa API client
func NewClient(clientID, clientSecret, redirectURI, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
	}
}

// Token is an OAuth token pair from Zopa
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ExpiresAt converts the relative expiry to an absolute timestamp
func (t *Token) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Account summarizes the lending account
type Account struct {
	AccountID     string  `json:"account_id"`
	TotalInvested float64 `json:"total_invested"`
	TotalEarned   float64 `json:"total_earned"`
	CurrentRate   float64 `json:"current_rate"`
}

// InterestPayment is one interest credit to the lending account
type InterestPayment struct {
	PaymentID   string  `json:"payment_id"`
	Amount      float64 `json:"amount"`
	Rate        float64 `json:"rate"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

// GetDate parses the payment date
func (p *InterestPayment) GetDate() (time.Time, error) {
	parsed, err := time.Parse(dateFormat, p.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", p.Date, err)
	}
	return parsed, nil
}

type interestResponse struct {
	Payments []InterestPayment `json:"payments"`
}

// AuthURL builds the user-facing consent URL for the OAuth link flow
func (c *Client) AuthURL(state string) string {
	params := url.Values{}
	params.Add("response_type", "code")
	params.Add("client_id", c.clientID)
	params.Add("redirect_uri", c.redirectURI)
	params.Add("scope", "lending.read")
	params.Add("state", state)

	return c.baseURL + authorizePath + "?" + params.Encode()
}

// ExchangeCode trades an authorization code for a token pair
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("redirect_uri", c.redirectURI)
	data.Set("code", code)

	return c.requestToken(ctx, data)
}

// RefreshToken trades a refresh token for a fresh token pair
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("refresh_token", refreshToken)

	return c.requestToken(ctx, data)
}

func (c *Client) requestToken(ctx context.Context, data url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &token, nil
}

// GetAccount fetches the lending account summary
func (c *Client) GetAccount(ctx context.Context, accessToken string) (*Account, error) {
	var account Account
	if err := c.getJSON(ctx, accessToken, accountPath, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListInterestPayments fetches interest payments from a start date
func (c *Client) ListInterestPayments(ctx context.Context, accessToken string, from time.Time) ([]InterestPayment, error) {
	var out interestResponse
	path := interestPath + "?from=" + from.Format(dateFormat)
	if err := c.getJSON(ctx, accessToken, path, &out); err != nil {
		return nil, err
	}
	return out.Payments, nil
}

func (c *Client) getJSON(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("zopa API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
