package truelayer

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
	defaultTimeout   = 30 * time.Second
	tokenPath        = "/connect/token"
	accountsPath     = "/data/v1/accounts"
	oauthScope       = "info accounts balance transactions offline_access"
	oauthProviders   = "uk-ob-all uk-oauth-all"
	transactionsDate = "2006-01-02"
)

// Client handles communication with the TrueLayer Data API
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	redirectURI  string
	authBaseURL  string
	apiBaseURL   string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new TrueLayer API client
func NewClient(clientID, clientSecret, redirectURI, authBaseURL, apiBaseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		authBaseURL:  strings.TrimSuffix(authBaseURL, "/"),
		apiBaseURL:   strings.TrimSuffix(apiBaseURL, "/"),
	}
}

// Token is an OAuth token pair from TrueLayer
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

// Account represents one bank account from the accounts endpoint
type Account struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Currency    string `json:"currency"`
	AccountNumber struct {
		Number   string `json:"number"`
		SortCode string `json:"sort_code"`
	} `json:"account_number"`
}

// Balance represents the current balance of one account
type Balance struct {
	Current   float64 `json:"current"`
	Available float64 `json:"available"`
	Currency  string  `json:"currency"`
}

// Transaction represents one transaction from the transactions endpoint
type Transaction struct {
	TransactionID   string  `json:"transaction_id"`
	Description     string  `json:"description"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	TransactionType string  `json:"transaction_type"` // "CREDIT" or "DEBIT"
	Timestamp       string  `json:"timestamp"`
}

// IsCredit reports whether the transaction moves money into the account
func (t *Transaction) IsCredit() bool {
	return strings.EqualFold(t.TransactionType, "CREDIT")
}

// GetDate parses the transaction timestamp
func (t *Transaction) GetDate() (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, t.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %w", t.Timestamp, err)
	}
	return parsed, nil
}

// TrueLayer wraps every data response in a results envelope
type accountsResponse struct {
	Results []Account `json:"results"`
}

type balanceResponse struct {
	Results []Balance `json:"results"`
}

type transactionsResponse struct {
	Results []Transaction `json:"results"`
}

// ErrorResponse is TrueLayer's error envelope
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// AuthURL builds the user-facing consent URL for the OAuth link flow
func (c *Client) AuthURL(state string) string {
	params := url.Values{}
	params.Add("response_type", "code")
	params.Add("client_id", c.clientID)
	params.Add("scope", oauthScope)
	params.Add("redirect_uri", c.redirectURI)
	params.Add("providers", oauthProviders)
	params.Add("state", state)

	return c.authBaseURL + "/?" + params.Encode()
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
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBaseURL+tokenPath, strings.NewReader(data.Encode()))
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

// ListAccounts fetches the accounts visible to an access token
func (c *Client) ListAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	var out accountsResponse
	if err := c.getJSON(ctx, accessToken, accountsPath, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// GetBalance fetches the current balance for one account
func (c *Client) GetBalance(ctx context.Context, accessToken, accountID string) (*Balance, error) {
	var out balanceResponse
	path := fmt.Sprintf("%s/%s/balance", accountsPath, url.PathEscape(accountID))
	if err := c.getJSON(ctx, accessToken, path, &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, fmt.Errorf("empty balance response for account %s", accountID)
	}
	return &out.Results[0], nil
}

// ListTransactions fetches transactions for one account from a start date
func (c *Client) ListTransactions(ctx context.Context, accessToken, accountID string, from time.Time) ([]Transaction, error) {
	var out transactionsResponse
	path := fmt.Sprintf("%s/%s/transactions?from=%s&to=%s",
		accountsPath,
		url.PathEscape(accountID),
		from.Format(transactionsDate),
		time.Now().Format(transactionsDate),
	)
	if err := c.getJSON(ctx, accessToken, path, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) getJSON(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path, nil)
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

	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("truelayer API error (status %d): %s: %s", resp.StatusCode, errResp.Error, errResp.ErrorDescription)
	}
	return fmt.Errorf("truelayer API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
