package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	defaultTimeout = 15 * time.Second
	pricePath      = "/simple/price"

	// A scan pass prices the same token once per wallet; the cache keeps
	// that to one upstream call per token per pass.
	cacheTTL = 5 * time.Minute
)

// coinIDs maps token symbols to CoinGecko coin ids. Symbols outside this
// table price at zero rather than failing the scan.
var coinIDs = map[string]string{
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"BNB":   "binancecoin",
	"MATIC": "matic-network",
}

type cachedPrice struct {
	price   float64
	fetched time.Time
}

// Client fetches GBP spot prices from CoinGecko
type Client struct {
	httpClient *http.Client
	baseURL    string
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]cachedPrice
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new price feed client
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: defaultBaseURL,
		now:     time.Now,
		cache:   make(map[string]cachedPrice),
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint (tests)
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// PriceGBP returns the GBP spot price for a token symbol. Unknown symbols
// return zero with no error; transport failures return the error so the
// caller can log and degrade.
func (c *Client) PriceGBP(ctx context.Context, symbol string) (float64, error) {
	coinID, ok := coinIDs[strings.ToUpper(symbol)]
	if !ok {
		return 0, nil
	}

	c.mu.Lock()
	if cached, ok := c.cache[coinID]; ok && c.now().Sub(cached.fetched) < cacheTTL {
		c.mu.Unlock()
		return cached.price, nil
	}
	c.mu.Unlock()

	url := fmt.Sprintf("%s%s?ids=%s&vs_currencies=gbp", c.baseURL, pricePath, coinID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("coingecko API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// Response shape: {"ethereum":{"gbp":1234.56}}
	var prices map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return 0, fmt.Errorf("failed to decode price response: %w", err)
	}

	price := prices[coinID]["gbp"]

	c.mu.Lock()
	c.cache[coinID] = cachedPrice{price: price, fetched: c.now()}
	c.mu.Unlock()

	return price, nil
}
