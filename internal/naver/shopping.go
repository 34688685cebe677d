package naver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const shoppingSearchPath = "/v1/search/shop.json"

// MaxDisplay is the provider's hard cap on listings per search call.
const MaxDisplay = 100

// ShoppingConfig carries the open-API application credentials.
type ShoppingConfig struct {
	ClientID           string
	ClientSecret       string
	BaseURL            string
	RateLimitPerSecond int
	HTTPClient         *http.Client
}

// ShoppingClient searches the shopping index. It returns items exactly as
// the provider shapes them; markup stripping and category-path assembly are
// the caller's concern.
type ShoppingClient struct {
	cfg     ShoppingConfig
	limiter *limiter
}

func NewShoppingClient(cfg ShoppingConfig) (*ShoppingClient, error) {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("shopping credentials not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenAPIBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &ShoppingClient{cfg: cfg, limiter: newLimiter(cfg.RateLimitPerSecond)}, nil
}

// Close releases the client's rate-limit ticker.
func (c *ShoppingClient) Close() {
	c.limiter.stop()
}

// ShoppingItem is one ranked listing as the provider returns it. Title may
// carry inline emphasis markup; LPrice is the provider's price text.
type ShoppingItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Image     string `json:"image"`
	LPrice    string `json:"lprice"`
	MallName  string `json:"mallName"`
	ProductID string `json:"productId"`
	Category1 string `json:"category1"`
	Category2 string `json:"category2"`
	Category3 string `json:"category3"`
	Category4 string `json:"category4"`
}

// CategoryLevels returns the hierarchical category fields in order.
func (it ShoppingItem) CategoryLevels() []string {
	return []string{it.Category1, it.Category2, it.Category3, it.Category4}
}

// SearchResult is one page of shopping search results. Total is the
// aggregate match count for the query, independent of how many items were
// returned.
type SearchResult struct {
	Total int            `json:"total"`
	Start int            `json:"start"`
	Items []ShoppingItem `json:"items"`
}

type shoppingError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Search runs one relevance-sorted shopping query. display is clamped to
// [1, MaxDisplay].
func (c *ShoppingClient) Search(ctx context.Context, query string, display int) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, errors.New("empty query")
	}
	if display <= 0 {
		display = 20
	}
	if display > MaxDisplay {
		display = MaxDisplay
	}
	if err := c.limiter.wait(ctx); err != nil {
		return SearchResult{}, err
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("display", strconv.Itoa(display))
	params.Set("start", "1")
	params.Set("sort", "sim")

	body, _, err := doWithRetry(ctx, c.cfg.HTTPClient, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+shoppingSearchPath+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Naver-Client-Id", c.cfg.ClientID)
		req.Header.Set("X-Naver-Client-Secret", c.cfg.ClientSecret)
		return req, nil
	})
	if err != nil {
		return SearchResult{}, err
	}

	var apiErr shoppingError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.ErrorCode != "" {
		return SearchResult{}, fmt.Errorf("shopping api error %s: %s", apiErr.ErrorCode, apiErr.ErrorMessage)
	}

	var parsed SearchResult
	if err := json.Unmarshal(body, &parsed); err != nil {
		return SearchResult{}, fmt.Errorf("shopping response parse: %w", err)
	}
	return parsed, nil
}
