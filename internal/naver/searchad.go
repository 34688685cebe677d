package naver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const keywordToolPath = "/keywordstool"

// SearchAdConfig carries the search-ad API credentials. Requests are signed
// per request with HMAC-SHA256 over "{timestamp}.{method}.{uri}".
type SearchAdConfig struct {
	AccessLicense      string
	SecretKey          string
	CustomerID         string
	BaseURL            string
	RateLimitPerSecond int
	HTTPClient         *http.Client
}

// SearchAdClient fetches monthly search volumes from the keyword tool.
type SearchAdClient struct {
	cfg     SearchAdConfig
	limiter *limiter
	now     func() time.Time
}

func NewSearchAdClient(cfg SearchAdConfig) (*SearchAdClient, error) {
	cfg.AccessLicense = strings.TrimSpace(cfg.AccessLicense)
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	cfg.CustomerID = strings.TrimSpace(cfg.CustomerID)
	if cfg.AccessLicense == "" || cfg.SecretKey == "" || cfg.CustomerID == "" {
		return nil, errors.New("search-ad credentials not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = SearchAdBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &SearchAdClient{
		cfg:     cfg,
		limiter: newLimiter(cfg.RateLimitPerSecond),
		now:     time.Now,
	}, nil
}

// Close releases the client's rate-limit ticker.
func (c *SearchAdClient) Close() {
	c.limiter.stop()
}

// flexCount tolerates the keyword tool's mixed volume encoding: plain
// numbers, numeric strings, and the below-threshold sentinel "< 10", which
// maps to 0.
type flexCount int

func (c *flexCount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	if n, err := strconv.Atoi(s); err == nil {
		*c = flexCount(n)
		return nil
	}
	// "< 10" and any other non-numeric marker clip to zero.
	*c = 0
	return nil
}

type keywordIdea struct {
	RelKeyword       string    `json:"relKeyword"`
	MonthlyPcQcCnt   flexCount `json:"monthlyPcQcCnt"`
	MonthlyMobileCnt flexCount `json:"monthlyMobileQcCnt"`
}

type keywordToolResponse struct {
	KeywordList []keywordIdea `json:"keywordList"`
}

// MonthlySearchVolume returns the combined desktop+mobile monthly search
// count for a wire-normalized keyword. A keyword the tool has no exact
// entry for counts as 0, not as an error.
func (c *SearchAdClient) MonthlySearchVolume(ctx context.Context, wireKeyword string) (int, error) {
	wireKeyword = strings.TrimSpace(wireKeyword)
	if wireKeyword == "" {
		return 0, errors.New("empty keyword")
	}
	if err := c.limiter.wait(ctx); err != nil {
		return 0, err
	}

	query := url.Values{}
	query.Set("hintKeywords", wireKeyword)
	query.Set("showDetail", "1")

	body, status, err := doWithRetry(ctx, c.cfg.HTTPClient, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+keywordToolPath+"?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}
		c.sign(req, http.MethodGet, keywordToolPath)
		return req, nil
	})
	if err != nil {
		// The keyword tool answers 400 for keywords it considers
		// malformed; treat that as "no data", matching absence.
		if status == http.StatusBadRequest {
			log.Printf("titleforge searchad invalid_keyword keyword=%q", wireKeyword)
			return 0, nil
		}
		return 0, err
	}

	var parsed keywordToolResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("keyword tool response parse: %w", err)
	}

	upper := strings.ToUpper(wireKeyword)
	for _, idea := range parsed.KeywordList {
		if strings.ToUpper(idea.RelKeyword) != upper {
			continue
		}
		return int(idea.MonthlyPcQcCnt) + int(idea.MonthlyMobileCnt), nil
	}
	return 0, nil
}

func (c *SearchAdClient) sign(req *http.Request, method, uri string) {
	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	fmt.Fprintf(mac, "%s.%s.%s", timestamp, method, uri)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Timestamp", timestamp)
	req.Header.Set("X-API-KEY", c.cfg.AccessLicense)
	req.Header.Set("X-Customer", c.cfg.CustomerID)
	req.Header.Set("X-Signature", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}
