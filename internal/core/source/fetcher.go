package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"miseflow/internal/infrastructure/config"
	"miseflow/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

const (
	acceptHTML   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptJSON   = "application/json,*/*"
	maxRedirects = 10
)

// Fetcher 對外抓取；每次請求各自帶逾時，不自動重試
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
	FetchJSON(ctx context.Context, url string, v interface{}) error
}

// HTTPFetcher 以 resty 實作的 Fetcher
type HTTPFetcher struct {
	client  *resty.Client
	timeout time.Duration
}

// NewHTTPFetcher 創建抓取客戶端
func NewHTTPFetcher(cfg *config.ExtractConfig) *HTTPFetcher {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
		SetRetryCount(0)

	return &HTTPFetcher{
		client:  client,
		timeout: cfg.RequestTimeout,
	}
}

// FetchText 取得頁面文字
func (f *HTTPFetcher) FetchText(ctx context.Context, url string) (string, error) {
	body, err := f.get(ctx, url, acceptHTML)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchJSON 取得並解析 JSON
func (f *HTTPFetcher) FetchJSON(ctx context.Context, url string, v interface{}) error {
	body, err := f.get(ctx, url, acceptJSON)
	if err != nil {
		return err
	}
	if err := common.ParseJSONBytes(body, v); err != nil {
		return common.Wrap(common.ErrFetchFailed, fmt.Sprintf("invalid JSON from %s", url), err)
	}
	return nil
}

func (f *HTTPFetcher) get(ctx context.Context, url, accept string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", accept).
		Get(url)
	if err != nil {
		common.LogFetch(url, time.Since(start), 0, err)
		return nil, common.Wrap(common.ErrFetchFailed, fmt.Sprintf("request failed for %s", url), err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		err := fmt.Errorf("request failed (%d) for %s", resp.StatusCode(), url)
		common.LogFetch(url, time.Since(start), resp.StatusCode(), err)
		return nil, common.Wrap(common.ErrFetchFailed, "", err)
	}

	common.LogFetch(url, time.Since(start), resp.StatusCode(), nil)
	return resp.Body(), nil
}
