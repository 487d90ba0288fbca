package publish

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"miseflow/internal/core/cache"
	"miseflow/internal/core/recipe"
	"miseflow/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers = 2
	defaultLimit   = 50

	reasonIncomplete = "No full ingredient/step extraction."
	reasonUnchanged  = "Content fingerprint unchanged since last publish."
)

// Status 單一網址的發布結果
type Status string

const (
	StatusPublished Status = "published"
	StatusSkipped   Status = "skipped"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// Extractor 發布流程需要的擷取能力
type Extractor interface {
	Extract(ctx context.Context, url string) (*common.ExtractionResult, error)
}

// Options 批次發布選項
type Options struct {
	Servings  float64
	Limit     int
	Republish bool
}

// Result 單一網址的處理結果
type Result struct {
	URL         string         `json:"url"`
	Status      Status         `json:"status"`
	Reason      string         `json:"reason,omitempty"`
	Slug        string         `json:"slug,omitempty"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Recipe      *recipe.Recipe `json:"-"`
}

// Summary 各狀態數量
type Summary struct {
	Published int `json:"published"`
	Skipped   int `json:"skipped"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Summarize 統計結果
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusPublished:
			s.Published++
		case StatusSkipped:
			s.Skipped++
		case StatusUnchanged:
			s.Unchanged++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// Publisher 批次擷取並正規化網址清單
type Publisher struct {
	extractor  Extractor
	normalizer *recipe.Normalizer
	store      cache.Store
	workers    int
	processed  int64
}

// NewPublisher 創建發布器；store 為 nil 時不比對指紋
func NewPublisher(extractor Extractor, normalizer *recipe.Normalizer, store cache.Store, workers int) *Publisher {
	if normalizer == nil {
		normalizer = recipe.NewNormalizer(nil)
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Publisher{
		extractor:  extractor,
		normalizer: normalizer,
		store:      store,
		workers:    workers,
	}
}

// Processed 已處理的網址數
func (p *Publisher) Processed() int64 {
	return atomic.LoadInt64(&p.processed)
}

// Run 以有限併發處理網址，結果順序與輸入一致
//
// 單一網址失敗只記在該筆結果；ctx 取消時尚未開始的網址標記為失敗並回傳 ctx 錯誤。
func (p *Publisher) Run(ctx context.Context, urls []string, opts Options) ([]Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(urls) > limit {
		urls = urls[:limit]
	}

	start := time.Now()
	results := make([]Result, len(urls))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, url := range urls {
		g.Go(func() error {
			results[i] = p.publishOne(ctx, url, opts)
			atomic.AddInt64(&p.processed, 1)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summarize(results)
	common.LogInfo("批次發布完成",
		zap.Int("urls", len(urls)),
		zap.Int("published", summary.Published),
		zap.Int("skipped", summary.Skipped),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("failed", summary.Failed),
		zap.Duration("耗時", time.Since(start)),
	)

	return results, ctx.Err()
}

func (p *Publisher) publishOne(ctx context.Context, url string, opts Options) Result {
	if err := ctx.Err(); err != nil {
		return Result{URL: url, Status: StatusFailed, Reason: err.Error()}
	}

	extracted, err := p.extractor.Extract(ctx, url)
	if err != nil {
		common.LogWarn("發布擷取失敗", zap.String("url", url), zap.Error(err))
		return Result{URL: url, Status: StatusFailed, Reason: err.Error()}
	}
	if extracted.IsPartial() {
		return Result{URL: url, Status: StatusSkipped, Reason: reasonIncomplete}
	}

	fingerprint := Fingerprint(extracted)
	if !opts.Republish && p.previousFingerprint(ctx, url) == fingerprint {
		return Result{URL: url, Status: StatusUnchanged, Reason: reasonUnchanged, Fingerprint: fingerprint}
	}

	normalized := p.normalizer.FromExtraction(extracted, url, opts.Servings)
	p.rememberFingerprint(ctx, url, fingerprint)

	common.LogDebug("已發布", zap.String("url", url), zap.String("slug", normalized.Meta.Slug))
	return Result{
		URL:         url,
		Status:      StatusPublished,
		Slug:        normalized.Meta.Slug,
		Fingerprint: fingerprint,
		Recipe:      normalized,
	}
}

func (p *Publisher) previousFingerprint(ctx context.Context, url string) string {
	if p.store == nil {
		return ""
	}
	value, err := p.store.Get(ctx, cache.NamespaceFingerprint, urlKey(url))
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取指紋失敗", zap.String("url", url), zap.Error(err))
		}
		return ""
	}
	return value
}

func (p *Publisher) rememberFingerprint(ctx context.Context, url, fingerprint string) {
	if p.store == nil {
		return
	}
	if err := p.store.Set(ctx, cache.NamespaceFingerprint, urlKey(url), fingerprint); err != nil {
		common.LogWarn("寫入指紋失敗", zap.String("url", url), zap.Error(err))
	}
}
