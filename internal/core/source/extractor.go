package source

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"miseflow/internal/core/cache"
	"miseflow/internal/infrastructure/config"
	"miseflow/internal/pkg/common"

	"go.uber.org/zap"
)

// SanitizeURL 只接受 http/https 且帶主機的網址
func SanitizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", common.ErrInvalidURL
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", common.Wrap(common.ErrInvalidURL, "", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if (scheme != "http" && scheme != "https") || parsed.Host == "" {
		return "", common.ErrInvalidURL
	}
	return parsed.String(), nil
}

// DetectSourceType youtube.com / youtu.be 為影片，其餘視為網頁
func DetectSourceType(raw string) common.SourceType {
	parsed, err := url.Parse(raw)
	if err != nil {
		return common.SourceWeb
	}
	if isVideoHost(parsed.Hostname()) {
		return common.SourceYouTube
	}
	return common.SourceWeb
}

// Extractor 依來源類型分派到網頁或影片擷取，並快取完整的結果
type Extractor struct {
	web   *WebExtractor
	video *VideoExtractor
	store cache.Store
}

// NewExtractor 創建擷取入口；store 可為 nil（停用快取）
func NewExtractor(cfg *config.Config, fetcher Fetcher, store cache.Store) *Extractor {
	if fetcher == nil {
		fetcher = NewHTTPFetcher(&cfg.Extract)
	}
	web := NewWebExtractor(fetcher, cfg.Extract.MaxLines)
	transcripts := NewYouTubeTranscripts(fetcher, cfg.Extract.TranscriptLanguage)

	return &Extractor{
		web:   web,
		video: NewVideoExtractor(fetcher, transcripts, web, &cfg.Extract),
		store: store,
	}
}

// Extract 擷取單一網址
//
// 不合法的網址在任何抓取之前就回傳錯誤。快取讀寫失敗只記錄日誌。
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*common.ExtractionResult, error) {
	sanitized, err := SanitizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	if cached := e.lookup(ctx, sanitized); cached != nil {
		return cached, nil
	}

	var (
		result  *common.ExtractionResult
		settled = true
	)
	switch DetectSourceType(sanitized) {
	case common.SourceYouTube:
		result, settled, err = e.video.extract(ctx, sanitized)
	default:
		result, err = e.web.Extract(ctx, sanitized)
	}
	if err != nil {
		common.LogWarn("擷取失敗", zap.String("url", sanitized), zap.Error(err))
		return nil, err
	}

	if result.IsPartial() {
		common.LogInfo("擷取結果不完整，需要使用者補充",
			zap.String("url", sanitized),
			zap.Int("ingredients", len(result.Ingredients)),
			zap.Int("steps", len(result.Steps)),
		)
	}

	// 不完整或有來源失敗的結果不快取，重新擷取時會再嘗試失敗的來源
	if settled && !result.IsPartial() {
		e.remember(ctx, sanitized, result)
	} else {
		common.LogDebug("擷取結果未快取",
			zap.String("url", sanitized),
			zap.Bool("settled", settled),
			zap.Bool("partial", result.IsPartial()),
		)
	}
	return result, nil
}

// Stats 快取統計；停用時為 nil
func (e *Extractor) Stats() map[string]interface{} {
	if e.store == nil {
		return nil
	}
	return e.store.Stats()
}

func (e *Extractor) lookup(ctx context.Context, key string) *common.ExtractionResult {
	if e.store == nil {
		return nil
	}
	raw, err := e.store.Get(ctx, cache.NamespaceExtraction, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取擷取快取失敗", zap.String("url", key), zap.Error(err))
		}
		common.LogCacheMiss(cache.NamespaceExtraction, key)
		return nil
	}

	var result common.ExtractionResult
	if err := common.ParseJSON(raw, &result); err != nil {
		common.LogWarn("擷取快取內容無法解析", zap.String("url", key), zap.Error(err))
		return nil
	}
	common.LogCacheHit(cache.NamespaceExtraction, key)
	return &result
}

func (e *Extractor) remember(ctx context.Context, key string, result *common.ExtractionResult) {
	if e.store == nil {
		return
	}
	raw, err := common.ToJSON(result)
	if err != nil {
		common.LogWarn("擷取結果無法序列化", zap.String("url", key), zap.Error(err))
		return
	}
	if err := e.store.Set(ctx, cache.NamespaceExtraction, key, raw); err != nil {
		common.LogWarn("寫入擷取快取失敗", zap.String("url", key), zap.Error(err))
	}
}
