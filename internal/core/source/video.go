package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"miseflow/internal/infrastructure/config"
	"miseflow/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	youtubeWatchBase   = "https://www.youtube.com/watch?v="
	youtubeOEmbedBase  = "https://www.youtube.com/oembed"
	defaultVideoTitle  = "YouTube Recipe"
	defaultLinkLimit   = 5
	strategyLinked     = "linked-recipe"
	strategyDesc       = "description"
	strategyTranscript = "transcript"
)

// oEmbed 影片嵌入資訊，欄位缺少時為空
type oEmbed struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// branchOutcome 併發抓取中單一分支的結果
type branchOutcome struct {
	name     string
	err      error
	duration time.Duration
}

// videoSources 三個併發分支的結果，失敗的分支為零值
type videoSources struct {
	meta       *oEmbed
	pageHTML   string
	transcript []TranscriptItem
	outcomes   []branchOutcome
}

// VideoExtractor 影片食譜擷取
type VideoExtractor struct {
	fetcher       Fetcher
	transcripts   TranscriptSource
	web           *WebExtractor
	maxCandidates int
	maxLines      int
	watchBase     string
	oembedBase    string
}

// NewVideoExtractor 創建影片擷取器；transcripts 可為 nil
func NewVideoExtractor(fetcher Fetcher, transcripts TranscriptSource, web *WebExtractor, cfg *config.ExtractConfig) *VideoExtractor {
	maxCandidates := cfg.MaxLinkCandidates
	if maxCandidates <= 0 {
		maxCandidates = defaultLinkLimit
	}
	return &VideoExtractor{
		fetcher:       fetcher,
		transcripts:   transcripts,
		web:           web,
		maxCandidates: maxCandidates,
		maxLines:      cfg.MaxLines,
		watchBase:     youtubeWatchBase,
		oembedBase:    youtubeOEmbedBase,
	}
}

// ParseVideoID 支援 youtu.be 短網址、v 參數、/embed/ 與 /shorts/ 路徑
func ParseVideoID(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	segments := pathSegments(parsed.Path)
	if strings.Contains(strings.ToLower(parsed.Hostname()), "youtu.be") {
		if len(segments) > 0 {
			return segments[0]
		}
		return ""
	}

	if v := parsed.Query().Get("v"); v != "" {
		return v
	}

	for i, segment := range segments {
		if (segment == "embed" || segment == "shorts") && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return ""
}

func pathSegments(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func isVideoHost(host string) bool {
	host = strings.ToLower(host)
	return strings.Contains(host, "youtube.com") || strings.Contains(host, "youtu.be")
}

// Extract 擷取影片食譜；找不到影片 id 為硬錯誤，其餘失敗都降級為說明
func (e *VideoExtractor) Extract(ctx context.Context, rawURL string) (*common.ExtractionResult, error) {
	result, _, err := e.extract(ctx, rawURL)
	return result, err
}

// extract 同 Extract，另外回傳所有來源是否都有回應
//
// 任一分支失敗，或連結都失敗且沒有連結食譜時 settled 為 false。
func (e *VideoExtractor) extract(ctx context.Context, rawURL string) (*common.ExtractionResult, bool, error) {
	videoID := ParseVideoID(rawURL)
	if videoID == "" {
		return nil, false, common.ErrUnsupportedURL
	}
	watchURL := youtubeWatchBase + videoID

	sources := e.fetchSources(ctx, videoID, watchURL)

	description := ParseVideoDescription(sources.pageHTML)
	candidates := RecipeCandidates(description, e.maxCandidates)
	discovery := common.Discovery{DetectedType: common.SourceYouTube}

	linked, linkFailures := e.extractLinked(ctx, candidates, &discovery)
	settled := sources.settled() && (linked != nil || linkFailures == 0)
	transcriptAvailable := len(sources.transcript) > 0

	var linkedIngredients, linkedSteps []string
	if linked != nil {
		linkedIngredients, linkedSteps = linked.Ingredients, linked.Steps
	}

	clean := func(lines []string) []string { return CleanLines(lines, e.maxLines) }

	ingredients, ingredientSource, _ := firstLines("Ingredient", []lineStrategy{
		{strategyLinked, func() []string { return linkedIngredients }},
		{strategyDesc, func() []string { return IngredientLikeLines(description) }},
		{strategyTranscript, func() []string { return TranscriptIngredients(sources.transcript) }},
	}, clean)

	steps, stepSource, _ := firstLines("Instruction", []lineStrategy{
		{strategyLinked, func() []string { return linkedSteps }},
		{strategyDesc, func() []string { return InstructionLikeLines(description) }},
		{strategyTranscript, func() []string { return TranscriptSteps(sources.transcript) }},
	}, clean)

	if stepSource == strategyTranscript {
		discovery.AddNote("Generated steps from YouTube transcript.")
	}
	if ingredientSource == strategyTranscript {
		discovery.AddNote("Generated ingredient hints from transcript.")
	}
	if len(candidates) == 0 {
		discovery.AddNote("No recipe links detected in video description.")
	} else if linked == nil {
		discovery.AddNote("Recipe links were found, but no parsable recipe card was detected.")
	}
	if !transcriptAvailable {
		discovery.AddNote("Transcript unavailable for this video.")
	}

	meta := sources.meta
	if meta == nil {
		meta = &oEmbed{}
	}
	var linkedTitle, linkedAuthor, linkedImage string
	if linked != nil {
		linkedTitle, linkedAuthor, linkedImage = linked.Title, linked.Author, linked.ImageURL
	}

	title := firstNonEmpty(linkedTitle, meta.Title, parsePageTitle(sources.pageHTML), defaultVideoTitle)
	author := firstNonEmpty(linkedAuthor, meta.AuthorName)
	image := firstNonEmpty(linkedImage, meta.ThumbnailURL)

	creditNotes := "Adapted from a YouTube source. Keep original creator credit."
	if author != "" {
		creditNotes = fmt.Sprintf("Adapted from YouTube creator %s. Keep original creator credit.", author)
	}

	discovery.Method = videoMethod(ingredientSource, stepSource)
	discovery.TranscriptAvailable = transcriptAvailable
	discovery.RecipeLinks = common.DedupeStrings(append([]string{watchURL}, candidates...))

	common.LogInfo("影片擷取完成",
		zap.String("video_id", videoID),
		zap.String("method", discovery.Method),
		zap.Bool("transcript", transcriptAvailable),
		zap.Int("candidates", len(candidates)),
		zap.Int("ingredients", len(ingredients)),
		zap.Int("steps", len(steps)),
	)

	return &common.ExtractionResult{
		DetectedType: common.SourceYouTube,
		Title:        title,
		Author:       author,
		ImageURL:     image,
		Ingredients:  ingredients,
		Steps:        steps,
		CreditNotes:  creditNotes,
		Discovery:    discovery,
	}, settled, nil
}

// settled 三個分支是否都成功
func (s *videoSources) settled() bool {
	for _, outcome := range s.outcomes {
		if outcome.err != nil {
			return false
		}
	}
	return true
}

// fetchSources 併發抓取嵌入資訊、觀看頁與逐字稿，等待全部結束
//
// 每個分支都回傳 nil，單一分支失敗不會取消其他分支。觀看頁只抓一次，
// 逐字稿分支共用；觀看頁失敗時逐字稿來源自行處理。
func (e *VideoExtractor) fetchSources(ctx context.Context, videoID, watchURL string) *videoSources {
	var (
		g          errgroup.Group
		meta       oEmbed
		pageHTML   string
		transcript []TranscriptItem
		outcomes   = make([]branchOutcome, 3)
	)

	loadPage := sync.OnceValues(func() (string, error) {
		return e.fetcher.FetchText(ctx, e.watchBase+videoID)
	})

	run := func(index int, name string, fn func() error) {
		g.Go(func() error {
			start := time.Now()
			err := fn()
			outcomes[index] = branchOutcome{name: name, err: err, duration: time.Since(start)}
			return nil
		})
	}

	run(0, "oembed", func() error {
		endpoint := e.oembedBase + "?url=" + url.QueryEscape(watchURL) + "&format=json"
		return e.fetcher.FetchJSON(ctx, endpoint, &meta)
	})
	run(1, "page", func() error {
		var err error
		pageHTML, err = loadPage()
		return err
	})
	run(2, "transcript", func() error {
		if e.transcripts == nil {
			return fmt.Errorf("no transcript source configured")
		}
		page, err := loadPage()
		if err != nil {
			page = ""
		}
		transcript, err = e.transcripts.Fetch(ctx, videoID, page)
		return err
	})

	_ = g.Wait()

	sources := &videoSources{outcomes: outcomes}
	for _, outcome := range outcomes {
		if outcome.err != nil {
			common.LogWarn("影片來源分支失敗",
				zap.String("branch", outcome.name),
				zap.Duration("耗時", outcome.duration),
				zap.Error(outcome.err),
			)
			continue
		}
		common.LogDebug("影片來源分支完成",
			zap.String("branch", outcome.name),
			zap.Duration("耗時", outcome.duration),
		)
		switch outcome.name {
		case "oembed":
			sources.meta = &meta
		case "page":
			sources.pageHTML = pageHTML
		case "transcript":
			sources.transcript = transcript
		}
	}
	return sources
}

// extractLinked 依序嘗試候選連結，第一個有食材或步驟的勝出
//
// 每次嘗試都留下說明；failures 為抓取失敗的連結數。
func (e *VideoExtractor) extractLinked(ctx context.Context, candidates []string, discovery *common.Discovery) (result *common.ExtractionResult, failures int) {
	if e.web == nil {
		return nil, 0
	}
	for _, link := range candidates {
		if ctx.Err() != nil {
			return nil, failures + 1
		}
		linked, err := e.web.Extract(ctx, link)
		if err != nil {
			discovery.AddNote("Linked URL could not be parsed: " + link)
			failures++
			continue
		}
		if len(linked.Ingredients) > 0 || len(linked.Steps) > 0 {
			discovery.AddNote("Extracted recipe details from linked URL: " + link)
			return linked, failures
		}
		discovery.AddNote("Linked URL had no recipe content: " + link)
	}
	return nil, failures
}

// videoMethod 依實際產出食材與步驟的策略決定 provenance
func videoMethod(ingredientSource, stepSource string) string {
	switch {
	case ingredientSource == strategyLinked || stepSource == strategyLinked:
		return common.MethodLinkedRecipe
	case ingredientSource == strategyTranscript || stepSource == strategyTranscript:
		return common.MethodTranscriptHeuristics
	default:
		return common.MethodDescriptionHeuristics
	}
}
