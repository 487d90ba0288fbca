package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"miseflow/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
)

// TranscriptItem 逐字稿片段，只有 Text 會被使用
type TranscriptItem struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// TranscriptSource 取得影片逐字稿
//
// watchPage 為已抓取的觀看頁 HTML，空字串時由來源自行抓取。
type TranscriptSource interface {
	Fetch(ctx context.Context, videoID, watchPage string) ([]TranscriptItem, error)
}

const captionTracksKey = `"captionTracks":`

// captionTracksJSON 取出 captionTracks 後完整的 JSON 陣列
//
// 依括號深度掃描，字串內的括號與跳脫字元不計。
func captionTracksJSON(page string) (string, bool) {
	idx := strings.Index(page, captionTracksKey)
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimLeft(page[idx+len(captionTracksKey):], " \t\r\n")
	if !strings.HasPrefix(rest, "[") {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return rest[:i+1], true
			}
		}
	}
	return "", false
}

// captionTrack 觀看頁 player response 中的字幕軌
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// YouTubeTranscripts 從觀看頁的字幕軌清單抓取逐字稿
type YouTubeTranscripts struct {
	fetcher  Fetcher
	pageBase string
	language string
}

// NewYouTubeTranscripts 創建逐字稿來源；language 為偏好語言
func NewYouTubeTranscripts(fetcher Fetcher, language string) *YouTubeTranscripts {
	return &YouTubeTranscripts{
		fetcher:  fetcher,
		pageBase: youtubeWatchBase,
		language: language,
	}
}

// Fetch 取得逐字稿；影片沒有字幕時回傳錯誤
func (t *YouTubeTranscripts) Fetch(ctx context.Context, videoID, watchPage string) ([]TranscriptItem, error) {
	page := watchPage
	if page == "" {
		var err error
		page, err = t.fetcher.FetchText(ctx, t.pageBase+videoID)
		if err != nil {
			return nil, err
		}
	}

	track, err := t.pickTrack(page)
	if err != nil {
		return nil, err
	}

	body, err := t.fetcher.FetchText(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}

	items, err := ParseTranscriptXML(body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("transcript for %s is empty", videoID)
	}
	return items, nil
}

func (t *YouTubeTranscripts) pickTrack(page string) (captionTrack, error) {
	raw, ok := captionTracksJSON(page)
	if !ok {
		return captionTrack{}, fmt.Errorf("no caption tracks on watch page")
	}

	var tracks []captionTrack
	if err := common.ParseLenientJSON(raw, &tracks); err != nil {
		return captionTrack{}, fmt.Errorf("failed to parse caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return captionTrack{}, fmt.Errorf("no caption tracks on watch page")
	}

	// 手動字幕優先於自動字幕
	best := -1
	for i, track := range tracks {
		if !strings.HasPrefix(track.LanguageCode, t.language) {
			continue
		}
		if best == -1 || (tracks[best].Kind == "asr" && track.Kind != "asr") {
			best = i
		}
	}
	if best == -1 {
		best = 0
	}
	return tracks[best], nil
}

// ParseTranscriptXML 解析 timedtext 格式 <text start dur>...</text>
func ParseTranscriptXML(body string) ([]TranscriptItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}

	var items []TranscriptItem
	doc.Find("text").Each(func(_ int, s *goquery.Selection) {
		// 內文常被重複編碼（&amp;#39;）
		text := common.CollapseSpaces(DecodeHTML(s.Text()))
		if text == "" {
			return
		}
		item := TranscriptItem{Text: text}
		if start, ok := s.Attr("start"); ok {
			item.Start, _ = strconv.ParseFloat(start, 64)
		}
		if dur, ok := s.Attr("dur"); ok {
			item.Duration, _ = strconv.ParseFloat(dur, 64)
		}
		items = append(items, item)
	})
	return items, nil
}

// transcriptText 以空白串接所有片段
func transcriptText(items []TranscriptItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Text)
	}
	return strings.Join(parts, " ")
}
