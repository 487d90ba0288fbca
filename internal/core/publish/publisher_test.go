package publish

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"miseflow/internal/core/cache"
	"miseflow/internal/infrastructure/config"
	"miseflow/internal/pkg/common"
)

// fakeExtractor 以網址對應固定結果，並記錄同時執行的數量
type fakeExtractor struct {
	mu      sync.Mutex
	results map[string]*common.ExtractionResult
	active  int
	peak    int
	delay   time.Duration
}

func (f *fakeExtractor) Extract(_ context.Context, url string) (*common.ExtractionResult, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	result, ok := f.results[url]
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if !ok {
		return nil, common.Wrap(common.ErrFetchFailed, "", fmt.Errorf("request failed (404) for %s", url))
	}
	copied := *result
	return &copied, nil
}

func fullResult(title string) *common.ExtractionResult {
	return &common.ExtractionResult{
		DetectedType: common.SourceWeb,
		Title:        title,
		Author:       "Ana",
		Ingredients:  []string{"2 cups flour", "1 tsp salt"},
		Steps:        []string{"Mix the flour and salt.", "Bake."},
		Discovery:    common.Discovery{Method: common.MethodJSONLD, DetectedType: common.SourceWeb},
	}
}

func newMemoryStore(t *testing.T) *cache.CacheManager {
	t.Helper()
	store := cache.NewManager(&config.CacheConfig{Enabled: true, MaxSize: 100, TTL: time.Hour})
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestFingerprint 空白與大小寫不影響指紋，內容變動會改變指紋
func TestFingerprint(t *testing.T) {
	a := fullResult("Bread")
	b := fullResult("  BREAD ")
	b.Ingredients = []string{"2  cups Flour", "1 tsp salt"}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("normalized content should give the same fingerprint")
	}
	if len(Fingerprint(a)) != 64 {
		t.Errorf("fingerprint should be sha256 hex, got %q", Fingerprint(a))
	}

	c := fullResult("Bread")
	c.Steps = append(c.Steps, "Cool.")
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("added step should change the fingerprint")
	}

	// 欄位邊界不可互相滲透
	d := fullResult("Bread")
	d.Ingredients = []string{"2 cups flour"}
	d.Steps = []string{"1 tsp salt", "Mix the flour and salt.", "Bake."}
	if Fingerprint(a) == Fingerprint(d) {
		t.Error("moving a line between sections should change the fingerprint")
	}
}

// TestReadURLList 註解、空行與不分大小寫去重
func TestReadURLList(t *testing.T) {
	input := "# weekly list\n\nhttps://a.example.com/r\n  https://b.example.com/r  \r\nHTTPS://A.EXAMPLE.COM/R\n#https://c.example.com\n"
	urls, err := ReadURLList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadURLList: %v", err)
	}
	want := []string{"https://a.example.com/r", "https://b.example.com/r"}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

// TestPublisherRun 各種狀態與結果順序
func TestPublisherRun(t *testing.T) {
	partial := fullResult("Half")
	partial.Steps = nil

	extractor := &fakeExtractor{results: map[string]*common.ExtractionResult{
		"https://ok.example.com/bread":  fullResult("Country Bread"),
		"https://ok.example.com/half":   partial,
		"https://ok.example.com/scones": fullResult("Scones"),
	}}
	publisher := NewPublisher(extractor, nil, newMemoryStore(t), 2)

	urls := []string{
		"https://ok.example.com/bread",
		"https://down.example.com/x",
		"https://ok.example.com/half",
		"https://ok.example.com/scones",
	}
	results, err := publisher.Run(context.Background(), urls, Options{Servings: 6})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantStatus := []Status{StatusPublished, StatusFailed, StatusSkipped, StatusPublished}
	for i, r := range results {
		if r.URL != urls[i] {
			t.Errorf("results[%d].URL = %q, order must follow input", i, r.URL)
		}
		if r.Status != wantStatus[i] {
			t.Errorf("results[%d].Status = %q, want %q (%s)", i, r.Status, wantStatus[i], r.Reason)
		}
	}

	bread := results[0]
	if bread.Slug != "country-bread" || bread.Recipe == nil {
		t.Fatalf("published result = %+v", bread)
	}
	if bread.Recipe.Meta.Servings != 6 || bread.Recipe.Meta.SourceURL != urls[0] {
		t.Errorf("meta = %+v", bread.Recipe.Meta)
	}
	if bread.Recipe.Citation.ExtractionMethod != common.MethodJSONLD {
		t.Errorf("method = %q", bread.Recipe.Citation.ExtractionMethod)
	}
	if !strings.Contains(results[1].Reason, "404") {
		t.Errorf("failure reason = %q", results[1].Reason)
	}
	if results[2].Reason != reasonIncomplete {
		t.Errorf("skip reason = %q", results[2].Reason)
	}

	summary := Summarize(results)
	if summary != (Summary{Published: 2, Skipped: 1, Failed: 1}) {
		t.Errorf("summary = %+v", summary)
	}
	if publisher.Processed() != 4 {
		t.Errorf("processed = %d", publisher.Processed())
	}
}

// TestPublisherFingerprint 內容未變動時標記 unchanged，republish 強制重新發布
func TestPublisherFingerprint(t *testing.T) {
	const url = "https://ok.example.com/bread"
	extractor := &fakeExtractor{results: map[string]*common.ExtractionResult{url: fullResult("Bread")}}
	publisher := NewPublisher(extractor, nil, newMemoryStore(t), 1)
	ctx := context.Background()

	first, _ := publisher.Run(ctx, []string{url}, Options{})
	if first[0].Status != StatusPublished {
		t.Fatalf("first run = %+v", first[0])
	}

	second, _ := publisher.Run(ctx, []string{url}, Options{})
	if second[0].Status != StatusUnchanged || second[0].Fingerprint != first[0].Fingerprint {
		t.Errorf("second run = %+v", second[0])
	}

	forced, _ := publisher.Run(ctx, []string{url}, Options{Republish: true})
	if forced[0].Status != StatusPublished {
		t.Errorf("republish run = %+v", forced[0])
	}

	extractor.results[url] = fullResult("Better Bread")
	changed, _ := publisher.Run(ctx, []string{url}, Options{})
	if changed[0].Status != StatusPublished || changed[0].Slug != "better-bread" {
		t.Errorf("changed run = %+v", changed[0])
	}
}

// TestPublisherConcurrencyAndLimit 併發上限與數量上限
func TestPublisherConcurrencyAndLimit(t *testing.T) {
	results := make(map[string]*common.ExtractionResult)
	var urls []string
	for i := 0; i < 8; i++ {
		url := fmt.Sprintf("https://ok.example.com/r%d", i)
		results[url] = fullResult(fmt.Sprintf("Recipe %d", i))
		urls = append(urls, url)
	}
	extractor := &fakeExtractor{results: results, delay: 20 * time.Millisecond}
	publisher := NewPublisher(extractor, nil, nil, 3)

	out, err := publisher.Run(context.Background(), urls, Options{Limit: 6})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 6 {
		t.Fatalf("limit not applied: %d results", len(out))
	}
	if extractor.peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", extractor.peak)
	}
	if extractor.peak < 2 {
		t.Errorf("work should run concurrently, peak = %d", extractor.peak)
	}
}

// TestPublisherCanceled 取消後的網址標記為失敗
func TestPublisherCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extractor := &fakeExtractor{results: map[string]*common.ExtractionResult{}}
	results, err := NewPublisher(extractor, nil, nil, 1).Run(ctx, []string{"https://a.example.com", "https://b.example.com"}, Options{})
	if err == nil {
		t.Fatal("expected context error")
	}
	for _, r := range results {
		if r.Status != StatusFailed {
			t.Errorf("%s status = %q", r.URL, r.Status)
		}
	}
	if extractor.peak != 0 {
		t.Error("extractor should not be called after cancel")
	}
}
