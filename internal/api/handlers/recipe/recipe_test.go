package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	recipeCore "miseflow/internal/core/recipe"
	"miseflow/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeExtractor 依網址回傳固定結果或錯誤
type fakeExtractor struct {
	results map[string]*common.ExtractionResult
	err     error
	calls   []string
}

func (f *fakeExtractor) Extract(_ context.Context, url string) (*common.ExtractionResult, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	result, ok := f.results[url]
	if !ok {
		return nil, common.Wrap(common.ErrFetchFailed, "", fmt.Errorf("request failed (404) for %s", url))
	}
	return result, nil
}

func newTestRouter(extractor Extractor) *gin.Engine {
	handler := NewHandler(extractor, nil)
	router := gin.New()
	router.POST("/extract", handler.HandleExtract)
	router.POST("/normalize", handler.HandleNormalize)
	router.POST("/import", handler.HandleImport)
	router.POST("/preview", handler.HandlePreview)
	return router
}

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func breadResult() *common.ExtractionResult {
	return &common.ExtractionResult{
		DetectedType: common.SourceWeb,
		Title:        "Country Bread",
		Author:       "Ana",
		Ingredients:  []string{"500 g flour", "10 g salt"},
		Steps:        []string{"Mix the flour and salt.", "Bake for 40 minutes."},
		CreditNotes:  "Recipe by Ana.",
		Discovery: common.Discovery{
			Method:       common.MethodJSONLD,
			DetectedType: common.SourceWeb,
			Notes:        []string{"Used schema.org Recipe markup."},
		},
	}
}

// TestHandleExtract 成功、部分結果與錯誤狀態碼
func TestHandleExtract(t *testing.T) {
	partial := breadResult()
	partial.Steps = nil

	extractor := &fakeExtractor{results: map[string]*common.ExtractionResult{
		"https://example.com/bread": breadResult(),
		"https://example.com/half":  partial,
	}}
	router := newTestRouter(extractor)

	w := post(router, "/extract", `{"url":"https://example.com/bread"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	var resp ExtractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.Partial || resp.DetectedType != common.SourceWeb {
		t.Errorf("response = %+v", resp)
	}
	if resp.Extracted.Title != "Country Bread" || len(resp.Extracted.Ingredients) != 2 {
		t.Errorf("extracted = %+v", resp.Extracted)
	}
	if resp.Discovery.Method != common.MethodJSONLD {
		t.Errorf("discovery = %+v", resp.Discovery)
	}

	// 部分結果仍是成功，步驟輸出為空陣列
	w = post(router, "/extract", `{"url":"https://example.com/half"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("partial status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"steps":[]`) || !strings.Contains(w.Body.String(), `"partial":true`) {
		t.Errorf("partial body = %s", w.Body.String())
	}

	w = post(router, "/extract", `{"url":"https://example.com/missing"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("fetch failure status = %d, want 502", w.Code)
	}
	var errResp common.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &errResp)
	if errResp.OK || errResp.Code != common.ErrCodeFetchFailed || errResp.Message != "source could not be fetched" {
		t.Errorf("error response = %+v", errResp)
	}
	if !strings.Contains(errResp.Details, "404") {
		t.Errorf("details = %q, want wrapped cause outside release mode", errResp.Details)
	}
}

// TestHandleExtractInvalid 缺少網址或擷取器回報無效網址時為 400
func TestHandleExtractInvalid(t *testing.T) {
	extractor := &fakeExtractor{}
	router := newTestRouter(extractor)

	w := post(router, "/extract", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing url status = %d", w.Code)
	}
	if len(extractor.calls) != 0 {
		t.Error("extractor should not run without a url")
	}

	extractor.err = common.ErrInvalidURL
	w = post(router, "/extract", `{"url":"ftp://example.com"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), common.ErrCodeInvalidURL) {
		t.Errorf("invalid url = %d %s", w.Code, w.Body.String())
	}

	extractor.err = common.ErrUnsupportedURL
	w = post(router, "/extract", `{"url":"https://www.youtube.com/"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), common.ErrCodeUnsupportedURL) {
		t.Errorf("unsupported url = %d %s", w.Code, w.Body.String())
	}

	extractor.err = fmt.Errorf("unexpected")
	w = post(router, "/extract", `{"url":"https://example.com"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("plain error status = %d, want 500", w.Code)
	}
}

// TestHandleNormalize 手動輸入轉為完整食譜
func TestHandleNormalize(t *testing.T) {
	router := newTestRouter(&fakeExtractor{})

	body := `{
		"title": "Garlic Noodles",
		"servings": 2,
		"ingredients_raw": "200 g noodles\n3 cloves garlic, minced\n2 tbsp butter",
		"steps_raw": "1. Boil the noodles.\n2. Melt the butter and cook the garlic.\n3. Toss the noodles with the garlic butter."
	}`
	w := post(router, "/normalize", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}

	var recipe recipeCore.Recipe
	if err := json.Unmarshal(w.Body.Bytes(), &recipe); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if recipe.Meta.Title != "Garlic Noodles" || recipe.Meta.Slug != "garlic-noodles" || recipe.Meta.Servings != 2 {
		t.Errorf("meta = %+v", recipe.Meta)
	}
	if recipe.Meta.SourceType != common.SourceManual || recipe.Citation.ExtractionMethod != common.MethodManualInput {
		t.Errorf("manual provenance missing: %+v", recipe.Citation)
	}
	if len(recipe.Ingredients) != 3 || len(recipe.Steps) != 3 {
		t.Errorf("ingredients = %d, steps = %d", len(recipe.Ingredients), len(recipe.Steps))
	}
	if !strings.HasPrefix(recipe.Markdown, "# Garlic Noodles") {
		t.Errorf("markdown = %q", recipe.Markdown)
	}
}

// TestHandleNormalizeEmpty 沒有食材也沒有步驟時為 400
func TestHandleNormalizeEmpty(t *testing.T) {
	router := newTestRouter(&fakeExtractor{})

	for _, body := range []string{`{"title":"Nothing"}`, `{"ingredients_raw":"  ","steps_raw":"\n"}`, `not json`} {
		w := post(router, "/normalize", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, w.Code)
			continue
		}
		var resp common.ErrorResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Code != common.ErrCodeInvalidRequest {
			t.Errorf("%s: code = %q", body, resp.Code)
		}
	}
}

// TestHandleImport 擷取後正規化並保留來源追蹤
func TestHandleImport(t *testing.T) {
	extractor := &fakeExtractor{results: map[string]*common.ExtractionResult{
		"https://example.com/bread": breadResult(),
	}}
	router := newTestRouter(extractor)

	w := post(router, "/import", `{"url":"https://example.com/bread","servings":8}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}

	var resp ImportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.Partial || resp.Recipe == nil {
		t.Fatalf("response = %+v", resp)
	}
	meta := resp.Recipe.Meta
	if meta.SourceURL != "https://example.com/bread" || meta.Servings != 8 || meta.SourceType != common.SourceWeb {
		t.Errorf("meta = %+v", meta)
	}
	citation := resp.Recipe.Citation
	if citation.ExtractionMethod != common.MethodJSONLD || citation.CreditLine != "Recipe by Ana." {
		t.Errorf("citation = %+v", citation)
	}
	if len(resp.Recipe.Discovery.Notes) != 1 {
		t.Errorf("discovery notes = %v", resp.Recipe.Discovery.Notes)
	}

	w = post(router, "/import", `{"url":"https://example.com/missing"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("fetch failure status = %d", w.Code)
	}
}

// TestHandlePreview Markdown 轉為 HTML 頁面
func TestHandlePreview(t *testing.T) {
	router := newTestRouter(&fakeExtractor{})

	w := post(router, "/preview", `{"title":"Mac & Cheese","ingredients_raw":"2 cups macaroni\n1 cup cheddar","steps_raw":"Boil the macaroni.\nStir in the cheddar."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}

	page := w.Body.String()
	for _, want := range []string{"<!doctype html>", "<title>Mac &amp; Cheese</title>", "<h1>", "<table>"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}

	if w := post(router, "/preview", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty preview status = %d", w.Code)
	}
}
