package recipe

import (
	"context"
	"errors"
	"html"
	"net/http"
	"strings"

	recipeCore "miseflow/internal/core/recipe"
	"miseflow/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Extractor 依網址擷取食譜
type Extractor interface {
	Extract(ctx context.Context, url string) (*common.ExtractionResult, error)
}

// ExtractRequest 擷取請求
type ExtractRequest struct {
	URL string `json:"url" binding:"required"`
}

// ExtractedRecipe 擷取出的原始欄位
type ExtractedRecipe struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	ImageURL    string   `json:"image_url"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	CreditNotes string   `json:"credit_notes"`
}

// ExtractResponse 擷取響應
type ExtractResponse struct {
	OK           bool              `json:"ok"`
	DetectedType common.SourceType `json:"detected_type"`
	Extracted    ExtractedRecipe   `json:"extracted"`
	Discovery    common.Discovery  `json:"discovery"`
	Partial      bool              `json:"partial"`
}

// NormalizeRequest 手動輸入或編輯後的食譜文字
type NormalizeRequest struct {
	Title          string            `json:"title"`
	Author         string            `json:"author"`
	SourceType     common.SourceType `json:"source_type"`
	SourceURL      string            `json:"source_url"`
	ImageURL       string            `json:"image_url"`
	CreditNotes    string            `json:"credit_notes"`
	Servings       float64           `json:"servings"`
	IngredientsRaw string            `json:"ingredients_raw"`
	StepsRaw       string            `json:"steps_raw"`
	Discovery      *common.Discovery `json:"discovery,omitempty"`
}

// ImportRequest 擷取並正規化
type ImportRequest struct {
	URL      string  `json:"url" binding:"required"`
	Servings float64 `json:"servings"`
}

// ImportResponse 匯入響應
type ImportResponse struct {
	OK      bool               `json:"ok"`
	Partial bool               `json:"partial"`
	Recipe  *recipeCore.Recipe `json:"recipe"`
}

// Handler 食譜處理程序
type Handler struct {
	extractor  Extractor
	normalizer *recipeCore.Normalizer
}

// NewHandler 創建新的食譜處理程序
func NewHandler(extractor Extractor, normalizer *recipeCore.Normalizer) *Handler {
	if normalizer == nil {
		normalizer = recipeCore.NewNormalizer(nil)
	}
	return &Handler{
		extractor:  extractor,
		normalizer: normalizer,
	}
}

// HandleExtract 擷取網頁或影片中的食譜
func (h *Handler) HandleExtract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.Wrap(common.ErrInvalidURL, "", err))
		return
	}

	result, err := h.extractor.Extract(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ExtractResponse{
		OK:           true,
		DetectedType: result.DetectedType,
		Extracted: ExtractedRecipe{
			Title:       result.Title,
			Author:      result.Author,
			ImageURL:    result.ImageURL,
			Ingredients: nonNil(result.Ingredients),
			Steps:       nonNil(result.Steps),
			CreditNotes: result.CreditNotes,
		},
		Discovery: result.Discovery,
		Partial:   result.IsPartial(),
	})
}

// HandleNormalize 將文字轉為完整食譜
func (h *Handler) HandleNormalize(c *gin.Context) {
	req, ok := bindNormalize(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.normalizer.Normalize(req))
}

// HandleImport 擷取後直接正規化
func (h *Handler) HandleImport(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.Wrap(common.ErrInvalidURL, "", err))
		return
	}

	result, err := h.extractor.Extract(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe := h.normalizer.FromExtraction(result, strings.TrimSpace(req.URL), req.Servings)
	common.LogInfo("食譜匯入完成",
		zap.String("request_id", requestid.Get(c)),
		zap.String("slug", recipe.Meta.Slug),
		zap.String("method", recipe.Citation.ExtractionMethod),
	)

	c.JSON(http.StatusOK, ImportResponse{
		OK:      true,
		Partial: result.IsPartial(),
		Recipe:  recipe,
	})
}

// HandlePreview 以 HTML 預覽 Markdown 匯出
func (h *Handler) HandlePreview(c *gin.Context) {
	req, ok := bindNormalize(c)
	if !ok {
		return
	}

	recipe := h.normalizer.Normalize(req)
	body, err := recipeCore.RenderHTML(recipe.Markdown)
	if err != nil {
		respondError(c, common.Wrap(common.ErrInternalError, "preview could not be rendered", err))
		return
	}

	var page strings.Builder
	page.WriteString("<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>")
	page.WriteString(html.EscapeString(recipe.Meta.Title))
	page.WriteString("</title></head><body>\n")
	page.WriteString(body)
	page.WriteString("</body></html>\n")

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.String()))
}

func bindNormalize(c *gin.Context) (recipeCore.NormalizeRequest, bool) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.Wrap(common.ErrInvalidRequest, "invalid request format", err))
		return recipeCore.NormalizeRequest{}, false
	}
	if strings.TrimSpace(req.IngredientsRaw) == "" && strings.TrimSpace(req.StepsRaw) == "" {
		respondError(c, common.Wrap(common.ErrInvalidRequest, "ingredients or steps are required", nil))
		return recipeCore.NormalizeRequest{}, false
	}

	return recipeCore.NormalizeRequest{
		Title:          req.Title,
		Author:         req.Author,
		SourceType:     req.SourceType,
		SourceURL:      req.SourceURL,
		ImageURL:       req.ImageURL,
		CreditNotes:    req.CreditNotes,
		Servings:       req.Servings,
		IngredientsRaw: req.IngredientsRaw,
		StepsRaw:       req.StepsRaw,
		Discovery:      req.Discovery,
	}, true
}

// respondError 依錯誤類型輸出 ErrorResponse
func respondError(c *gin.Context, err error) {
	status := common.StatusOf(err)
	response := common.ErrorResponse{
		OK:      false,
		Code:    common.CodeOf(err),
		Message: err.Error(),
	}

	var ce *common.CustomError
	if errors.As(err, &ce) {
		response.Message = ce.Message
		if ce.Err != nil && gin.Mode() != gin.ReleaseMode {
			response.Details = ce.Err.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗",
			zap.String("request_id", requestid.Get(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, response)
}

func nonNil(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}
