package common

// SourceType 食譜來源類型
type SourceType string

const (
	SourceWeb     SourceType = "web"
	SourceYouTube SourceType = "youtube"
	SourceManual  SourceType = "manual"
)

// Label 來源類型的顯示名稱
func (t SourceType) Label() string {
	switch t {
	case SourceWeb:
		return "Web Article"
	case SourceYouTube:
		return "YouTube Video"
	default:
		return "Original Recipe"
	}
}

// 擷取方式（provenance）
const (
	MethodJSONLD                = "jsonld-recipe"
	MethodHTMLHeuristics        = "html-heuristics"
	MethodLinkedRecipe          = "youtube-linked-recipe"
	MethodTranscriptHeuristics  = "youtube-transcript-heuristics"
	MethodDescriptionHeuristics = "youtube-description-heuristics"
	MethodManualInput           = "manual-input"
)

// Discovery 擷取過程的來源追蹤
type Discovery struct {
	Method              string     `json:"method"`
	DetectedType        SourceType `json:"detected_type"`
	TranscriptAvailable bool       `json:"transcript_available"`
	RecipeLinks         []string   `json:"recipe_links"`
	Notes               []string   `json:"notes"`
}

// ExtractionResult 單次擷取的結果，交給手動輸入流程當作使用者輸入
type ExtractionResult struct {
	DetectedType SourceType `json:"detected_type"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	ImageURL     string     `json:"image_url"`
	Ingredients  []string   `json:"ingredients"`
	Steps        []string   `json:"steps"`
	CreditNotes  string     `json:"credit_notes"`
	Discovery    Discovery  `json:"discovery"`
}

// IsPartial 食材或步驟任一為空時需要使用者補充，這不是錯誤
func (r *ExtractionResult) IsPartial() bool {
	return len(r.Ingredients) == 0 || len(r.Steps) == 0
}

// AddNote 追加一條來源說明
func (d *Discovery) AddNote(note string) {
	if note == "" {
		return
	}
	d.Notes = append(d.Notes, note)
}
