package recipe

// Category 購物分類
type Category string

const (
	CategoryProduce Category = "Produce"
	CategoryProtein Category = "Protein"
	CategoryDairy   Category = "Dairy"
	CategorySpice   Category = "Spice"
	CategoryPantry  Category = "Pantry"
	CategoryOther   Category = "Other"
)

// CategoryRule 關鍵字命中即歸入該分類；規則順序即優先順序
type CategoryRule struct {
	Category Category
	Words    []string
}

// Rules 解析器使用的固定詞表
//
// 詞表僅涵蓋英文用語，非英文食譜多半退化為整行當作食材名稱。
type Rules struct {
	Stopwords      []string
	Categories     []CategoryRule
	Units          []string
	PrepVerbs      []string
	KeepSeparate   []string // 食材原文中的「分開放」用語
	SeparateInStep []string // 步驟中的「分次加入」用語
	PreheatWords   []string
	MaxKeywords    int
}

// DefaultRules 預設英文詞表，每次呼叫回傳新副本
func DefaultRules() *Rules {
	return &Rules{
		Stopwords: []string{
			"and", "the", "for", "with", "into", "from", "fresh", "large", "small", "medium",
			"optional", "taste", "plus", "more", "divided", "extra", "about", "roughly",
			"finely", "coarsely", "chopped", "diced", "minced", "sliced", "to",
		},
		Categories: []CategoryRule{
			{CategoryProduce, []string{"onion", "garlic", "tomato", "pepper", "lemon", "lime", "herb", "cilantro", "parsley", "spinach", "carrot", "celery", "potato", "scallion", "ginger", "mushroom"}},
			{CategoryProtein, []string{"chicken", "beef", "pork", "fish", "shrimp", "tofu", "egg", "turkey", "salmon", "lamb", "sausage"}},
			{CategoryDairy, []string{"milk", "cream", "yogurt", "butter", "cheese", "parmesan", "mozzarella", "feta"}},
			{CategorySpice, []string{"pepper", "paprika", "cumin", "turmeric", "coriander", "cinnamon", "oregano", "thyme", "rosemary", "chili", "flake", "powder"}},
			{CategoryPantry, []string{"oil", "vinegar", "soy", "pasta", "rice", "bean", "flour", "sugar", "salt", "stock", "broth", "mustard", "honey", "sauce"}},
		},
		Units: []string{
			"cups", "cup", "tbsp", "tablespoons", "tablespoon", "tsp", "teaspoons", "teaspoon",
			"pounds", "pound", "lbs", "lb", "ounces", "ounce", "oz", "grams", "gram", "g",
			"kilograms", "kilogram", "kg", "ml", "l", "cloves", "clove", "cans", "can",
			"packages", "package", "pkg", "pinch", "dash", "slices", "slice",
		},
		PrepVerbs: []string{
			"minced", "chopped", "diced", "sliced", "julienned", "peeled", "grated", "rinsed",
			"drained", "melted", "softened", "beaten", "whisked", "crushed",
		},
		KeepSeparate:   []string{"divided", "for garnish", "for serving", "reserved", "optional topping"},
		SeparateInStep: []string{"one at a time", "separately", "set aside"},
		PreheatWords:   []string{"preheat"},
		MaxKeywords:    5,
	}
}
