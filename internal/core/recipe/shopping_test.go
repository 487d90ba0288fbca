package recipe

import (
	"testing"
)

func findItem(list ShoppingList, name string) (ShoppingItem, bool) {
	for _, category := range list.Categories {
		for _, item := range category.Items {
			if item.Name == name {
				return item, true
			}
		}
	}
	return ShoppingItem{}, false
}

// TestBuildShoppingListSum 相同名稱與單位的數量相加
func TestBuildShoppingListSum(t *testing.T) {
	p := NewParser(nil)
	list := BuildShoppingList(p.ParseIngredients("1 cup flour\n1 cup Flour\n1/2 cup flour"))

	if list.Len() != 1 {
		t.Fatalf("expected one item, got %+v", list)
	}
	item, _ := findItem(list, "flour")
	if item.QuantityNumber == nil || *item.QuantityNumber != 2.5 {
		t.Fatalf("quantity number = %v", item.QuantityNumber)
	}
	if item.QuantityText != "2.5" {
		t.Fatalf("quantity text = %q", item.QuantityText)
	}
}

// TestBuildShoppingListUnparseable 任一數量無法解析後永久改為文字串接
func TestBuildShoppingListUnparseable(t *testing.T) {
	ingredients := []Ingredient{
		{Name: "flour", Unit: "cup", Quantity: "1", Category: CategoryPantry},
		{Name: "flour", Unit: "cup", Quantity: "some", Category: CategoryPantry},
		{Name: "flour", Unit: "cup", Quantity: "2", Category: CategoryPantry},
	}
	list := BuildShoppingList(ingredients)

	item, ok := findItem(list, "flour")
	if !ok {
		t.Fatalf("flour missing")
	}
	if item.QuantityNumber != nil {
		t.Fatalf("expected no quantity number, got %v", *item.QuantityNumber)
	}
	if item.QuantityText != "1 + some + 2" {
		t.Fatalf("quantity text = %q", item.QuantityText)
	}
}

// TestBuildShoppingListAbsentQuantity 沒有數量的項目不影響加總，順序不拘
func TestBuildShoppingListAbsentQuantity(t *testing.T) {
	tests := []struct {
		name       string
		quantities []string
		wantNumber float64
		wantText   string
	}{
		{"absent last", []string{"2", ""}, 2, "2"},
		{"absent first", []string{"", "2"}, 2, "2"},
		{"absent between", []string{"1", "  ", "1.5"}, 2.5, "2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ingredients []Ingredient
			for _, q := range tt.quantities {
				ingredients = append(ingredients, Ingredient{Name: "garlic", Unit: "clove", Quantity: q, Category: CategoryProduce})
			}
			item, ok := findItem(BuildShoppingList(ingredients), "garlic")
			if !ok {
				t.Fatal("garlic missing")
			}
			if item.QuantityNumber == nil || *item.QuantityNumber != tt.wantNumber {
				t.Fatalf("quantity number = %v, want %v", item.QuantityNumber, tt.wantNumber)
			}
			if item.QuantityText != tt.wantText {
				t.Fatalf("quantity text = %q, want %q", item.QuantityText, tt.wantText)
			}
		})
	}

	// 全部沒有數量時沒有數值
	item, _ := findItem(BuildShoppingList([]Ingredient{
		{Name: "parsley", Category: CategoryProduce},
		{Name: "parsley", Category: CategoryProduce},
	}), "parsley")
	if item.QuantityNumber != nil || item.QuantityText != "" {
		t.Fatalf("unexpected item %+v", item)
	}
}

// TestBuildShoppingListNonLatinNames 非拉丁文字名稱依原名合併，不同名稱不互相吞併
func TestBuildShoppingListNonLatinNames(t *testing.T) {
	ingredients := []Ingredient{
		{Name: "鹽", Unit: "g", Quantity: "5", Category: CategorySpice},
		{Name: "糖", Unit: "g", Quantity: "20", Category: CategoryPantry},
		{Name: "鹽", Unit: "g", Quantity: "3", Category: CategorySpice},
	}
	list := BuildShoppingList(ingredients)

	if list.Len() != 2 {
		t.Fatalf("expected two items, got %+v", list)
	}
	salt, _ := findItem(list, "鹽")
	if salt.QuantityNumber == nil || *salt.QuantityNumber != 8 {
		t.Errorf("salt = %+v", salt)
	}
	sugar, _ := findItem(list, "糖")
	if sugar.QuantityNumber == nil || *sugar.QuantityNumber != 20 {
		t.Errorf("sugar = %+v", sugar)
	}
}

// TestBuildShoppingListGrouping 分類與項目皆依字母排序，不同單位不合併
func TestBuildShoppingListGrouping(t *testing.T) {
	p := NewParser(nil)
	list := BuildShoppingList(p.ParseIngredients(
		"2 tbsp olive oil\n1 onion\n1 tsp cumin\n200 g chicken\n1 cup milk\n2 tbsp onion\nsaffron",
	))

	var names []string
	for _, category := range list.Categories {
		names = append(names, string(category.Name))
	}
	want := []string{"Dairy", "Other", "Pantry", "Produce", "Protein", "Spice"}
	if len(names) != len(want) {
		t.Fatalf("categories = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("categories = %v, want %v", names, want)
		}
	}

	for _, category := range list.Categories {
		if category.Name == CategoryProduce && len(category.Items) != 2 {
			t.Fatalf("produce items = %+v", category.Items)
		}
	}

	saffron, _ := findItem(list, "saffron")
	if saffron.QuantityNumber != nil || saffron.QuantityText != "" {
		t.Fatalf("saffron = %+v", saffron)
	}
}
