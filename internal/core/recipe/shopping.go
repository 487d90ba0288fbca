package recipe

import (
	"sort"
	"strings"

	"miseflow/internal/pkg/common"
)

// shoppingGroup 合併中的項目；numeric 一旦為 false 就不再恢復
//
// 沒有數量的項目不參與加總；pending 表示目前為止都沒有數量。
type shoppingGroup struct {
	item    ShoppingItem
	total   float64
	numeric bool
	pending bool
}

func newShoppingGroup(ingredient Ingredient) *shoppingGroup {
	group := &shoppingGroup{
		item: ShoppingItem{
			Name:         ingredient.Name,
			Unit:         ingredient.Unit,
			Category:     ingredient.Category,
			QuantityText: ingredient.Quantity,
		},
		pending: strings.TrimSpace(ingredient.Quantity) == "",
	}
	if !group.pending {
		group.total, group.numeric = ParseQuantity(ingredient.Quantity)
	}
	return group
}

func (g *shoppingGroup) add(quantity string) {
	if strings.TrimSpace(quantity) == "" {
		return
	}
	value, ok := ParseQuantity(quantity)
	if g.pending {
		g.pending = false
		g.total, g.numeric = value, ok
		g.item.QuantityText = quantity
		return
	}
	if g.numeric && ok {
		g.total += value
		g.item.QuantityText = FormatQuantity(g.total)
		return
	}
	g.numeric = false
	g.item.QuantityText = joinNonEmpty([]string{g.item.QuantityText, quantity}, " + ")
}

// shoppingKey 合併鍵；名稱正規化後為空（如非拉丁文字）時退回小寫原名
func shoppingKey(ingredient Ingredient) string {
	name := common.NormalizeForMatch(ingredient.Name)
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(ingredient.Name))
	}
	return name + "|" + strings.ToLower(ingredient.Unit)
}

// BuildShoppingList 以（正規化名稱, 單位）合併食材並依分類分組
//
// 分類依名稱字母排序，分類內項目依名稱排序。
func BuildShoppingList(ingredients []Ingredient) ShoppingList {
	groups := make(map[string]*shoppingGroup)
	order := make([]string, 0, len(ingredients))

	for _, ingredient := range ingredients {
		key := shoppingKey(ingredient)

		group, ok := groups[key]
		if !ok {
			groups[key] = newShoppingGroup(ingredient)
			order = append(order, key)
			continue
		}
		group.add(ingredient.Quantity)
	}

	byCategory := make(map[Category][]ShoppingItem)
	for _, key := range order {
		group := groups[key]
		item := group.item
		if group.numeric {
			total := group.total
			item.QuantityNumber = &total
		}
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	names := make([]string, 0, len(byCategory))
	for category := range byCategory {
		names = append(names, string(category))
	}
	sort.Strings(names)

	list := ShoppingList{Categories: make([]ShoppingCategory, 0, len(names))}
	for _, name := range names {
		items := byCategory[Category(name)]
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		})
		list.Categories = append(list.Categories, ShoppingCategory{Name: Category(name), Items: items})
	}
	return list
}
