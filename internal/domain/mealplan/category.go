package mealplan

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Category is one of the four canonical meal-time buckets.
type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryLunch     Category = "lunch"
	CategoryDinner    Category = "dinner"
	CategorySnack     Category = "snack"
)

// Categories lists every canonical category in display order.
var Categories = []Category{CategoryBreakfast, CategoryLunch, CategoryDinner, CategorySnack}

var categoryLabels = map[Category]string{
	CategoryBreakfast: "Sáng",
	CategoryLunch:     "Trưa",
	CategoryDinner:    "Tối",
	CategorySnack:     "Phụ",
}

// Label is the client-facing name of the slot.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[CategorySnack]
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Value stores only canonical values; anything else is normalized on the way in.
func (c Category) Value() (driver.Value, error) {
	return string(NormalizeCategory(string(c))), nil
}

func (c *Category) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*c = NormalizeCategory(v)
	case []byte:
		*c = NormalizeCategory(string(v))
	case nil:
		*c = CategorySnack
	default:
		return fmt.Errorf("mealplan: cannot scan %T into Category", src)
	}
	return nil
}

var categorySynonyms = func() map[string]Category {
	table := map[Category][]string{
		CategoryBreakfast: {"breakfast", "morning", "sáng", "bữa sáng", "buổi sáng", "sang", "bua sang", "điểm tâm"},
		CategoryLunch:     {"lunch", "noon", "midday", "trưa", "bữa trưa", "buổi trưa", "trua", "bua trua"},
		CategoryDinner:    {"dinner", "supper", "evening", "tối", "bữa tối", "buổi tối", "toi", "bua toi"},
		CategorySnack:     {"snack", "snacks", "other", "phụ", "bữa phụ", "ăn vặt", "phu", "bua phu"},
	}
	out := make(map[string]Category)
	for cat, words := range table {
		for _, w := range words {
			out[foldCategoryKey(w)] = cat
		}
	}
	return out
}()

// NormalizeCategory maps any spelling of a meal slot (English, Vietnamese, any case,
// composed or decomposed accents) to its canonical category. Unknown input is a snack.
func NormalizeCategory(raw string) Category {
	if cat, ok := categorySynonyms[foldCategoryKey(raw)]; ok {
		return cat
	}
	return CategorySnack
}

// LookupCategory is NormalizeCategory without the snack fallback.
func LookupCategory(raw string) (Category, bool) {
	cat, ok := categorySynonyms[foldCategoryKey(raw)]
	return cat, ok
}

// NormalizeCategoryPtr treats nil like any other unrecognized value.
func NormalizeCategoryPtr(raw *string) Category {
	if raw == nil {
		return CategorySnack
	}
	return NormalizeCategory(*raw)
}

func foldCategoryKey(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
