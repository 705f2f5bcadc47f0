package model

import "strings"

// CategoryOther is used for items whose category is not in Categories.
const CategoryOther = "Other"

// Categories lists the grocery categories offered when adding an item.
var Categories = []string{
	"Dairy",
	"Vegetables",
	"Fruits",
	"Meat",
	"Bakery",
	"Pantry",
	"Household",
	"Personal Care",
	CategoryOther,
}

// NormalizeCategory maps free text onto one of Categories, case-insensitively.
func NormalizeCategory(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(c, trimmed) {
			return c
		}
	}
	return CategoryOther
}
