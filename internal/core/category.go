package core

import "strings"

// Category is the fixed spending category shared by expenses and budgets.
type Category string

const (
	Food     Category = "food"
	Travel   Category = "travel"
	Shopping Category = "shopping"
	Rent     Category = "rent"
	Other    Category = "other"
)

// AllCategories lists categories in their canonical order.
var AllCategories = []Category{Food, Travel, Shopping, Rent, Other}

func (c Category) Valid() bool {
	switch c {
	case Food, Travel, Shopping, Rent, Other:
		return true
	default:
		return false
	}
}

// Label returns the capitalized display name ("food" -> "Food").
func (c Category) Label() string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Rank is the position of c in AllCategories, or len(AllCategories) when unknown.
func (c Category) Rank() int {
	for i, v := range AllCategories {
		if v == c {
			return i
		}
	}
	return len(AllCategories)
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}
