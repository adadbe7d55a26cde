package settings

import (
	"errors"
	"fmt"
)

// Category is one named partition of the store.
type Category string

// Categories.
const (
	Toolbar     Category = "toolbar"
	GridOptions Category = "gridOptions"
	Column      Category = "column"
	Filter      Category = "filter"
	Theme       Category = "theme"
	Export      Category = "export"
	Sort        Category = "sort"
	Group       Category = "group"
)

// Categories lists every category in a fixed order.
var Categories = []Category{Toolbar, GridOptions, Column, Filter, Theme, Export, Sort, Group}

// ErrUnknownCategory is returned for a category outside Categories.
var ErrUnknownCategory = errors.New("unknown settings category")

// ParseCategory validates a category name.
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}
