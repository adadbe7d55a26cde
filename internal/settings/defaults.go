package settings

import "github.com/roach88/gridprefs/internal/grid"

// BuiltinDefaults returns the built-in value of every category.
func BuiltinDefaults() map[Category]grid.OptionBag {
	return map[Category]grid.OptionBag{
		Toolbar: {
			"fontFamily": "system-ui",
			"fontSize":   13,
			"density":    "normal",
		},
		GridOptions: {
			"rowHeight":    28,
			"headerHeight": 32,
			"animateRows":  true,
			grid.OptionDefaultColDef: map[string]any{
				"verticalAlign":   "middle",
				"horizontalAlign": "default",
				"resizable":       true,
				"sortable":        true,
			},
		},
		Column: {},
		Filter: {"floatingFilters": false},
		Theme:  {"mode": "light"},
		Export: {"fileName": "export", "format": "csv"},
		Sort:   {"multiSort": false},
		Group:  {"groupDisplayType": "singleColumn"},
	}
}
