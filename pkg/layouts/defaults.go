package layouts

import (
	"github.com/goliatone/go-dataviews/pkg/field"
)

// Layout option keys understood by the bundled renderers.
const (
	OptionDensity      = "density"
	OptionMediaField   = "mediaField"
	OptionPrimaryField = "primaryField"
	OptionBadgeFields  = "badgeFields"
)

// Density choices for the table layout.
var Densities = []string{"compact", "balanced", "comfortable"}

// Defaults builds the table, grid and list entries around the given
// components. A missing component leaves the entry's Component nil, which
// NewRegistry rejects.
func Defaults(components map[Type]Component) []Entry {
	return []Entry{
		{
			Type:      TypeTable,
			Label:     "Table",
			Component: components[TypeTable],
			Icon:      iconTable,
			ConfigOptions: ConfigFunc(func([]field.Field) []ConfigOption {
				return []ConfigOption{{Key: OptionDensity, Label: "Density", Choices: Densities, Default: "balanced"}}
			}),
		},
		{
			Type:      TypeGrid,
			Label:     "Grid",
			Component: components[TypeGrid],
			Icon:      iconGrid,
			ConfigOptions: ConfigFunc(func(fields []field.Field) []ConfigOption {
				return []ConfigOption{
					mediaOption(fields),
					primaryOption(fields),
					{Key: OptionBadgeFields, Label: "Badges", Choices: fieldIDs(fields, func(f field.Field) bool { return len(f.Elements) > 0 })},
				}
			}),
		},
		{
			Type:      TypeList,
			Label:     "List",
			Component: components[TypeList],
			Icon:      iconList,
			ConfigOptions: ConfigFunc(func(fields []field.Field) []ConfigOption {
				return []ConfigOption{mediaOption(fields), primaryOption(fields)}
			}),
		},
	}
}

func mediaOption(fields []field.Field) ConfigOption {
	choices := fieldIDs(fields, func(f field.Field) bool { return f.Type == field.TypeMedia })
	return ConfigOption{Key: OptionMediaField, Label: "Media field", Choices: choices, Default: first(choices)}
}

func primaryOption(fields []field.Field) ConfigOption {
	choices := fieldIDs(fields, func(f field.Field) bool { return f.Type == field.TypeText })
	return ConfigOption{Key: OptionPrimaryField, Label: "Primary field", Choices: choices, Default: first(choices)}
}

func fieldIDs(fields []field.Field, keep func(field.Field) bool) []string {
	var ids []string
	for _, f := range fields {
		if keep(f) {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// LayoutString reads a string layout option from a view, falling back to def.
func LayoutString(layout map[string]any, key, def string) string {
	if value, ok := layout[key].(string); ok && value != "" {
		return value
	}
	return def
}
