package html

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Theme is the resolved theme a page renders with.
type Theme struct {
	Name    string
	Variant string
	Tokens  map[string]string
	Vars    map[string]string
}

// CSSVars renders the theme's CSS variables as a ":root" block, sorted by
// name. Values containing characters that could end the declaration are
// dropped.
func (t Theme) CSSVars() string {
	if len(t.Vars) == 0 {
		return ""
	}
	names := make([]string, 0, len(t.Vars))
	for name := range t.Vars {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(":root{")
	for _, name := range names {
		key := cssIdent(name)
		value := strings.TrimSpace(t.Vars[name])
		if key == "" || value == "" || strings.ContainsAny(value, ";{}<>\\") {
			continue
		}
		fmt.Fprintf(&b, "--%s:%s;", key, value)
	}
	b.WriteString("}")
	return b.String()
}

func cssIdent(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "--")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == '.' || r == ' ':
			b.WriteRune('-')
		}
	}
	return b.String()
}

// resolveTheme asks the selector for a theme. Token merging and variable
// naming come from the selection.
func resolveTheme(selector theme.ThemeSelector, name, variant string) (*Theme, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("html: select theme %q: %w", name, err)
	}
	if selection == nil || selection.Manifest == nil {
		return nil, nil
	}
	return &Theme{
		Name:    selection.Theme,
		Variant: selection.Variant,
		Tokens:  selection.Tokens(),
		Vars:    selection.CSSVariables("--"),
	}, nil
}
