package ledger

// Theme is a pastel color assignment for one category position. Themes are a
// pure function of the ordered category list and are never stored, so
// reordering categories needs no migration of saved assignments.
type Theme struct {
	Background string `json:"background"`
	Text       string `json:"text"`
	Border     string `json:"border"`
}

var pastelThemes = []Theme{
	{Background: "#f1f5f9", Text: "#334155", Border: "#e2e8f0"}, // slate
	{Background: "#dbeafe", Text: "#1d4ed8", Border: "#bfdbfe"}, // blue
	{Background: "#cffafe", Text: "#0e7490", Border: "#a5f3fc"}, // cyan
	{Background: "#e0e7ff", Text: "#4338ca", Border: "#c7d2fe"}, // indigo
	{Background: "#f5f5f4", Text: "#44403c", Border: "#e7e5e4"}, // stone
	{Background: "#e0f2fe", Text: "#0369a1", Border: "#bae6fd"}, // sky
	{Background: "#f3f4f6", Text: "#374151", Border: "#e5e7eb"}, // gray
	{Background: "#ccfbf1", Text: "#0f766e", Border: "#99f6e4"}, // teal
}

// ThemeAt returns the theme for a category position, cycling through the
// palette.
func ThemeAt(index int) Theme {
	n := len(pastelThemes)
	return pastelThemes[((index%n)+n)%n]
}

// ThemeFor returns the theme for a named category within an ordered category
// list. Unknown names get the first theme.
func ThemeFor(categories []string, name string) Theme {
	for i, c := range categories {
		if c == name {
			return ThemeAt(i)
		}
	}
	return ThemeAt(0)
}
