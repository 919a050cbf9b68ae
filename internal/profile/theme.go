package profile

import "strings"

// Theme is a background gradient a user can pick in settings. Value is what
// gets stored on the user.
type Theme struct {
	Name   string
	Value  string
	Stops  []string
	Preset bool
}

// DefaultOverlay darkens a background image when no color is set.
const DefaultOverlay = "rgba(0, 0, 0, 0.5)"

var themes = []Theme{
	{Name: "Default", Value: "from-indigo-900 via-purple-900 to-pink-800", Stops: []string{"#312e81", "#581c87", "#9d174d"}},
	{Name: "Sunset", Value: "from-orange-500 via-red-600 to-purple-700", Stops: []string{"#f97316", "#dc2626", "#7e22ce"}},
	{Name: "Ocean", Value: "from-blue-600 via-cyan-700 to-teal-800", Stops: []string{"#2563eb", "#0e7490", "#115e59"}},
	{Name: "Forest", Value: "from-green-600 via-emerald-700 to-teal-800", Stops: []string{"#16a34a", "#047857", "#115e59"}},
	{Name: "Midnight", Value: "from-blue-900 via-indigo-900 to-violet-900", Stops: []string{"#1e3a8a", "#312e81", "#4c1d95"}},
	{Name: "Cherry", Value: "from-pink-600 via-red-700 to-rose-800", Stops: []string{"#db2777", "#b91c1c", "#9f1239"}},
	{Name: "Autumn", Value: "from-amber-500 via-orange-600 to-red-700", Stops: []string{"#f59e0b", "#ea580c", "#b91c1c"}},
	{Name: "Dawn", Value: "from-rose-400 via-pink-500 to-purple-600", Stops: []string{"#fb7185", "#ec4899", "#9333ea"}},
}

// Themes returns the selectable themes, default first.
func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// ThemeFor resolves a stored theme value. Unknown, empty and "default" values
// fall back to the default theme.
func ThemeFor(value string) Theme {
	v := strings.TrimSpace(value)
	for _, t := range themes {
		if t.Value == v || strings.EqualFold(t.Name, v) {
			return t
		}
	}
	return themes[0]
}

// Gradient is the CSS gradient for the theme.
func (t Theme) Gradient() string {
	return "linear-gradient(to bottom right, " + strings.Join(t.Stops, ", ") + ")"
}
