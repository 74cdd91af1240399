// Package icon maps logical icon names to a closed set of renderable glyphs.
package icon

import "strings"

// Icon identifies one renderable glyph.
type Icon int

const (
	Smile Icon = iota
	Check
	CheckCircle
	ChevronRight
	Circle
	Clock
	List
	Plus
	Trash2
	Moon
	Sun
	Home
	AlertTriangle
)

// Default is returned when a name cannot be resolved.
const Default = Smile

var names = map[Icon]string{
	Smile:         "Smile",
	Check:         "Check",
	CheckCircle:   "CheckCircle",
	ChevronRight:  "ChevronRight",
	Circle:        "Circle",
	Clock:         "Clock",
	List:          "List",
	Plus:          "Plus",
	Trash2:        "Trash2",
	Moon:          "Moon",
	Sun:           "Sun",
	Home:          "Home",
	AlertTriangle: "AlertTriangle",
}

var glyphs = map[Icon]string{
	Smile:         "🙂",
	Check:         "✔",
	CheckCircle:   "✅",
	ChevronRight:  "›",
	Circle:        "○",
	Clock:         "⏰",
	List:          "📋",
	Plus:          "➕",
	Trash2:        "🗑",
	Moon:          "🌙",
	Sun:           "☀️",
	Home:          "🏠",
	AlertTriangle: "⚠️",
}

var byName = func() map[string]Icon {
	m := make(map[string]Icon, len(names))
	for i, n := range names {
		m[n] = i
	}
	return m
}()

// Resolve looks name up directly, then as kebab-case converted to title case,
// and falls back to Default.
func Resolve(name string) Icon {
	if i, ok := byName[name]; ok {
		return i
	}
	if i, ok := byName[kebabToTitle(name)]; ok {
		return i
	}
	return Default
}

// Name returns the canonical icon name.
func (i Icon) Name() string {
	if n, ok := names[i]; ok {
		return n
	}
	return names[Default]
}

// Glyph returns the text rendering of the icon.
func (i Icon) Glyph() string {
	if g, ok := glyphs[i]; ok {
		return g
	}
	return glyphs[Default]
}

func (i Icon) String() string { return i.Name() }

// Glyph resolves name and returns its rendering.
func Glyph(name string) string {
	return Resolve(name).Glyph()
}

func kebabToTitle(name string) string {
	parts := strings.Split(name, "-")
	var sb strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}
