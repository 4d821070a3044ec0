// Package element defines the Concept value that every other alembic package
// trades in, along with the seed set, the unordered pair key used by the recipe
// cache, and name normalization.
package element

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Concept is a named, glyph-tagged discoverable unit. The JSON layout uses
// "emoji" for the glyph so persisted blobs stay readable by older clients.
type Concept struct {
	Name  string `json:"name" validate:"required,max=64,maxwords=3"`
	Glyph string `json:"emoji" validate:"required,glyph"`
}

// String renders the concept as "<glyph> <name>".
func (c Concept) String() string {
	if c.Glyph == "" {
		return c.Name
	}
	return c.Glyph + " " + c.Name
}

// Normalize trims surrounding whitespace from both fields and capitalizes the
// first character of the name.
func (c Concept) Normalize() Concept {
	return Concept{
		Name:  Capitalize(strings.TrimSpace(c.Name)),
		Glyph: strings.TrimSpace(c.Glyph),
	}
}

// Capitalize upper-cases the first rune of name and leaves the rest untouched.
func Capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

var seed = []Concept{
	{Name: "Water", Glyph: "💧"},
	{Name: "Fire", Glyph: "🔥"},
	{Name: "Earth", Glyph: "🌍"},
	{Name: "Air", Glyph: "💨"},
}

// Seed returns a fresh copy of the four base concepts every inventory starts with.
func Seed() []Concept {
	return slices.Clone(seed)
}

// Loading is the placeholder concept shown while a combination is in flight.
var Loading = Concept{Name: "Combining...", Glyph: "⏳"}
