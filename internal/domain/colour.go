package domain

import "strings"

// ColourRule pairs a lowercase headline keyword with a display colour.
type ColourRule struct {
	Keyword string
	Colour  string
}

// DefaultColour is assigned when no rule matches.
const DefaultColour = "#BEB4C5"

// ColourRules is evaluated in order; the first keyword found wins.
var ColourRules = []ColourRule{
	{Keyword: "heat", Colour: "#EB96AA"},
	{Keyword: "red", Colour: "#C54B6C"},
	{Keyword: "fire", Colour: "#C54B6C"},
	{Keyword: "flood", Colour: "#B6D8F2"},
	{Keyword: "wind", Colour: "#5784BA"},
	{Keyword: "thunderstorm", Colour: "#F7CE76"},
}

// Classify returns the display colour for an alert headline.
func Classify(headline string) string {
	h := strings.ToLower(headline)
	for _, r := range ColourRules {
		if strings.Contains(h, r.Keyword) {
			return r.Colour
		}
	}
	return DefaultColour
}

// Palette returns every colour Classify can produce.
func Palette() map[string]struct{} {
	p := map[string]struct{}{DefaultColour: {}}
	for _, r := range ColourRules {
		p[r.Colour] = struct{}{}
	}
	return p
}
