package domain

import "strings"

// UnknownSpecies is stored for empty or unrecognised species values.
const UnknownSpecies = "Unknown"

// Species is a known UK tick species.
type Species struct {
	Name      string `json:"species"`
	LatinName string `json:"latin_name"`
}

var knownSpecies = []Species{
	{Name: "Marsh tick", LatinName: "Dermacentor reticulatus"},
	{Name: "Southern rodent tick", LatinName: "Ixodes acuminatus"},
	{Name: "Passerine tick", LatinName: "Dermacentor frontalis"},
	{Name: "Fox/badger tick", LatinName: "Ixodes canisuga"},
	{Name: "Tree-hole tick", LatinName: "Ixodes arboricola"},
	{Name: "Sheep tick", LatinName: "Ixodes ricinus"},
	{Name: "Hedgehog tick", LatinName: "Ixodes hexagonus"},
}

var speciesIndex = buildSpeciesIndex()

func buildSpeciesIndex() map[string]Species {
	idx := make(map[string]Species, 2*len(knownSpecies))
	for _, s := range knownSpecies {
		idx[foldKey(s.Name)] = s
		idx[foldKey(s.LatinName)] = s
	}
	return idx
}

// KnownSpecies returns the closed set of recognised species.
func KnownSpecies() []Species {
	out := make([]Species, len(knownSpecies))
	copy(out, knownSpecies)
	return out
}

// NormalizeSpecies resolves a species by common name first, then latin name.
// Unrecognised input yields UnknownSpecies with an empty latin name.
func NormalizeSpecies(name, latin string) Species {
	if s, ok := speciesIndex[foldKey(name)]; ok {
		return s
	}
	if s, ok := speciesIndex[foldKey(latin)]; ok {
		return s
	}
	return Species{Name: UnknownSpecies}
}

// foldKey lowercases and collapses internal whitespace.
func foldKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
