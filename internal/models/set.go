package models

import (
	"regexp"
	"sort"
)

// CardSet describes an expansion and the booster packs printed for it
type CardSet struct {
	Name  string   `json:"name" yaml:"name"`
	Code  string   `json:"code" yaml:"code"`
	Packs []string `json:"packs" yaml:"packs"`
}

// knownSets is the controlled vocabulary of (set_name, pack_name) pairs.
// A card whose set is not listed here is rejected.
var knownSets = []CardSet{
	{
		Name:  "Genetic Apex (A1)",
		Code:  "A1",
		Packs: []string{"(A1) Charizard", "(A1) Pikachu", "(A1) Mewtwo"},
	},
	{
		Name:  "Mythical Island (A1a)",
		Code:  "A1a",
		Packs: []string{"(A1a) Mew"},
	},
}

var setCodePattern = regexp.MustCompile(`\(([A-Za-z0-9-]+)\)`)

// KnownSets returns a copy of the set vocabulary
func KnownSets() []CardSet {
	out := make([]CardSet, len(knownSets))
	for i, s := range knownSets {
		out[i] = CardSet{Name: s.Name, Code: s.Code, Packs: append([]string(nil), s.Packs...)}
	}
	return out
}

// LookupSet finds a set by its full name
func LookupSet(name string) (CardSet, bool) {
	for _, s := range knownSets {
		if s.Name == name {
			return s, true
		}
	}
	return CardSet{}, false
}

// HasPack reports whether the pack belongs to the set
func (s CardSet) HasPack(pack string) bool {
	for _, p := range s.Packs {
		if p == pack {
			return true
		}
	}
	return false
}

// SetCodeOf extracts the parenthesised set code from a set or pack name,
// e.g. "(A1a) Mew" -> "A1a". Returns "" when there is none.
func SetCodeOf(name string) string {
	m := setCodePattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

// KnownSetNames returns the sorted list of set names
func KnownSetNames() []string {
	names := make([]string, 0, len(knownSets))
	for _, s := range knownSets {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}
