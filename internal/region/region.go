// Package region maps Brazilian state abbreviations (UF) to the numeric
// codes embedded in fiscal documents.
//
// The table is a closed set initialised once at process start. Lookups never
// fail: an abbreviation outside the set resolves to Default.
package region

import (
	"sort"
	"strings"
)

// Info holds the numeric codes for one region.
type Info struct {
	// Abbreviation is the uppercase two-letter UF.
	Abbreviation string `json:"uf"`

	// Code is the IBGE state code (cUF).
	Code string `json:"code"`

	// LocalityCode is the IBGE code of the state capital (cMun).
	LocalityCode string `json:"locality_code"`

	// LocalityName is the capital's name as written in documents (xMun).
	LocalityName string `json:"locality_name"`
}

// DefaultAbbreviation is used when the configured region is empty or unknown.
const DefaultAbbreviation = "SP"

var table = map[string]Info{
	"SP": {Abbreviation: "SP", Code: "35", LocalityCode: "3550308", LocalityName: "SAO PAULO"},
	"RJ": {Abbreviation: "RJ", Code: "33", LocalityCode: "3304557", LocalityName: "RIO DE JANEIRO"},
	"MG": {Abbreviation: "MG", Code: "31", LocalityCode: "3106200", LocalityName: "BELO HORIZONTE"},
	"PR": {Abbreviation: "PR", Code: "41", LocalityCode: "4106902", LocalityName: "CURITIBA"},
	"RS": {Abbreviation: "RS", Code: "43", LocalityCode: "4314902", LocalityName: "PORTO ALEGRE"},
	"SC": {Abbreviation: "SC", Code: "42", LocalityCode: "4205407", LocalityName: "FLORIANOPOLIS"},
}

// Default is the entry returned for unknown abbreviations.
var Default = table[DefaultAbbreviation]

func normalize(abbr string) string {
	return strings.ToUpper(strings.TrimSpace(abbr))
}

// CodesFor returns the codes for abbr (case-insensitive).
// Unknown abbreviations return Default.
func CodesFor(abbr string) Info {
	if info, ok := table[normalize(abbr)]; ok {
		return info
	}
	return Default
}

// Known reports whether abbr is in the table.
func Known(abbr string) bool {
	_, ok := table[normalize(abbr)]
	return ok
}

// Abbreviations returns the known abbreviations in sorted order.
func Abbreviations() []string {
	out := make([]string, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// All returns every entry ordered by abbreviation.
func All() []Info {
	abbrs := Abbreviations()
	out := make([]Info, len(abbrs))
	for i, a := range abbrs {
		out[i] = table[a]
	}
	return out
}
