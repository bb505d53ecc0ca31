// Package units maps free-text unit-of-measure strings to canonical unit
// records. Matching is pure and deterministic: exact name match first,
// then a fixed English/French synonym table, then a substring fallback.
// A miss returns nil, never an error.
package units

import (
	"regexp"
	"strings"

	"github.com/buildflow/subcontractor-api/internal/domain"
)

var superscripts = strings.NewReplacer(
	"⁰", "0", "¹", "1", "²", "2", "³", "3", "⁴", "4",
	"⁵", "5", "⁶", "6", "⁷", "7", "⁸", "8", "⁹", "9",
	"₀", "0", "₁", "1", "₂", "2", "₃", "3", "₄", "4",
	"₅", "5", "₆", "6", "₇", "7", "₈", "8", "₉", "9",
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize canonicalizes a unit string for comparison: lowercase, trimmed,
// internal whitespace collapsed and superscript/subscript digits rewritten
// as plain digits, so "M²" and " m2 " compare equal.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = superscripts.Replace(s)
	return whitespaceRun.ReplaceAllString(s, " ")
}

// synonymTable maps a canonical short form to its known variants across
// symbol styles, English and French. All entries are stored normalized.
var synonymTable = map[string][]string{
	"m2": {
		"m 2", "sqm", "sq m", "sq.m", "square meter", "square meters",
		"square metre", "square metres", "metre carre", "metres carres",
		"mètre carré", "mètres carrés", "m.carré",
	},
	"m3": {
		"m 3", "cum", "cu m", "cubic meter", "cubic meters",
		"cubic metre", "cubic metres", "metre cube", "metres cubes",
		"mètre cube", "mètres cubes",
	},
	"m": {
		"meter", "meters", "metre", "metres", "mètre", "mètres",
		"linear meter",
	},
	"lm": {
		"linear metre", "running meter", "metre lineaire", "mètre linéaire",
		"ml.",
	},
	"kg": {
		"kilo", "kilos", "kgs", "kilogram", "kilograms", "kilogramme",
		"kilogrammes",
	},
	"g":   {"gram", "grams", "gramme", "grammes"},
	"t":   {"ton", "tons", "tonne", "tonnes", "mt"},
	"pcs": {"pc", "piece", "pieces", "pièce", "pièces", "nr", "no.", "nb", "u", "unit", "unité"},
	"each": {
		"ea", "item", "items",
	},
	"ens": {"ensemble", "ensembles", "set", "sets", "lot", "lots", "ls", "lump sum", "forfait"},
	"h":   {"hr", "hrs", "hour", "hours", "heure", "heures"},
	"day": {"d", "days", "jour", "jours", "j"},
	"cm":  {"centimeter", "centimeters", "centimetre", "centimetres", "centimètre", "centimètres"},
	"mm":  {"millimeter", "millimeters", "millimetre", "millimetres", "millimètre", "millimètres"},
	"l":   {"lt", "ltr", "liter", "liters", "litre", "litres"},
	"ml":  {"milliliter", "milliliters", "millilitre", "millilitres"},
}

// synonymIndex maps every normalized variant (and each canonical form
// itself) to its canonical short form, built once so lookups stay
// deterministic regardless of table iteration order.
var synonymIndex = buildSynonymIndex()

func buildSynonymIndex() map[string]string {
	index := make(map[string]string)
	for canonical, variants := range synonymTable {
		index[canonical] = canonical
		for _, v := range variants {
			index[Normalize(v)] = canonical
		}
	}
	return index
}

// canonicalFor returns the canonical short form whose synonym set contains
// the normalized input, or "" when the input hits no table entry.
func canonicalFor(normalized string) string {
	return synonymIndex[normalized]
}

// FindBestMatch maps a free-text unit string to one candidate unit, with
// strict precedence: exact normalized match, then synonym-table match,
// then bidirectional substring. Candidate list order breaks ties. Returns
// nil when nothing matches; a miss is an expected outcome, not an error.
func FindBestMatch(input string, candidates []domain.Unit) *domain.Unit {
	normalized := Normalize(input)
	if normalized == "" {
		return nil
	}

	for i := range candidates {
		if Normalize(candidates[i].Name) == normalized {
			return &candidates[i]
		}
	}

	// A synonym-table hit is authoritative: when none of the candidates
	// carries the canonical form, that is a miss, not a cue to go
	// looking for substrings.
	if canonical := canonicalFor(normalized); canonical != "" {
		for i := range candidates {
			if canonicalFor(Normalize(candidates[i].Name)) == canonical {
				return &candidates[i]
			}
		}
		return nil
	}

	for i := range candidates {
		name := Normalize(candidates[i].Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, normalized) || strings.Contains(normalized, name) {
			return &candidates[i]
		}
	}

	return nil
}

var (
	shortToken    = regexp.MustCompile(`^[a-zà-ÿ]{1,5}$`)
	tokenWithExp  = regexp.MustCompile(`^[a-zà-ÿ]+[0-9]$`)
	compoundToken = regexp.MustCompile(`^[a-zà-ÿ]+/[a-zà-ÿ]+[0-9]?$`)
)

// IsLikelyUnit reports whether free text plausibly denotes a unit of
// measure: a synonym-table hit, a short alphabetic token, a token with a
// trailing (super/subscript) digit, or a compound like "kg/m³". Heuristic
// only; authoritative matching goes through FindBestMatch.
func IsLikelyUnit(text string) bool {
	normalized := Normalize(text)
	if normalized == "" {
		return false
	}
	if canonicalFor(normalized) != "" {
		return true
	}
	return shortToken.MatchString(normalized) ||
		tokenWithExp.MatchString(normalized) ||
		compoundToken.MatchString(normalized)
}
