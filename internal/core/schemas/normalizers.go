package schemas

import (
	"regexp"
	"strings"
)

// PackageAliases maps folded package names to their conventional spelling.
var PackageAliases = map[string]string{
	"to92":     "TO-92",
	"to220":    "TO-220",
	"to247":    "TO-247",
	"to252":    "TO-252",
	"to263":    "TO-263",
	"sot23":    "SOT-23",
	"sot223":   "SOT-223",
	"sot89":    "SOT-89",
	"soic8":    "SOIC-8",
	"sop8":     "SOP-8",
	"dpak":     "DPAK",
	"d2pak":    "D2PAK",
	"powerpak": "PowerPAK",
}

// NormalizePackage rewrites common package spellings ("to92", "sot 23") to
// their canonical form. Unknown packages, including metric chip sizes such as
// "0805 (2012 Metric)", are returned trimmed.
func NormalizePackage(s string) string {
	s = strings.TrimSpace(s)
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(s))

	if canon, ok := PackageAliases[key]; ok {
		return canon
	}
	return s
}

var ratingPattern = regexp.MustCompile(`^([0-9]*\.?[0-9]+(?:/[0-9]+)?)\s*([a-zA-Zµμ]*)$`)

// ratingUnits maps lower-cased unit spellings to their canonical symbol.
var ratingUnits = map[string]string{
	"v": "V", "kv": "kV", "mv": "mV",
	"a": "A", "ma": "mA", "ua": "µA", "µa": "µA", "μa": "µA",
	"w": "W", "mw": "mW", "kw": "kW",
}

// NormalizeRating folds electrical ratings such as "40 v", "800 MA" or
// "1/8 w" to "40V", "800mA" and "1/8W". Values it cannot read are returned
// trimmed.
func NormalizeRating(s string) string {
	s = strings.TrimSpace(s)
	m := ratingPattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	if m[2] == "" {
		return m[1]
	}
	if unit, ok := ratingUnits[strings.ToLower(m[2])]; ok {
		return m[1] + unit
	}
	return s
}

// NormalizeTolerance writes tolerances as a bare percentage: "±1 %" and "1"
// both become "1%".
func NormalizeTolerance(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "±")
	s = strings.TrimPrefix(s, "+/-")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return s
	}
	return s + "%"
}
