package affidavit

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormatPersonName renders a name as "Given Names SURNAME". A single word is
// upper-cased.
func FormatPersonName(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(parts[0])
	}

	given := make([]string, len(parts)-1)
	for i, p := range parts[:len(parts)-1] {
		given[i] = capitalize(strings.ToLower(p))
	}
	return strings.Join(given, " ") + " " + strings.ToUpper(parts[len(parts)-1])
}

var (
	streetType = regexp.MustCompile(`(?i)\b(Street|St|Road|Rd|Drive|Dr|Avenue|Ave|Court|Ct|Place|Pl|` +
		`Crescent|Cres|Lane|La|Way|Terrace|Tce|Circuit|Cct|Close|Cl|Boulevard|Blvd|Parade|Pde|` +
		`Highway|Hwy|Grove|Gr|Rise|Mews|Walk|Gardens|Gdns)\b`)
	suburbStatePostcode = regexp.MustCompile(`,\s+([A-Z\s]+)\s+(WA|NSW|VIC|QLD|SA|TAS|NT|ACT)\s+(\d{4})`)
)

// FormatAddress puts a comma after the street type and title-cases an
// upper-case suburb that precedes the state and postcode:
// "12 Smith Street PERTH WA 6000" becomes "12 Smith Street, Perth WA 6000".
func FormatAddress(address string) string {
	if address == "" {
		return ""
	}

	out := address
	for _, m := range streetType.FindAllStringIndex(address, -1) {
		if m[1] < len(address) && address[m[1]] == ',' {
			continue
		}
		out = address[:m[1]] + "," + address[m[1]:]
		break
	}

	return suburbStatePostcode.ReplaceAllStringFunc(out, func(match string) string {
		sub := suburbStatePostcode.FindStringSubmatch(match)
		words := strings.Split(strings.ToLower(sub[1]), " ")
		for i, w := range words {
			words[i] = capitalize(w)
		}
		return ", " + strings.Join(words, " ") + " " + sub[2] + " " + sub[3]
	})
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
