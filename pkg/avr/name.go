package avr

import "regexp"

var optimizerSuffixRe = regexp.MustCompile(`\.(constprop|isra|part)\b`)

// NormalizeName strips any optimizer-clone suffix (".constprop", ".isra",
// ".part", optionally followed by ".N") from a raw label, collapsing a
// function's clones to the same BaseName.
func NormalizeName(label string) string {
	loc := optimizerSuffixRe.FindStringIndex(label)
	if loc == nil {
		return label
	}
	return label[:loc[0]]
}
