package orgs

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify derives a URL-safe slug from an organization name: diacritics are
// folded, non-alphanumeric runs collapse to a single hyphen.
func Slugify(name string) string {
	folded := norm.NFKD.String(strings.ToLower(strings.TrimSpace(name)))
	var b strings.Builder
	lastHyphen := true
	for _, r := range folded {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
