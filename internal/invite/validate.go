package invite

import "regexp"

// whitespace is the character class of ECMAScript \s. RE2's \s leaves out
// \v and the Unicode spaces, which show up in text copied from web pages.
const whitespace = `\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

// emailPattern is a syntactic check only: one @, no whitespace, and a dot
// with non-empty segments on the domain side.
var emailPattern = regexp.MustCompile(`^[^` + whitespace + `@]+@[^` + whitespace + `@]+\.[^` + whitespace + `@]+$`)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// SplitByValidity partitions emails into valid and invalid lists, keeping
// input order. Valid addresses are de-duplicated (exact match).
func SplitByValidity(emails []string) (valid, invalid []string) {
	seen := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if !IsValidEmail(e) {
			invalid = append(invalid, e)
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		valid = append(valid, e)
	}
	return valid, invalid
}
