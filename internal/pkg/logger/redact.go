package logger

import "strings"

// RedactEmail masks an address for logging, keeping the first two
// characters of the local part and the domain:
// "john.doe@example.com" → "jo***@example.com", "ab@example.com" → "***@example.com".
// Collected entries may be malformed, so the split is on the last @ and
// anything without a domain is masked entirely.
func RedactEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "***@***"
	}
	name, domain := email[:at], email[at+1:]
	if len(name) > 2 && !strings.Contains(name, "@") {
		return name[:2] + "***@" + domain
	}
	return "***@" + domain
}
