package recorder

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
)

// redactions run in order: card numbers before phones so long digit runs are
// not classified as phone numbers.
var redactions = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{emailPattern, "[REDACTED_EMAIL]"},
	{cardPattern, "[REDACTED_CARD]"},
	{phonePattern, "[REDACTED_PHONE]"},
}

// RedactPII masks emails, card numbers, and phone numbers in text.
func RedactPII(text string) (string, bool) {
	out := text
	for _, r := range redactions {
		out = r.pattern.ReplaceAllString(out, r.replacement)
	}
	return out, out != text
}
