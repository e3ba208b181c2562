package nats

import "strings"

// SubjectPrefix is the first token of every subject the transport uses.
const SubjectPrefix = "ndstream"

// subject joins values under SubjectPrefix, formatting each one with
// formatForSubject and skipping those that come out empty.
func subject(values ...string) string {
	parts := make([]string, 0, len(values)+1)
	parts = append(parts, SubjectPrefix)
	for _, v := range values {
		if f := formatForSubject(v); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ".")
}

// formatForSubject turns camel case boundaries and underscores into dashes and
// drops anything that is not a letter, digit, dash, dot or wildcard.
func formatForSubject(value string) string {
	var b strings.Builder
	b.Grow(len(value) + 4)
	var prev rune
	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z':
			if prev >= 'a' && prev <= 'z' {
				b.WriteByte('-')
				b.WriteRune(r + ('a' - 'A'))
			} else {
				b.WriteRune(r)
			}
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.', r == '*':
			b.WriteRune(r)
		case r == '_':
			b.WriteByte('-')
		default:
			continue
		}
		prev = r
	}
	return b.String()
}
