// Package convert maps conceptual (information) models to physical
// (DMS) models and back, and re-imports compiled schemas into rules.
package convert

// spaceMaxLength is the store's limit on space identifiers.
const spaceMaxLength = 43

// ToSpace sanitizes a conceptual model prefix into a valid space
// identifier: characters outside [a-zA-Z0-9_-] become underscores, a
// leading non-letter is prefixed with "a", the result is truncated to
// 43 characters, and a trailing underscore becomes "1". The output
// always matches ^[a-zA-Z][a-zA-Z0-9_-]{0,42}$.
func ToSpace(prefix string) string {
	sanitized := make([]byte, 0, len(prefix))
	for _, r := range prefix {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			sanitized = append(sanitized, byte(r))
		default:
			sanitized = append(sanitized, '_')
		}
	}

	if len(sanitized) == 0 || !isLetter(sanitized[0]) {
		sanitized = append([]byte{'a'}, sanitized...)
	}
	if len(sanitized) > spaceMaxLength {
		sanitized = sanitized[:spaceMaxLength]
	}
	if sanitized[len(sanitized)-1] == '_' {
		sanitized[len(sanitized)-1] = '1'
	}
	return string(sanitized)
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
