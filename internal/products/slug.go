package products

import (
	"strings"

	"github.com/google/uuid"
)

// slugify lowercases the name and collapses runs of non-alphanumerics into
// single hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
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

// newSlug appends a short random suffix so two listings with the same name
// never collide on the unique index.
func newSlug(name string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	base := slugify(name)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
