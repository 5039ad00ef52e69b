package qualification

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const PlaceholderTagPrefix = "PENDING-"

const defaultTagWidth = 4

var tagPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9._/-]{1,63}$`)

// IsPlaceholderTag reports whether tag still needs a permanent value.
func IsPlaceholderTag(tag string) bool {
	trimmed := strings.TrimSpace(tag)
	return trimmed == "" || strings.HasPrefix(strings.ToUpper(trimmed), PlaceholderTagPrefix)
}

// NewPlaceholderTag returns PENDING-<unix-millis>-<8 hex chars>. The suffix keeps two
// registrations in the same millisecond apart under the unique index.
func NewPlaceholderTag(now time.Time) string {
	return fmt.Sprintf("%s%d-%s", PlaceholderTagPrefix, now.UnixMilli(), uuid.NewString()[:8])
}

// ValidateTag normalizes a caller-supplied permanent tag.
func ValidateTag(raw string) (string, error) {
	tag := strings.ToUpper(strings.TrimSpace(raw))
	if IsPlaceholderTag(tag) || !tagPattern.MatchString(tag) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTag, raw)
	}
	return tag, nil
}

// TagScheme decides the permanent tag prefix per department.
type TagScheme struct {
	Width    int
	Prefixes map[string]string
}

// Prefix returns the configured prefix for department, else its initials.
func (s TagScheme) Prefix(department string) string {
	key := strings.ToLower(strings.TrimSpace(department))
	for dept, prefix := range s.Prefixes {
		if strings.ToLower(strings.TrimSpace(dept)) == key {
			if p := strings.ToUpper(strings.TrimSpace(prefix)); p != "" {
				return p
			}
		}
	}
	return DepartmentInitials(department)
}

// Format renders prefix and sequence number, e.g. QC-0001.
func (s TagScheme) Format(prefix string, seq int64) string {
	width := s.Width
	if width <= 0 {
		width = defaultTagWidth
	}
	return fmt.Sprintf("%s-%0*d", prefix, width, seq)
}

// DepartmentInitials: "Quality Control" -> "QC", "Production" -> "PRO", "" -> "EQ".
func DepartmentInitials(department string) string {
	words := strings.FieldsFunc(department, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	switch len(words) {
	case 0:
		return "EQ"
	case 1:
		word := []rune(strings.ToUpper(words[0]))
		if len(word) > 3 {
			word = word[:3]
		}
		return string(word)
	}

	var b strings.Builder
	for _, w := range words {
		b.WriteRune(unicode.ToUpper([]rune(w)[0]))
	}
	return b.String()
}
