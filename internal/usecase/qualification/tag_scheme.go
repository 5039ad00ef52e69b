package qualification

import (
	"errors"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	domainqual "qualtrack/internal/domain/qualification"
)

type tagSchemeFile struct {
	Version     int               `toml:"version"`
	Width       int               `toml:"width"`
	Departments map[string]string `toml:"departments"`
}

// LoadTagScheme reads the department prefix table. An empty path yields the initials-only scheme.
func LoadTagScheme(schemeFile string) (domainqual.TagScheme, error) {
	path := strings.TrimSpace(schemeFile)
	if path == "" {
		return domainqual.TagScheme{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domainqual.TagScheme{}, err
	}
	return ParseTagScheme(raw)
}

func ParseTagScheme(raw []byte) (domainqual.TagScheme, error) {
	var file tagSchemeFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return domainqual.TagScheme{}, err
	}
	if file.Version != 0 && file.Version != 1 {
		return domainqual.TagScheme{}, errors.New("unsupported tag scheme version: expected version = 1")
	}
	if file.Width < 0 || file.Width > 8 {
		return domainqual.TagScheme{}, errors.New("tag scheme width must be between 1 and 8")
	}

	prefixes := make(map[string]string, len(file.Departments))
	for dept, prefix := range file.Departments {
		name := strings.TrimSpace(dept)
		p := strings.ToUpper(strings.TrimSpace(prefix))
		if name == "" || p == "" {
			return domainqual.TagScheme{}, errors.New("departments." + name + " needs a non-empty prefix")
		}
		if strings.HasPrefix(p+"-", domainqual.PlaceholderTagPrefix) {
			return domainqual.TagScheme{}, errors.New("departments." + name + ": prefix collides with placeholder tags")
		}
		if _, err := domainqual.ValidateTag(p + "-1"); err != nil {
			return domainqual.TagScheme{}, errors.New("departments." + name + ": invalid prefix " + p)
		}
		prefixes[name] = p
	}
	return domainqual.TagScheme{Width: file.Width, Prefixes: prefixes}, nil
}
