// Package document converts between stored post files (YAML front matter followed by a
// Markdown body) and their typed form.
package document

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dfryer1193/repoblog/blog/domain"
	"gopkg.in/yaml.v3"
)

const (
	delimiter  = "---"
	dateLayout = "2006-01-02"
)

// dateLayouts are tried in order when normalising a front matter date.
var dateLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -07:00",
	"2006/01/02",
}

// FrontMatter is the set of header keys a post understands.
type FrontMatter struct {
	Title     string `yaml:"title,omitempty"`
	Date      string `yaml:"date,omitempty"`
	Published *bool  `yaml:"published,omitempty"`
	Category  string `yaml:"category,omitempty"`
	Excerpt   string `yaml:"excerpt,omitempty"`
}

// Document is a parsed post file.
type Document struct {
	Meta FrontMatter
	Body string

	// UnknownKeys lists header keys that were present but are not part of FrontMatter.
	UnknownKeys []string
}

// Parse splits raw into its front matter and body.
// Input without a leading delimiter line is treated as a body with empty metadata.
func Parse(raw []byte) (*Document, error) {
	s := strings.TrimPrefix(string(raw), "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	first, rest, _ := strings.Cut(s, "\n")
	if strings.TrimRight(first, " \t") != delimiter {
		return &Document{Body: s}, nil
	}

	var header strings.Builder
	closed := false
	for rest != "" {
		var line string
		line, rest, _ = strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t") == delimiter {
			closed = true
			break
		}
		header.WriteString(line)
		header.WriteByte('\n')
	}
	if !closed {
		return nil, fmt.Errorf("front matter is never closed: %w", domain.ErrMalformedDocument)
	}

	doc := &Document{Body: rest}
	if err := decodeHeader([]byte(header.String()), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// decodeHeader walks the YAML mapping key by key so unknown keys can be reported
// instead of silently passed through.
func decodeHeader(header []byte, doc *Document) error {
	var root yaml.Node
	if err := yaml.Unmarshal(header, &root); err != nil {
		return fmt.Errorf("failed to decode front matter: %v: %w", err, domain.ErrMalformedDocument)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil
	}

	mapping := root.Content[0]
	if mapping.Kind == yaml.ScalarNode && mapping.Tag == "!!null" {
		return nil
	}
	if mapping.Kind != yaml.MappingNode {
		return fmt.Errorf("front matter is not a mapping: %w", domain.ErrMalformedDocument)
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i].Value, mapping.Content[i+1]

		var target *string
		switch key {
		case "title":
			target = &doc.Meta.Title
		case "category":
			target = &doc.Meta.Category
		case "excerpt":
			target = &doc.Meta.Excerpt
		case "date":
			target = &doc.Meta.Date
		case "published":
			if value.Tag == "!!null" {
				continue
			}
			var published bool
			if err := value.Decode(&published); err != nil {
				return fmt.Errorf("front matter key %q: %v: %w", key, err, domain.ErrMalformedDocument)
			}
			doc.Meta.Published = &published
			continue
		default:
			doc.UnknownKeys = append(doc.UnknownKeys, key)
			continue
		}

		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("front matter key %q must be a scalar: %w", key, domain.ErrMalformedDocument)
		}
		if value.Tag == "!!null" {
			continue
		}
		*target = value.Value
	}

	doc.Meta.Date = NormalizeDate(doc.Meta.Date)
	return nil
}

// Serialize writes meta as a front matter block followed by body. Empty fields are omitted.
func Serialize(body string, meta FrontMatter) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	if meta != (FrontMatter{}) {
		header, err := yaml.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to encode front matter: %w", err)
		}
		buf.Write(header)
	}

	buf.WriteString(delimiter + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// NormalizeDate reduces any recognised date or timestamp to YYYY-MM-DD in UTC.
// Values that are not recognised are returned unchanged.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format(dateLayout)
		}
	}
	return value
}
