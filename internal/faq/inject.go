package faq

import (
	"strings"

	"github.com/starford/mdxfix/internal/apperr"
	"github.com/starford/mdxfix/internal/frontmatter"
)

// Markers are the accepted spellings of an existing FAQ field.
var Markers = []string{"faq:", "faqs:"}

// Serialize renders entries as a `faq:` field in 2-space-indented list style.
// Double quotes in questions and answers are escaped with a backslash.
func Serialize(entries []Entry, newline string) string {
	if newline == "" {
		newline = "\n"
	}
	var b strings.Builder
	b.WriteString("faq:")
	for _, e := range entries {
		b.WriteString(newline)
		b.WriteString(`  - q: "`)
		b.WriteString(escape(e.Q))
		b.WriteString(`"`)
		b.WriteString(newline)
		b.WriteString(`    a: "`)
		b.WriteString(escape(e.A))
		b.WriteString(`"`)
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Injector adds a synthesized `faq:` field to documents that lack one.
type Injector struct {
	rules *Rules
}

// NewInjector returns an Injector using rules, or DefaultRules when nil.
func NewInjector(rules *Rules) *Injector {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Injector{rules: rules}
}

// Name implements augment.Operation.
func (i *Injector) Name() string { return "faq" }

// Rules returns the active rule table.
func (i *Injector) Rules() *Rules { return i.rules }

// Apply returns data with the FAQ field spliced in before the closing
// frontmatter delimiter, preceded by one blank line.
func (i *Injector) Apply(path string, data []byte) ([]byte, error) {
	text := string(data)

	b, err := frontmatter.Locate(text)
	if err != nil {
		return nil, apperr.Document(path, err, "could not find frontmatter end")
	}
	block := b.Block(text)

	if frontmatter.HasKey(block, Markers...) {
		return nil, apperr.Document(path, apperr.ErrAlreadyPresent, "FAQ already exists")
	}

	title, ok := frontmatter.Scalar(block, "title")
	if !ok {
		return nil, apperr.Document(path, apperr.ErrMissingField, "no title found")
	}
	categories, _ := frontmatter.List(block, "category")

	entries := i.rules.Synthesize(title, categories)
	field := Serialize(entries, b.Newline)

	var out strings.Builder
	out.Grow(len(text) + len(field) + 2*len(b.Newline))
	out.WriteString(text[:b.Close])
	out.WriteString(b.Newline)
	out.WriteString(b.Newline)
	out.WriteString(field)
	out.WriteString(text[b.Close:])
	return []byte(out.String()), nil
}
