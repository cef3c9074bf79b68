// Package frontmatter locates the leading `---` delimited block of a document
// and extracts simple fields from it by line-anchored pattern matching.
//
// The block is treated as line-oriented text, not as YAML. List values with
// nested brackets or escaped commas are not supported.
package frontmatter

import (
	"regexp"
	"strings"

	"github.com/starford/mdxfix/internal/apperr"
)

const delim = "---"

// Bounds describes where the frontmatter block sits inside a document.
type Bounds struct {
	// Start is the offset of the first byte after the opening delimiter line.
	Start int
	// Close is the offset of the newline that precedes the closing delimiter.
	// New fields are spliced in here so they stay inside the block.
	Close int
	// Newline is the line ending used by the opening delimiter.
	Newline string
}

// Block returns the frontmatter text between the two delimiter lines.
func (b Bounds) Block(text string) string {
	if b.Close <= b.Start {
		return ""
	}
	return text[b.Start:b.Close]
}

// Locate finds the frontmatter block of text. The document must open with a
// `---` line; the block ends at the next line that is exactly `---`.
func Locate(text string) (Bounds, error) {
	var nl string
	switch {
	case strings.HasPrefix(text, delim+"\r\n"):
		nl = "\r\n"
	case strings.HasPrefix(text, delim+"\n"):
		nl = "\n"
	default:
		return Bounds{}, apperr.ErrMalformedDocument
	}

	// Search from the end of the opening delimiter so that an empty block
	// (`---\n---\n`) still closes on its own line.
	from := len(delim)
	needle := nl + delim
	for {
		idx := strings.Index(text[from:], needle)
		if idx < 0 {
			return Bounds{}, apperr.ErrMalformedDocument
		}
		pos := from + idx
		after := pos + len(needle)
		if after == len(text) || strings.HasPrefix(text[after:], nl) {
			start := len(delim) + len(nl)
			if pos < start {
				start = pos
			}
			return Bounds{Start: start, Close: pos, Newline: nl}, nil
		}
		from = after
	}
}

// HasKey reports whether block contains any of the given markers as an exact
// substring.
func HasKey(block string, markers ...string) bool {
	for _, m := range markers {
		if strings.Contains(block, m) {
			return true
		}
	}
	return false
}

// Scalar returns the quoted value of a `<name>: "<value>"` line. Single
// quotes are accepted too, with '' read as an escaped quote. Escapes inside
// double quotes are returned as written.
func Scalar(block, name string) (string, bool) {
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(name) + `:[ \t]*(?:"([^"\r\n]+)"|'((?:[^'\r\n]|'')+)')`)
	m := re.FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return strings.ReplaceAll(m[2], "''", "'"), true
}

// List returns the items of a `<name>: [<items>]` field. The bracketed span
// may cover several lines.
func List(block, name string) ([]string, bool) {
	re := regexp.MustCompile(`(?ms)^` + regexp.QuoteMeta(name) + `:\s*\[(.*?)\]`)
	m := re.FindStringSubmatch(block)
	if m == nil {
		return nil, false
	}
	return splitItems(m[1]), true
}

func splitItems(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		item := strings.TrimSpace(part)
		item = strings.Trim(item, `"'`)
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
