// Package author normalizes the author field of content documents.
package author

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/mdxfix/internal/apperr"
	"github.com/starford/mdxfix/internal/frontmatter"
)

// Strategy names how a rewrite was performed.
type Strategy string

const (
	StrategySubstitute Strategy = "substitute"
	StrategyMetadata   Strategy = "metadata"
)

var (
	// An author value is double-quoted, single-quoted, an inline list, or
	// bare. A bare value ends before a flow separator (, } ]), a comment or
	// the end of the line, and never takes trailing blanks with it.
	// \b keeps keys such as coauthor: from matching.
	authorRe   = regexp.MustCompile(`\bauthor:[ \t]*(?:"[^"\r\n]*"|'[^'\r\n]*'|\[[^\]\r\n]*\]|[^\s"',}\]#\[{](?:[^\r\n,}\]#]*[^\s,}\]#])?)`)
	metadataRe = regexp.MustCompile(`metadata:\s*\{([^}]+)\}`)
)

// Rewriter sets every author field to a fixed name.
type Rewriter struct {
	name string
}

// NewRewriter returns a Rewriter for the given author name.
func NewRewriter(name string) *Rewriter {
	return &Rewriter{name: name}
}

// Name implements augment.Operation.
func (r *Rewriter) Name() string { return "author" }

// Apply returns data with its author normalized. It returns
// apperr.ErrAlreadyPresent when nothing would change.
func (r *Rewriter) Apply(path string, data []byte) ([]byte, error) {
	out, _, err := r.Rewrite(string(data))
	if err != nil {
		return nil, apperr.Document(path, err, "")
	}
	if out == string(data) {
		return nil, apperr.Document(path, apperr.ErrAlreadyPresent, "author already "+strconv.Quote(r.name))
	}
	return []byte(out), nil
}

// Rewrite applies the substitution strategy when an author field exists
// anywhere in text, otherwise appends an author key to the metadata block.
func (r *Rewriter) Rewrite(text string) (string, Strategy, error) {
	field := r.field()

	if authorRe.MatchString(text) {
		return authorRe.ReplaceAllLiteralString(text, field), StrategySubstitute, nil
	}

	loc := metadataRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, "", apperr.ErrNoInsertionPoint
	}
	nl := "\n"
	if b, err := frontmatter.Locate(text); err == nil {
		nl = b.Newline
	} else if strings.Contains(text, "\r\n") {
		nl = "\r\n"
	}

	inner := text[loc[2]:loc[3]]
	kept := strings.TrimRight(inner, " \t\r\n")
	trailing := inner[len(kept):]

	var b strings.Builder
	b.Grow(len(text) + len(field) + len(nl) + 2)
	b.WriteString(text[:loc[2]])
	b.WriteString(kept)
	b.WriteString(nl + "  ")
	b.WriteString(field)
	b.WriteString(trailing)
	b.WriteString(text[loc[3]:])
	return b.String(), StrategyMetadata, nil
}

func (r *Rewriter) field() string {
	return `author: "` + r.name + `"`
}
