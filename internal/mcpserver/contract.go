package mcpserver

// DocumentContract describes the frontmatter layout mdxfix expects, so that
// LLM clients can prepare documents the operations will accept.
const DocumentContract = `# mdxfix Document Contract

A content document is an MDX or Markdown file that starts with a YAML
frontmatter block.

## Structure

` + "```" + `markdown
---
title: "Acme Theme"                 # REQUIRED for FAQ injection, must be quoted
category: ["themes", "seo"]         # OPTIONAL, inline list of category tags
author: "Jane Doe"                  # rewritten by rewrite_author
---

Body text.
` + "```" + `

## Rules

1. **The opening ` + "`---`" + ` must be the first line.** Documents without a
   terminated frontmatter block are reported as warnings and left untouched.
2. **` + "`title`" + ` must be a single-line quoted string.** Unquoted titles are
   not recognized and the document is skipped with "no title found".
3. **` + "`category`" + ` must be an inline list.** Block-style YAML lists are
   treated as no categories.
4. **A document with a ` + "`faq:`" + ` or ` + "`faqs:`" + ` key is never changed by
   inject_faq.**
5. **Author rewriting** replaces every ` + "`author:`" + ` line. When there is
   none, the author is added inside the first ` + "`metadata: { ... }`" + ` map.
   Documents with neither are reported as warnings.

## Injected FAQ

` + "```" + `yaml
faq:
  - q: "What is Acme Theme?"
    a: "Acme Theme is a WordPress resource ..."
` + "```" + `

The block is appended at the end of the frontmatter, after a blank line,
using the document's own line endings.
`
