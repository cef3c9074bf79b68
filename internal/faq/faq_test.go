package faq

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/mdxfix/internal/apperr"
)

const body = "\nimport Hero from '../components/hero.astro'\n\n# Review\n\nSome \"quoted\" body text.\n"

func doc(front string) string {
	return "---\n" + front + "---\n" + body
}

func questions(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Q
	}
	return out
}

func TestSynthesize_Themes(t *testing.T) {
	got := DefaultRules().Synthesize("Acme Theme", []string{"themes"})
	if len(got) != 8 {
		t.Fatalf("len = %d, want 8", len(got))
	}
	want := []string{
		"What is Acme Theme?",
		"Is Acme Theme worth it?",
		"How much does Acme Theme cost?",
		"Is Acme Theme compatible with page builders?",
		"Does Acme Theme support WooCommerce?",
		"Is Acme Theme mobile responsive?",
		"What are the alternatives to Acme Theme?",
		"How do I get started with Acme Theme?",
	}
	if q := questions(got); !reflect.DeepEqual(q, want) {
		t.Errorf("questions = %v", q)
	}
}

func TestSynthesize_HostingBeforeSEO(t *testing.T) {
	// Category order in the document must not matter.
	got := DefaultRules().Synthesize("Host", []string{"seo", "hosting"})
	if len(got) != 11 {
		t.Fatalf("len = %d, want 11", len(got))
	}
	if got[3].Q != "What is the uptime guarantee for Host?" {
		t.Errorf("entry 3 = %q, want first hosting entry", got[3].Q)
	}
	if got[6].Q != "Does Host support schema markup?" {
		t.Errorf("entry 6 = %q, want first seo entry", got[6].Q)
	}
}

func TestSynthesize_NoCategories(t *testing.T) {
	got := DefaultRules().Synthesize("Plain", nil)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
}

func TestSynthesize_GroupAliases(t *testing.T) {
	r := DefaultRules()
	a := r.Synthesize("X", []string{"woocommerce-themes"})
	b := r.Synthesize("X", []string{"themes"})
	if !reflect.DeepEqual(a, b) {
		t.Error("woocommerce-themes should select the themes group")
	}
	c := r.Synthesize("X", []string{"gutenberg"})
	d := r.Synthesize("X", []string{"blocks", "gutenberg"})
	if !reflect.DeepEqual(c, d) || len(c) != 8 {
		t.Error("blocks group should contribute once for either tag")
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	r := DefaultRules()
	cats := []string{"forms", "performance", "pagebuilder"}
	first := r.Synthesize("Forminator", cats)
	for i := 0; i < 10; i++ {
		if !reflect.DeepEqual(first, r.Synthesize("Forminator", cats)) {
			t.Fatal("synthesis is not deterministic")
		}
	}
}

func TestSynthesize_MembershipIndependence(t *testing.T) {
	r := DefaultRules()
	base := r.Synthesize("P", []string{"hosting"})
	more := r.Synthesize("P", []string{"hosting", "forms"})
	if len(more) != len(base)+3 {
		t.Fatalf("len = %d, want %d", len(more), len(base)+3)
	}
	// hosting entries are untouched, forms entries come after them.
	if !reflect.DeepEqual(base[:6], more[:6]) {
		t.Error("existing group entries changed")
	}
	if !reflect.DeepEqual(base[6:], more[9:]) {
		t.Error("closing entries changed")
	}
	if !strings.Contains(more[6].Q, "multi-step forms") {
		t.Errorf("entry 6 = %q", more[6].Q)
	}
}

func TestSynthesize_TitleVerbatim(t *testing.T) {
	got := DefaultRules().Synthesize(`50% "Pro" {x}`, nil)
	if got[0].Q != `What is 50% "Pro" {x}?` {
		t.Errorf("q = %q", got[0].Q)
	}
}

func TestSerialize(t *testing.T) {
	got := Serialize([]Entry{{Q: `Is "X" ok?`, A: "Yes."}}, "\n")
	want := "faq:\n  - q: \"Is \\\"X\\\" ok?\"\n    a: \"Yes.\""
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestApply_Scenario1(t *testing.T) {
	in := doc("title: \"Acme Theme\"\ncategory: [\"themes\"]\n")
	out, err := NewInjector(nil).Apply("acme.mdx", []byte(in))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	s := string(out)
	if n := strings.Count(s, "  - q: "); n != 8 {
		t.Errorf("entries = %d, want 8", n)
	}
	if !strings.Contains(s, "category: [\"themes\"]\n\nfaq:\n  - q: \"What is Acme Theme?\"\n") {
		t.Errorf("faq block not spliced after one blank line:\n%s", s)
	}
	if !strings.HasSuffix(s, "started with Acme Theme?\"\n    a: \"Getting started with Acme Theme is straightforward. Visit their official website, choose a plan that fits your needs, and follow their setup documentation or tutorials.\"\n---\n"+body) {
		t.Errorf("body or closing delimiter not preserved:\n%s", s)
	}
}

func TestApply_PreservesOutsideRegion(t *testing.T) {
	in := doc("title: \"Acme\"\ncategory: [\"hosting\", \"seo\"]\n")
	out, err := NewInjector(nil).Apply("a.mdx", []byte(in))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	prefix := "---\ntitle: \"Acme\"\ncategory: [\"hosting\", \"seo\"]"
	if !strings.HasPrefix(string(out), prefix) {
		t.Error("frontmatter prefix changed")
	}
	if !strings.HasSuffix(string(out), "\n---\n"+body) {
		t.Error("body changed")
	}
	if n := strings.Count(string(out), "  - q: "); n != 11 {
		t.Errorf("entries = %d, want 11", n)
	}
}

func TestApply_Idempotent(t *testing.T) {
	inj := NewInjector(nil)
	once, err := inj.Apply("a.mdx", []byte(doc("title: \"Acme\"\n")))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	_, err = inj.Apply("a.mdx", once)
	if !errors.Is(err, apperr.ErrAlreadyPresent) {
		t.Errorf("second apply err = %v, want ErrAlreadyPresent", err)
	}
}

func TestApply_ExistingFAQSkipped(t *testing.T) {
	for _, marker := range []string{"faq:\n  - q: \"x\"\n", "faqs: []\n"} {
		in := doc("title: \"Acme\"\n" + marker)
		_, err := NewInjector(nil).Apply("a.mdx", []byte(in))
		if !errors.Is(err, apperr.ErrAlreadyPresent) {
			t.Errorf("marker %q: err = %v", marker, err)
		}
	}
}

func TestApply_MissingTitle(t *testing.T) {
	_, err := NewInjector(nil).Apply("a.mdx", []byte(doc("category: [\"seo\"]\n")))
	if !errors.Is(err, apperr.ErrMissingField) {
		t.Errorf("err = %v, want ErrMissingField", err)
	}
}

func TestApply_Malformed(t *testing.T) {
	_, err := NewInjector(nil).Apply("a.mdx", []byte("---\ntitle: \"Acme\"\nno close\n"))
	if !errors.Is(err, apperr.ErrMalformedDocument) {
		t.Errorf("err = %v, want ErrMalformedDocument", err)
	}
	var de *apperr.DocumentError
	if !errors.As(err, &de) || de.Path != "a.mdx" {
		t.Errorf("expected DocumentError for a.mdx, got %v", err)
	}
}

func TestApply_CRLF(t *testing.T) {
	in := "---\r\ntitle: \"Acme\"\r\n---\r\nbody\r\n"
	out, err := NewInjector(nil).Apply("a.mdx", []byte(in))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if strings.Contains(strings.ReplaceAll(string(out), "\r\n", ""), "\n") {
		t.Error("bare LF introduced into a CRLF document")
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := `base:
  - q: "What is {title}?"
    a: "{title} is a plugin."
groups:
  - name: analytics
    tags: [analytics, stats]
    entries:
      - q: "Does {title} track events?"
        a: "Yes."
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	got := r.Synthesize("Koko", []string{"stats"})
	if len(got) != 2 || got[1].Q != "Does Koko track events?" {
		t.Errorf("entries = %v", got)
	}
}

func TestLoadRules_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := "groups:\n  - name: empty\n    tags: []\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Error("expected validation error for group without tags")
	}
}
