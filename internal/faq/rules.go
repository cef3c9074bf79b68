// Package faq synthesizes FAQ entries from a document's title and category
// tags and splices them into the document's frontmatter.
package faq

import (
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// TitlePlaceholder is replaced by the document title in every template.
const TitlePlaceholder = "{title}"

// Entry is one question/answer pair.
type Entry struct {
	Q string `json:"q" yaml:"q"`
	A string `json:"a" yaml:"a"`
}

// Template is an Entry whose text may contain TitlePlaceholder.
type Template struct {
	Q string `yaml:"q"`
	A string `yaml:"a"`
}

// Validate validates the template.
func (t Template) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Q, validation.Required),
		validation.Field(&t.A, validation.Required),
	)
}

func (t Template) render(title string) Entry {
	return Entry{
		Q: strings.ReplaceAll(t.Q, TitlePlaceholder, title),
		A: strings.ReplaceAll(t.A, TitlePlaceholder, title),
	}
}

// Group contributes its entries when any of its tags is among a document's
// categories.
type Group struct {
	Name    string     `yaml:"name"`
	Tags    []string   `yaml:"tags"`
	Entries []Template `yaml:"entries"`
}

// Validate validates the group.
func (g Group) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Name, validation.Required),
		validation.Field(&g.Tags, validation.Required, validation.Each(validation.Required)),
		validation.Field(&g.Entries, validation.Required),
	)
}

// Matches reports whether any of the group's tags is in categories.
func (g Group) Matches(categories map[string]struct{}) bool {
	for _, tag := range g.Tags {
		if _, ok := categories[tag]; ok {
			return true
		}
	}
	return false
}

// Rules is the ordered rule table: base entries, category groups in
// declaration order, then closing entries.
type Rules struct {
	Base    []Template `yaml:"base"`
	Groups  []Group    `yaml:"groups"`
	Closing []Template `yaml:"closing"`
}

// Validate validates the rule table.
func (r *Rules) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Base),
		validation.Field(&r.Groups),
		validation.Field(&r.Closing),
	)
}

// LoadRules reads a rule table from a YAML file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("faq: read rules %s: %w", path, err)
	}
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("faq: parse rules %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("faq: invalid rules %s: %w", path, err)
	}
	return &r, nil
}

// Synthesize renders the FAQ entries for a document. The output depends only
// on title and the set of categories; order follows the rule table.
func (r *Rules) Synthesize(title string, categories []string) []Entry {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}

	out := make([]Entry, 0, len(r.Base)+len(r.Closing)+3*len(r.Groups))
	for _, t := range r.Base {
		out = append(out, t.render(title))
	}
	for _, g := range r.Groups {
		if !g.Matches(set) {
			continue
		}
		for _, t := range g.Entries {
			out = append(out, t.render(title))
		}
	}
	for _, t := range r.Closing {
		out = append(out, t.render(title))
	}
	return out
}

// DefaultRules returns the built-in rule table.
func DefaultRules() *Rules {
	return &Rules{
		Base: []Template{
			{
				Q: "What is {title}?",
				A: "{title} is a WordPress solution that helps you build and optimize your website with powerful features and excellent performance.",
			},
			{
				Q: "Is {title} worth it?",
				A: "Yes, {title} offers excellent value with its comprehensive feature set, regular updates, and reliable support. It's a solid investment for serious WordPress users.",
			},
			{
				Q: "How much does {title} cost?",
				A: "{title} offers various pricing plans to suit different needs. Check their official website for current pricing and special offers.",
			},
		},
		Groups: []Group{
			{
				Name: "themes",
				Tags: []string{"themes", "woocommerce-themes"},
				Entries: []Template{
					{
						Q: "Is {title} compatible with page builders?",
						A: "Yes, {title} works seamlessly with popular page builders like Elementor, Gutenberg blocks, and other major builders.",
					},
					{
						Q: "Does {title} support WooCommerce?",
						A: "{title} includes built-in WooCommerce optimization and styling for a seamless ecommerce experience.",
					},
					{
						Q: "Is {title} mobile responsive?",
						A: "Absolutely! {title} is fully responsive and optimized for all devices, ensuring your site looks great on mobile, tablet, and desktop.",
					},
				},
			},
			{
				Name: "hosting",
				Tags: []string{"hosting"},
				Entries: []Template{
					{
						Q: "What is the uptime guarantee for {title}?",
						A: "{title} offers reliable uptime with modern infrastructure and redundancy to keep your site running smoothly.",
					},
					{
						Q: "Does {title} offer free migration?",
						A: "Many hosting plans from {title} include free migration services. Check their current offerings for specific details.",
					},
					{
						Q: "What kind of support does {title} provide?",
						A: "{title} provides professional support through multiple channels to help you with any hosting issues.",
					},
				},
			},
			{
				Name: "seo",
				Tags: []string{"seo"},
				Entries: []Template{
					{
						Q: "Does {title} support schema markup?",
						A: "Yes, {title} includes comprehensive schema markup support to help search engines better understand your content.",
					},
					{
						Q: "Can {title} help improve Core Web Vitals?",
						A: "{title} includes optimization features that can help improve your Core Web Vitals scores and overall site performance.",
					},
					{
						Q: "Is {title} compatible with other SEO plugins?",
						A: "While {title} is comprehensive, it's designed to work well within the WordPress ecosystem. Check compatibility for specific plugin combinations.",
					},
				},
			},
			{
				Name: "performance",
				Tags: []string{"performance"},
				Entries: []Template{
					{
						Q: "How much can {title} improve site speed?",
						A: "{title} can significantly improve your site's loading speed through various optimization techniques including caching, minification, and lazy loading.",
					},
					{
						Q: "Does {title} work with CDNs?",
						A: "Yes, {title} is compatible with popular CDN services to further enhance your site's performance globally.",
					},
					{
						Q: "Will {title} affect my site's functionality?",
						A: "{title} is designed to optimize performance without breaking functionality, with safe mode options and compatibility checks.",
					},
				},
			},
			{
				Name: "pagebuilder",
				Tags: []string{"pagebuilder"},
				Entries: []Template{
					{
						Q: "Is {title} beginner-friendly?",
						A: "Yes, {title} features an intuitive interface that makes it easy for beginners while offering advanced features for professionals.",
					},
					{
						Q: "Can I create custom layouts with {title}?",
						A: "{title} provides extensive customization options and pre-built templates to create unique layouts for your website.",
					},
					{
						Q: "Does {title} slow down my website?",
						A: "{title} is optimized for performance with clean code output and efficient loading to maintain fast page speeds.",
					},
				},
			},
			{
				Name: "forms",
				Tags: []string{"forms"},
				Entries: []Template{
					{
						Q: "Can {title} create multi-step forms?",
						A: "Yes, {title} supports creating complex multi-step forms with conditional logic and progress indicators.",
					},
					{
						Q: "Does {title} integrate with email marketing services?",
						A: "{title} integrates with popular email marketing services and CRMs for seamless lead management.",
					},
					{
						Q: "Is {title} GDPR compliant?",
						A: "{title} includes features to help you create GDPR-compliant forms with proper consent management and data handling.",
					},
				},
			},
			{
				Name: "blocks",
				Tags: []string{"blocks", "gutenberg"},
				Entries: []Template{
					{
						Q: "Does {title} work with the block editor?",
						A: "Yes, {title} is fully compatible with the WordPress block editor (Gutenberg) and extends its capabilities.",
					},
					{
						Q: "Can I use {title} with classic editor?",
						A: "{title} primarily focuses on the block editor but may offer compatibility options for classic editor users.",
					},
					{
						Q: "Are {title} blocks reusable?",
						A: "Yes, {title} supports reusable blocks and patterns to help you maintain consistency across your site.",
					},
				},
			},
		},
		Closing: []Template{
			{
				Q: "What are the alternatives to {title}?",
				A: "While {title} is excellent, alternatives exist depending on your specific needs. Consider your requirements for features, budget, and ease of use when comparing options.",
			},
			{
				Q: "How do I get started with {title}?",
				A: "Getting started with {title} is straightforward. Visit their official website, choose a plan that fits your needs, and follow their setup documentation or tutorials.",
			},
		},
	}
}
