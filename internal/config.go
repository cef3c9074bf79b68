package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mdxfix/internal/augment"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	FAQ     FAQConfig         `yaml:"faq"`
	Author  AuthorConfig      `yaml:"author"`
	Journal JournalConfig     `yaml:"journal"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := c.FAQ.Validate(); err != nil {
		return fmt.Errorf("faq: %w", err)
	}
	if err := c.Author.Validate(); err != nil {
		return fmt.Errorf("author: %w", err)
	}
	return c.Journal.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// Jobs is the number of documents processed concurrently.
	Jobs int `yaml:"jobs"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Jobs, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// ContentConfig holds the root of the content tree.
type ContentConfig struct {
	Root string `yaml:"root"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// FAQConfig selects the documents that receive FAQ blocks.
type FAQConfig struct {
	Dir       string `yaml:"dir"`
	Pattern   string `yaml:"pattern"`
	Recursive bool   `yaml:"recursive"`
	// RulesFile optionally replaces the built-in rule table.
	RulesFile string `yaml:"rules_file"`
}

// Validate validates the FAQ configuration.
func (c *FAQConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Pattern, validation.Required, validation.By(validPattern)),
	)
}

// Targets returns the document selection for FAQ injection.
func (c *FAQConfig) Targets() []augment.Target {
	return []augment.Target{{Dir: c.Dir, Pattern: c.Pattern, Recursive: c.Recursive}}
}

// AuthorConfig holds the replacement author and the directories to rewrite.
type AuthorConfig struct {
	Name            string   `yaml:"name"`
	Dirs            []string `yaml:"dirs"`
	Pattern         string   `yaml:"pattern"`
	Recursive       bool     `yaml:"recursive"`
	SkipMissingDirs bool     `yaml:"skip_missing_dirs"`
}

// Validate validates the author configuration.
func (c *AuthorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Dirs, validation.Required),
		validation.Field(&c.Pattern, validation.Required, validation.By(validPattern)),
	)
}

// Targets returns the document selection for author rewriting.
func (c *AuthorConfig) Targets() []augment.Target {
	out := make([]augment.Target, 0, len(c.Dirs))
	for _, d := range c.Dirs {
		out = append(out, augment.Target{
			Dir:         d,
			Pattern:     c.Pattern,
			Recursive:   c.Recursive,
			SkipMissing: c.SkipMissingDirs,
		})
	}
	return out
}

// JournalConfig holds SQLite run journal configuration.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

func validPattern(value interface{}) error {
	s, _ := value.(string)
	if _, err := filepath.Match(s, ""); err != nil {
		return fmt.Errorf("invalid pattern %q", s)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Jobs:     1,
		},
		Content: ContentConfig{
			Root: "./src/content",
		},
		FAQ: FAQConfig{
			Dir:     "wordpress-resource",
			Pattern: "*.mdx",
		},
		Author: AuthorConfig{
			Name: "Daniel Snell",
			Dirs: []string{
				"blog",
				"guides",
				"services",
				"wordpress",
				"wordpress-category",
				"wordpress-resource",
				"wordpress-review",
			},
			Pattern:   "*.md*",
			Recursive: true,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "./mdxfix.db",
		},
	}
}
