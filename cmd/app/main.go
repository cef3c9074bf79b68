package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/mdxfix/internal"
	pkgconfig "github.com/starford/mdxfix/pkg/config"
)

var version = "dev"

// options loads the configuration file, applies the global flag overrides
// and returns the options shared by every subcommand.
func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found && cmd.IsSet("config") {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}

	if cmd.IsSet("root") {
		cfg.Content.Root = cmd.String("root")
	}
	if cmd.IsSet("author") {
		cfg.Author.Name = cmd.String("author")
	}
	if cmd.IsSet("jobs") {
		cfg.App.Jobs = int(cmd.Int("jobs"))
	}
	if cmd.Bool("no-journal") {
		cfg.Journal.Enabled = false
	}
	if err := pkgconfig.Validate(cfg); err != nil {
		return nil, err
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithOutput(os.Stdout, cmd.Bool("plain")),
		internal.WithDryRun(cmd.Bool("dry-run")),
	}, nil
}

func runFAQ(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunFAQ(ctx, opts...)
}

func runAuthor(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunAuthor(ctx, opts...)
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	op := cmd.String("op")
	if op != internal.OpFAQ && op != internal.OpAuthor {
		return fmt.Errorf("--op must be %q or %q, got %q", internal.OpFAQ, internal.OpAuthor, op)
	}
	return internal.RunWatch(ctx, op, opts...)
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunHistory(ctx, cmd.String("run"), int(cmd.Int("limit")), opts...)
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, version, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "mdxfix",
		Usage:   "Augment the frontmatter of MDX/Markdown content: FAQ injection and author normalization",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Usage:   "Content root directory",
				Sources: cli.EnvVars("MDXFIX_ROOT"),
			},
			&cli.StringFlag{
				Name:    "author",
				Usage:   "Canonical author name",
				Sources: cli.EnvVars("MDXFIX_AUTHOR"),
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Number of documents processed concurrently",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report changes without writing any document",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Disable report styling",
			},
			&cli.BoolFlag{
				Name:  "no-journal",
				Usage: "Do not record the run in the journal",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "faq",
				Usage:  "Add synthesized FAQ entries to resource documents that lack them",
				Action: runFAQ,
			},
			{
				Name:   "author",
				Usage:  "Rewrite the author of every content document to the canonical name",
				Action: runAuthor,
			},
			{
				Name:  "watch",
				Usage: "Run an operation, then keep applying it to created or modified documents",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "op",
						Usage: "Operation to apply (faq or author)",
						Value: internal.OpFAQ,
					},
				},
				Action: runWatch,
			},
			{
				Name:  "history",
				Usage: "Show recent runs from the journal, or the outcomes of one run",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "run",
						Usage: "Run ID to show outcomes for",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
				},
				Action: runHistory,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the operations as MCP tools over stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
