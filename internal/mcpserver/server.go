// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the mdxfix operations to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/starford/mdxfix/internal/augment"
	"github.com/starford/mdxfix/internal/faq"
)

// RulesURI is the resource URI of the active FAQ rule table.
const RulesURI = "mdxfix://faq-rules"

// ContractURI is the resource URI of the document contract.
const ContractURI = "mdxfix://document-contract"

// Server wraps the MCP server with mdxfix tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *augment.Service
	injector *faq.Injector
	ops      map[string]augment.Operation
	targets  map[string][]augment.Target
}

// New creates a new MCP server with all tools registered. targets maps an
// operation name to the documents it applies to.
func New(svc *augment.Service, injector *faq.Injector, rewriter augment.Operation, targets map[string][]augment.Target, version string) *Server {
	s := &Server{
		svc:      svc,
		injector: injector,
		ops: map[string]augment.Operation{
			injector.Name(): injector,
			rewriter.Name(): rewriter,
		},
		targets: targets,
	}

	s.mcp = server.NewMCPServer(
		"mdxfix",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("preview_faq",
		mcp.WithDescription("Synthesize the FAQ entries for a title and category list without touching any file."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Product or resource title")),
		mcp.WithString("categories", mcp.Description("Comma-separated category tags (e.g. themes,seo)")),
	), s.previewFAQ)

	s.mcp.AddTool(mcp.NewTool("inject_faq",
		mcp.WithDescription("Add a synthesized faq field to the frontmatter of one document. Documents that already have an FAQ are skipped."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the content root (e.g. wordpress-resource/acme.mdx)")),
	), s.operationTool(injector.Name()))

	s.mcp.AddTool(mcp.NewTool("rewrite_author",
		mcp.WithDescription("Normalize the author field of one document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the content root")),
	), s.operationTool(rewriter.Name()))

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents an operation applies to."),
		mcp.WithString("operation", mcp.Required(), mcp.Enum(injector.Name(), rewriter.Name())),
	), s.listDocuments)

	s.mcp.AddResource(
		mcp.NewResource(RulesURI, "FAQ Rules",
			mcp.WithResourceDescription("Rule table used to synthesize FAQ entries, as YAML."),
			mcp.WithMIMEType("application/yaml"),
		),
		s.readRulesResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Document Contract",
			mcp.WithResourceDescription("Frontmatter layout the operations expect."),
			mcp.WithMIMEType("text/markdown"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      ContractURI,
					MIMEType: "text/markdown",
					Text:     DocumentContract,
				},
			}, nil
		},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) previewFAQ(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var categories []string
	for _, c := range strings.Split(req.GetString("categories", ""), ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	entries := s.injector.Rules().Synthesize(title, categories)
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) operationTool(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		summary, err := s.svc.Process(ctx, s.ops[name], []string{path})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(summary.Results) != 1 {
			return mcp.NewToolResultError(fmt.Sprintf("no result for %s", path)), nil
		}
		out, _ := json.MarshalIndent(summary.Results[0], "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	}
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	targets, ok := s.targets[op]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown operation: %s", op)), nil
	}
	paths, err := s.svc.Collect(targets)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no documents found"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) readRulesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := yaml.Marshal(s.injector.Rules())
	if err != nil {
		return nil, fmt.Errorf("mcpserver: marshal rules: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      RulesURI,
			MIMEType: "application/yaml",
			Text:     string(data),
		},
	}, nil
}
