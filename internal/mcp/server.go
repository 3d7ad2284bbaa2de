// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bibliotheca/gateway/application/service"
	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/domain/project"
	"github.com/bibliotheca/gateway/domain/toc"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Catalog reads documentation on behalf of MCP tools.
type Catalog interface {
	Project(ctx context.Context, projectID string) (project.Project, error)
	TableOfContents(ctx context.Context, projectID, branch string) ([]toc.Chapter, error)
	Document(ctx context.Context, projectID, branch, url string) ([]byte, error)
}

// Server wraps the MCP server with documentation tools.
type Server struct {
	mcpServer *server.MCPServer
	catalog   Catalog
	version   string
	logger    *slog.Logger
}

// NewServer creates a new MCP server reading through the given catalog.
func NewServer(catalog Catalog, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		catalog: catalog,
		version: version,
		logger:  logger,
	}

	mcpServer := server.NewMCPServer(
		"bibliotheca-gateway",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Get the name, description and visibility of a documentation project"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The project identifier"),
		),
	), s.handleGetProject)

	mcpServer.AddTool(mcp.NewTool("get_table_of_contents",
		mcp.WithDescription("Get the chapter tree of a documentation branch. Each chapter lists its title, the url to pass to get_document, and its children."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The project identifier"),
		),
		mcp.WithString("branch",
			mcp.Required(),
			mcp.Description("The published branch, e.g. a version name"),
		),
	), s.handleGetTableOfContents)

	mcpServer.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get the markdown source of one chapter"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The project identifier"),
		),
		mcp.WithString("branch",
			mcp.Required(),
			mcp.Description("The published branch"),
		),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The chapter url from get_table_of_contents"),
		),
	), s.handleGetDocument)

	mcpServer.AddTool(mcp.NewTool("get_version",
		mcp.WithDescription("Get the gateway version"),
	), s.handleGetVersion)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"doc://{project_id}/{branch}/{+url}",
			"Documentation page",
			mcp.WithTemplateDescription("The markdown source of a chapter"),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadDocument,
	)
}

func (s *Server) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("project_id is required"), nil
	}

	p, err := s.catalog.Project(ctx, projectID)
	if err != nil {
		return s.toolError("get project", err), nil
	}

	return jsonResult(struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		AccessLimited bool   `json:"access_limited"`
	}{p.ID(), p.Name(), p.Description(), p.AccessLimited()})
}

type chapterResult struct {
	Title    string          `json:"title"`
	URL      string          `json:"url,omitempty"`
	Children []chapterResult `json:"children,omitempty"`
}

func chapterResults(chapters []toc.Chapter) []chapterResult {
	out := make([]chapterResult, len(chapters))
	for i, c := range chapters {
		out[i] = chapterResult{
			Title:    c.Title(),
			URL:      c.URL(),
			Children: chapterResults(c.Children()),
		}
	}
	return out
}

func (s *Server) handleGetTableOfContents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("project_id is required"), nil
	}
	branch, err := request.RequireString("branch")
	if err != nil {
		return mcp.NewToolResultError("branch is required"), nil
	}

	chapters, err := s.catalog.TableOfContents(ctx, projectID, branch)
	if err != nil {
		return s.toolError("get table of contents", err), nil
	}

	return jsonResult(chapterResults(chapters))
}

func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("project_id is required"), nil
	}
	branch, err := request.RequireString("branch")
	if err != nil {
		return mcp.NewToolResultError("branch is required"), nil
	}
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url is required"), nil
	}

	content, err := s.catalog.Document(ctx, projectID, branch, url)
	if err != nil {
		return s.toolError("get document", err), nil
	}

	return mcp.NewToolResultText(string(content)), nil
}

func (s *Server) handleGetVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.version), nil
}

func (s *Server) handleReadDocument(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri, err := ParseDocumentURI(request.Params.URI)
	if err != nil {
		return nil, err
	}

	content, err := s.catalog.Document(ctx, uri.ProjectID(), uri.Branch(), uri.URL())
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri.String(),
			MIMEType: "text/markdown",
			Text:     string(content),
		},
	}, nil
}

// toolError reports a failure to the caller. Missing resources are
// expected and logged at debug level.
func (s *Server) toolError(op string, err error) *mcp.CallToolResult {
	if errors.Is(err, service.ErrProjectNotFound) || errors.Is(err, document.ErrNotFound) {
		s.logger.Debug(op+" found nothing", slog.String("error", err.Error()))
	} else {
		s.logger.Error(op+" failed", slog.String("error", err.Error()))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", op, err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
