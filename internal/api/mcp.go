package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/outreach/internal/chunk"
	"github.com/kalambet/outreach/internal/compose"
)

// NewMCPServer creates an MCP server exposing the composer to an assistant:
// chunk listing and creation, deterministic composition, and the two LLM
// transforms.
func NewMCPServer(d Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"outreach",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("outreach — compose internship outreach messages from reusable text chunks."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_chunks",
			mcp.WithDescription("List reusable text chunks, optionally filtered by a case-insensitive text search and a category."),
			mcp.WithString("search", mcp.Description("Text the chunk must contain")),
			mcp.WithString("category", mcp.Description("Category to match; omit or \"All\" for every category")),
		),
		mcpListChunks(d),
	)

	s.AddTool(
		mcp.NewTool("add_chunk",
			mcp.WithDescription("Add a reusable text chunk to the collection."),
			mcp.WithString("text", mcp.Description("The chunk text"), mcp.Required()),
			mcp.WithString("category", mcp.Description("Category for the chunk (default \"Default\")")),
		),
		mcpAddChunk(d),
	)

	s.AddTool(
		mcp.NewTool("compose_message",
			mcp.WithDescription("Deterministically compose an outreach message from form fields and the chunk collection."),
			mcp.WithString("contact_name", mcp.Description("Recipient's name")),
			mcp.WithString("job_title", mcp.Description("The role being discussed")),
			mcp.WithString("company_name", mcp.Description("The recipient's company")),
			mcp.WithString("job_link", mcp.Description("URL of the job listing")),
			mcp.WithString("student_name", mcp.Description("The student's name")),
			mcp.WithString("project_title", mcp.Description("A project the student worked on")),
			mcp.WithString("student_pitch", mcp.Description("A short sentence pitching the student")),
			mcp.WithArray("internship_periods", mcp.Description("Proposed internship period labels, in order")),
			mcp.WithString("search", mcp.Description("Chunk text filter")),
			mcp.WithString("category", mcp.Description("Chunk category filter")),
		),
		mcpComposeMessage(d),
	)

	s.AddTool(
		mcp.NewTool("generate_boilerplate",
			mcp.WithDescription("Generate a boilerplate paragraph for a job description. Falls back to deterministic local text when the model is unavailable."),
			mcp.WithString("job_description", mcp.Description("The job description text"), mcp.Required()),
		),
		mcpGenerateBoilerplate(d),
	)

	s.AddTool(
		mcp.NewTool("rewrite_message",
			mcp.WithDescription("Rewrite a message in a clear, professional, persuasive tone. Fails when the model is unavailable."),
			mcp.WithString("message", mcp.Description("The message to rewrite"), mcp.Required()),
		),
		mcpRewriteMessage(d),
	)

	s.AddResource(
		mcp.NewResource(
			"outreach://chunks",
			"Chunk Collection",
			mcp.WithResourceDescription("The full chunk collection as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceChunks(d),
	)

	return s
}

func mcpListChunks(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		search := req.GetString("search", "")
		category := req.GetString("category", chunk.AllCategories)
		if category == "" {
			category = chunk.AllCategories
		}

		chunks := []chunk.Chunk{}
		for c := range d.Repo.Query(search, category) {
			chunks = append(chunks, c)
		}

		b, err := json.Marshal(chunks)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal chunks: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAddChunk(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		category := req.GetString("category", "")

		c, err := d.Repo.Add(text, category)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to add chunk: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Added chunk %d in category %q", c.ID, c.Category)), nil
	}
}

func mcpComposeMessage(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		form := compose.FormSnapshot{
			ContactName:  req.GetString("contact_name", ""),
			JobTitle:     req.GetString("job_title", ""),
			CompanyName:  req.GetString("company_name", ""),
			JobLink:      req.GetString("job_link", ""),
			StudentName:  req.GetString("student_name", ""),
			ProjectTitle: req.GetString("project_title", ""),
			StudentPitch: req.GetString("student_pitch", ""),
			Periods:      req.GetStringSlice("internship_periods", nil),
		}

		search := req.GetString("search", "")
		category := req.GetString("category", chunk.AllCategories)
		if category == "" {
			category = chunk.AllCategories
		}

		var chunks []chunk.Chunk
		for c := range d.Repo.Query(search, category) {
			chunks = append(chunks, c)
		}

		return mcpText(d.Composer.Compose(form, chunks)), nil
	}
}

func mcpGenerateBoilerplate(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobDescription, err := req.RequireString("job_description")
		if err != nil {
			return mcpError("job_description is required"), nil
		}

		text, fallback := d.Gateway.Boilerplate(ctx, jobDescription)
		archive(d, "boilerplate", jobDescription, text, fallback)
		return mcpText(text), nil
	}
}

func mcpRewriteMessage(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		rewritten, err := d.Gateway.Rewrite(ctx, message)
		if err != nil {
			return mcpError(fmt.Sprintf("rewrite failed: %v", err)), nil
		}

		archive(d, "rewrite", message, rewritten, false)
		return mcpText(rewritten), nil
	}
}

func mcpResourceChunks(d Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		chunks := d.Repo.All()
		if chunks == nil {
			chunks = []chunk.Chunk{}
		}

		b, err := json.Marshal(chunks)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal chunks: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
