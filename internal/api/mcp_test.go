package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/outreach/internal/chunk"
	"github.com/kalambet/outreach/internal/compose"
	"github.com/kalambet/outreach/internal/ollama"
	"github.com/kalambet/outreach/internal/transform"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T, srv *httptest.Server) Deps {
	t.Helper()

	store := chunk.NewFileStore(filepath.Join(t.TempDir(), "chunks.json"))
	repo := chunk.NewRepository(store)
	if err := repo.Refresh(); err != nil {
		t.Fatal(err)
	}

	client := ollama.New(srv.URL, nil)
	return Deps{
		Repo:     repo,
		Composer: compose.New(testClosing),
		Gateway:  transform.NewGateway(client, "llama3", "the AI Applications course"),
		Ollama:   client,
		Model:    "llama3",
		Port:     3000,
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// --- tests ---

func TestMCPTool_AddChunkThenList(t *testing.T) {
	srv := fakeOllama(t, nil)
	deps := newTestMCPDeps(t, srv)

	add := mcpAddChunk(deps)
	result, err := add(context.Background(), makeCallToolRequest("add_chunk", map[string]interface{}{
		"text":     "We teach Python.",
		"category": "Skills",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	if !strings.Contains(toolText(t, result), "Skills") {
		t.Errorf("result = %q, want the category named", toolText(t, result))
	}

	list := mcpListChunks(deps)
	result, err = list(context.Background(), makeCallToolRequest("list_chunks", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var chunks []chunk.Chunk
	if err := json.Unmarshal([]byte(toolText(t, result)), &chunks); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "We teach Python." {
		t.Fatalf("chunks = %v, want the added chunk", chunks)
	}
}

func TestMCPTool_AddChunk_RequiresText(t *testing.T) {
	srv := fakeOllama(t, nil)
	deps := newTestMCPDeps(t, srv)

	result, err := mcpAddChunk(deps)(context.Background(), makeCallToolRequest("add_chunk", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing text")
	}
}

func TestMCPTool_ListChunks_Filtered(t *testing.T) {
	srv := fakeOllama(t, nil)
	deps := newTestMCPDeps(t, srv)
	if err := deps.Repo.ReplaceAll([]chunk.Chunk{
		{ID: 1, Text: "We teach Python.", Category: "Skills"},
		{ID: 2, Text: "Our students are curious.", Category: "Intro"},
	}); err != nil {
		t.Fatal(err)
	}

	result, err := mcpListChunks(deps)(context.Background(), makeCallToolRequest("list_chunks", map[string]interface{}{
		"category": "Intro",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var chunks []chunk.Chunk
	if err := json.Unmarshal([]byte(toolText(t, result)), &chunks); err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].ID != 2 {
		t.Fatalf("chunks = %v, want only the Intro chunk", chunks)
	}
}

func TestMCPTool_ComposeMessage(t *testing.T) {
	srv := fakeOllama(t, nil)
	deps := newTestMCPDeps(t, srv)

	result, err := mcpComposeMessage(deps)(context.Background(), makeCallToolRequest("compose_message", map[string]interface{}{
		"contact_name": "Mary",
		"company_name": "Acme",
		"job_title":    "ML Intern",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := toolText(t, result)
	want := "Hi Mary,\n\nI'm reaching out to explore potential internship opportunities at Acme, for the ML Intern role.\n\n"
	if !strings.HasPrefix(text, want) {
		t.Errorf("compose_message = %q, want prefix %q", text, want)
	}
}

func TestMCPTool_GenerateBoilerplate_FallsBack(t *testing.T) {
	srv := fakeOllama(t, nil)
	deps := newTestMCPDeps(t, srv)
	srv.Close()

	result, err := mcpGenerateBoilerplate(deps)(context.Background(), makeCallToolRequest("generate_boilerplate", map[string]interface{}{
		"job_description": "Data Analyst",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	if !strings.Contains(toolText(t, result), "Data Analyst") {
		t.Errorf("boilerplate = %q, want the job description in the fallback", toolText(t, result))
	}
}

func TestMCPTool_RewriteMessage_ErrorsWhenUnreachable(t *testing.T) {
	srv := fakeOllama(t, nil)
	deps := newTestMCPDeps(t, srv)
	srv.Close()

	result, err := mcpRewriteMessage(deps)(context.Background(), makeCallToolRequest("rewrite_message", map[string]interface{}{
		"message": "a rough message",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when upstream is unreachable")
	}
}

func TestMCPResource_Chunks(t *testing.T) {
	srv := fakeOllama(t, nil)
	deps := newTestMCPDeps(t, srv)
	if err := deps.Repo.ReplaceAll([]chunk.Chunk{{ID: 1, Text: "We teach Python.", Category: "Skills"}}); err != nil {
		t.Fatal(err)
	}

	contents, err := mcpResourceChunks(deps)(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "outreach://chunks"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}

	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if tc.URI != "outreach://chunks" || !strings.Contains(tc.Text, "We teach Python.") {
		t.Errorf("resource = %+v, want the chunk collection JSON", tc)
	}
}
