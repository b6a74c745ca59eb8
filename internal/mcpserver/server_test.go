package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/quire/internal/postservice"
	"github.com/starford/quire/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	r, _ := testutil.TestRenderer(t, map[string]string{
		"index.md":       "# Home\n\nSee [hello](posts/hello).\n",
		"posts/hello.md": "<!--\ntitle: Hello\n-->\n# Hello\n\nsearchable words\n",
	})
	ix := testutil.TestIndex(t, r)
	return New(postservice.NewService(r, ix.DB()), "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "render_post":
		result, err = srv.renderPost(ctx, req)
	case "read_post":
		result, err = srv.readPost(ctx, req)
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "search_posts":
		result, err = srv.searchPosts(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_post_contract":
		result, err = srv.getPostContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestRenderPost(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "render_post", map[string]any{"path": "/blog/posts/hello"})
	if r.IsError {
		t.Fatalf("render_post error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "<title>Hello</title>") {
		t.Errorf("rendered page = %q", resultText(r))
	}
}

func TestRenderPostMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "render_post", map[string]any{"path": "nope"})
	if !r.IsError {
		t.Error("expected error for missing post")
	}
}

func TestReadPost(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_post", map[string]any{"path": "posts/hello"})
	if r.IsError {
		t.Fatalf("read_post error: %s", resultText(r))
	}
	var post postservice.PostDetail
	if err := json.Unmarshal([]byte(resultText(r)), &post); err != nil {
		t.Fatalf("read_post output is not JSON: %v", err)
	}
	if post.Title != "Hello" || !strings.Contains(post.Content, "searchable words") {
		t.Errorf("post = %+v", post)
	}
}

func TestReadPostMissingArgument(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_post", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing path")
	}
}

func TestListPosts(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "list_posts", map[string]any{"limit": 1})
	var resp struct {
		Posts []map[string]any `json:"posts"`
		Total int              `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &resp); err != nil {
		t.Fatalf("list_posts output is not JSON: %v", err)
	}
	if resp.Total != 2 || len(resp.Posts) != 1 {
		t.Errorf("list = %+v", resp)
	}
}

func TestSearchPosts(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_posts", map[string]any{"query": "searchable"})
	if r.IsError {
		t.Fatalf("search_posts error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "posts/hello.md") {
		t.Errorf("search result = %q", resultText(r))
	}
}

func TestGetBacklinks(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_backlinks", map[string]any{"path": "posts/hello"})
	if text := resultText(r); text != "index.md" {
		t.Errorf("backlinks = %q, want index.md", text)
	}

	r = callTool(t, srv, "get_backlinks", map[string]any{"path": "index"})
	if text := resultText(r); text != "no backlinks found" {
		t.Errorf("backlinks = %q", text)
	}
}

func TestPostFormatResource(t *testing.T) {
	srv := testServer(t)
	contents, err := srv.readPostFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != postFormatURI || tc.Text != PostFormatContract {
		t.Errorf("resource = %+v", contents[0])
	}

	r := callTool(t, srv, "get_post_contract", nil)
	if resultText(r) != PostFormatContract {
		t.Error("contract tool should return the post format")
	}
}
