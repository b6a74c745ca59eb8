package api

import (
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/postservice"
)

// PostDetail is the full post response type (aliased from the domain layer).
type PostDetail = postservice.PostDetail

// PostListResponse wraps paginated post listings.
type PostListResponse struct {
	Posts []models.PostSummary `json:"posts"`
	Total int                  `json:"total"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// BacklinksResponse lists the posts linking to Path.
type BacklinksResponse struct {
	Path      string   `json:"path"`
	Backlinks []string `json:"backlinks"`
}
