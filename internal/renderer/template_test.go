package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starford/quire/internal/frontmatter"
)

func TestApplyTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		content  string
		meta     frontmatter.Metadata
		want     string
	}{
		{
			name:     "title and content",
			template: "<title>{title}</title><main>{content}</main>",
			content:  "<p>hi</p>",
			meta:     frontmatter.Metadata{"title": "Hi"},
			want:     "<title>Hi</title><main><p>hi</p></main>",
		},
		{
			name:     "fallback title",
			template: "<title>{title}</title>{content}",
			content:  "x",
			meta:     frontmatter.Metadata{},
			want:     "<title>Blog Post</title>x",
		},
		{
			name:     "arbitrary keys",
			template: `<meta name="description" content="{description}">{date}|{content}`,
			content:  "body",
			meta:     frontmatter.Metadata{"description": "About", "date": "2024-05-01"},
			want:     `<meta name="description" content="About">2024-05-01|body`,
		},
		{
			name:     "unknown placeholders stay",
			template: "{author} {content}",
			content:  "c",
			meta:     nil,
			want:     "{author} c",
		},
		{
			name:     "content replaced after metadata",
			template: "{title}",
			content:  "CONTENT",
			meta:     frontmatter.Metadata{"title": "{content}"},
			want:     "CONTENT",
		},
		{
			name:     "content is not rescanned",
			template: "{content}",
			content:  "{title}",
			meta:     frontmatter.Metadata{"title": "T"},
			want:     "{title}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyTemplate(tt.template, tt.content, tt.meta))
		})
	}
}
