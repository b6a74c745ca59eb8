package mcpserver

// PostFormatContract describes the Markdown post format Quire renders, for
// LLM consumers reading or drafting posts.
const PostFormatContract = `# Quire Post Format

Every post is a UTF-8 Markdown file below the content root. The URL
` + "`" + `/blog/posts/hello` + "`" + ` serves ` + "`" + `posts/hello.md` + "`" + `; ` + "`" + `/blog/` + "`" + ` serves ` + "`" + `index.md` + "`" + `.

## Front matter

Metadata lives in HTML comments at the very top of the file, one
` + "`" + `key: value` + "`" + ` pair per line. Keys are case-insensitive.

` + "```" + `markdown
<!--
title: Hello, world          # used for the page <title>
description: First post      # shown in listings
date: 2025-01-20             # listings sort newest first
-->
` + "```" + `

Scanning stops at the first non-empty line outside a comment, so the block
must come before any content.

## Bio header

The first level-1 heading renders as the bio header with profile icons, and
the paragraph right after it renders as the bio paragraph. Later level-1
headings render as ordinary headings.

## Images

An HTML comment immediately before an image sets its attributes:

` + "```" + `markdown
<!-- preset=banner class="border" width=800 -->
![Diagram](/img/diagram.png "Optional title")
` + "```" + `

- ` + "`" + `preset` + "`" + `: avatar, banner or thumbnail (replaces the default classes)
- ` + "`" + `width` + "`" + ` / ` + "`" + `height` + "`" + `: HTML width and height attributes
- ` + "`" + `class` + "`" + `: extra CSS classes appended to the defaults
- ` + "`" + `style` + "`" + `: inline CSS, quoted when it contains spaces

Unknown keys are ignored.

## Links

Inline links (` + "`" + `[text](url)` + "`" + `) and reference links
(` + "`" + `[text][label]` + "`" + ` plus a ` + "`" + `[label]: url "title"` + "`" + ` definition) are both
supported. Link to other posts with their URL or a relative path without the
` + "`" + `.md` + "`" + ` extension so backlinks are tracked.
`
