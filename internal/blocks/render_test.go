package blocks

import (
	"net/url"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/notion"
)

func testRenderer() Renderer {
	return Renderer{
		ImageURL:   func(s string) string { return "/api/image-proxy?url=" + url.QueryEscape(s) },
		SiteOrigin: "https://folio.test",
	}
}

func articleFixture() []notion.Block {
	return []notion.Block{
		{ID: "h", Type: notion.BlockHeading1, Content: notion.Heading{Level: 1, Text: txt("Intro")}},
		{ID: "p", Type: notion.BlockParagraph, Content: notion.Paragraph{Text: []notion.RichText{
			{PlainText: "Hello "},
			{PlainText: "world", Annotations: notion.Annotations{Bold: true}},
			{PlainText: ", see "},
			{PlainText: "docs", Href: "https://example.com/docs"},
			{PlainText: " and "},
			{PlainText: "about", Href: "/about"},
			{PlainText: "."},
		}}},
		bullet("a", "A"),
		bullet("b", "B", para("n", "nested")),
		numbered("1", "One"),
		code("c", "Go", "x := 1 < 2"),
		{ID: "i", Type: notion.BlockImage, Content: notion.Image{
			Source:  notion.File{Origin: notion.OriginExternal, URL: "https://cdn.test/a.png"},
			Caption: txt("A & B"),
		}},
		{ID: "co", Type: notion.BlockCallout, Content: notion.Callout{Text: txt("Note"), Icon: notion.Icon{Emoji: "💡"}},
			Children: []notion.Block{para("ci", "inside")}},
		{ID: "t", Type: notion.BlockToggle, Content: notion.Toggle{Text: txt("More")},
			Children: []notion.Block{bullet("th", "hidden")}},
		{ID: "cl", Type: notion.BlockColumnList, Content: notion.ColumnList{}, Children: []notion.Block{
			{ID: "l", Type: notion.BlockColumn, Content: notion.Column{}, Children: []notion.Block{para("lp", "left")}},
			{ID: "r", Type: notion.BlockColumn, Content: notion.Column{}, Children: []notion.Block{para("rp", "right")}},
		}},
		{ID: "d", Type: notion.BlockDivider, Content: notion.Divider{}},
		{ID: "u", Type: "synced_block", Content: notion.Unsupported{Type: "synced_block"}},
		{ID: "q", Type: notion.BlockQuote, Content: notion.Quote{Text: txt("Said")}},
	}
}

func TestRender_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "article", []byte(testRenderer().render(articleFixture())))
}

func TestRender_InlineStyles(t *testing.T) {
	spans := []notion.RichText{{
		PlainText:   "x",
		Href:        "https://folio.test/blog",
		Annotations: notion.Annotations{Bold: true, Italic: true, Code: true, Strikethrough: true, Underline: true},
	}}
	got := testRenderer().render([]notion.Block{{Type: notion.BlockParagraph, Content: notion.Paragraph{Text: spans}}})
	require.Equal(t, "<p><a href=\"https://folio.test/blog\"><u><s><em><strong><code>x</code></strong></em></s></u></a></p>\n", got)
}

func TestRender_UnsafeLinkDropped(t *testing.T) {
	spans := []notion.RichText{{PlainText: "click", Href: "javascript:alert(1)"}}
	got := testRenderer().render([]notion.Block{{Type: notion.BlockParagraph, Content: notion.Paragraph{Text: spans}}})
	require.Equal(t, "<p>click</p>\n", got)
}

func TestRender_EscapesText(t *testing.T) {
	got := testRenderer().render([]notion.Block{para("p", "<script>alert(1)</script>\nline")})
	require.Equal(t, "<p>&lt;script&gt;alert(1)&lt;/script&gt;<br>line</p>\n", got)
}

func TestRender_ListGroupingCount(t *testing.T) {
	got := testRenderer().render([]notion.Block{
		code("c", "", "x"),
		bullet("a", "A"),
		bullet("b", "B"),
		para("p", "end"),
	})
	require.Equal(t, 1, strings.Count(got, "<ul>"))
	require.Equal(t, 2, strings.Count(got, "<li>"))
	require.Contains(t, got, `class="language-plain"`)
}

func TestRender_SanitizedOutput(t *testing.T) {
	out := string(testRenderer().Render(articleFixture()))
	require.Contains(t, out, `target="_blank"`)
	require.Contains(t, out, "noopener")
	require.Contains(t, out, `<aside class="callout"`)
	require.Contains(t, out, "<details")
	require.Contains(t, out, `src="/api/image-proxy?url=https%3A%2F%2Fcdn.test%2Fa.png"`)
	require.NotContains(t, out, "synced_block")
}

func TestRender_Empty(t *testing.T) {
	require.Equal(t, "", testRenderer().render(nil))
	require.Equal(t, "", string(Renderer{}.Render(nil)))
}

func TestLanguageClass(t *testing.T) {
	require.Equal(t, "plain", languageClass(""))
	require.Equal(t, "plain-text", languageClass("Plain Text"))
	require.Equal(t, "c++", languageClass("C++"))
}
