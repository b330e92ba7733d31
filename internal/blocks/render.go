package blocks

import (
	"html"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"github.com/starford/folio/internal/htmlsanitize"
	"github.com/starford/folio/internal/notion"
)

// Renderer turns resolved blocks into HTML.
type Renderer struct {
	// ImageURL rewrites image sources, e.g. through the image proxy. Nil
	// leaves them unchanged.
	ImageURL func(string) string
	// SiteOrigin is this site's scheme and host. Links to any other host open
	// in a new tab.
	SiteOrigin string
}

// Render groups and renders blocks, then sanitizes the result.
func (r Renderer) Render(blocks []notion.Block) template.HTML {
	return template.HTML(htmlsanitize.Sanitize(r.render(blocks)))
}

func (r Renderer) render(blocks []notion.Block) string {
	var b strings.Builder
	r.writeNodes(&b, Group(Nodes(blocks)))
	return b.String()
}

func (r Renderer) writeNodes(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case ListNode:
			r.writeList(b, v)
		case BlockNode:
			r.writeBlock(b, v.Block)
		}
	}
}

func (r Renderer) writeChildren(b *strings.Builder, children []notion.Block) {
	if len(children) > 0 {
		r.writeNodes(b, Group(Nodes(children)))
	}
}

func (r Renderer) writeList(b *strings.Builder, l ListNode) {
	tag := "ul"
	if l.Ordered {
		tag = "ol"
	}
	b.WriteString("<" + tag + ">\n")
	for _, item := range l.Items {
		li, _ := item.Content.(notion.ListItem)
		b.WriteString("<li>")
		r.writeRich(b, li.Text)
		if len(item.Children) > 0 {
			b.WriteString("\n")
			r.writeChildren(b, item.Children)
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</" + tag + ">\n")
}

func (r Renderer) writeBlock(b *strings.Builder, blk notion.Block) {
	switch c := blk.Content.(type) {
	case notion.Paragraph:
		b.WriteString("<p>")
		r.writeRich(b, c.Text)
		b.WriteString("</p>\n")
		if len(blk.Children) > 0 {
			b.WriteString("<div class=\"indent\">\n")
			r.writeChildren(b, blk.Children)
			b.WriteString("</div>\n")
		}

	case notion.Heading:
		level := min(max(c.Level, 1), 3)
		tag := "h" + strconv.Itoa(level)
		if c.Toggleable {
			b.WriteString("<details class=\"toggle\">\n<summary><" + tag + ">")
			r.writeRich(b, c.Text)
			b.WriteString("</" + tag + "></summary>\n")
			r.writeChildren(b, blk.Children)
			b.WriteString("</details>\n")
			return
		}
		b.WriteString("<" + tag + ">")
		r.writeRich(b, c.Text)
		b.WriteString("</" + tag + ">\n")

	case notion.Quote:
		b.WriteString("<blockquote>")
		r.writeRich(b, c.Text)
		if len(blk.Children) > 0 {
			b.WriteString("\n")
			r.writeChildren(b, blk.Children)
		}
		b.WriteString("</blockquote>\n")

	case notion.Code:
		lang := languageClass(c.Language)
		pre := "<pre data-language=\"" + lang + "\"><code class=\"language-" + lang + "\">" +
			html.EscapeString(notion.PlainText(c.Text)) + "</code></pre>\n"
		if len(c.Caption) == 0 {
			b.WriteString(pre)
			return
		}
		b.WriteString("<figure class=\"code\">\n" + pre + "<figcaption>")
		r.writeRich(b, c.Caption)
		b.WriteString("</figcaption>\n</figure>\n")

	case notion.Image:
		src := r.imageURL(c.Source.URL)
		if src == "" {
			return
		}
		b.WriteString("<figure class=\"image\">\n<img src=\"" + html.EscapeString(src) +
			"\" alt=\"" + html.EscapeString(notion.PlainText(c.Caption)) + "\" loading=\"lazy\">\n")
		if len(c.Caption) > 0 {
			b.WriteString("<figcaption>")
			r.writeRich(b, c.Caption)
			b.WriteString("</figcaption>\n")
		}
		b.WriteString("</figure>\n")

	case notion.Callout:
		b.WriteString("<aside class=\"callout\" role=\"note\">\n")
		switch {
		case c.Icon.Emoji != "":
			b.WriteString("<span class=\"callout-icon\">" + html.EscapeString(c.Icon.Emoji) + "</span>\n")
		case c.Icon.URL != "":
			b.WriteString("<img class=\"callout-icon\" src=\"" + html.EscapeString(r.imageURL(c.Icon.URL)) + "\" alt=\"\">\n")
		}
		b.WriteString("<div class=\"callout-body\">\n<p>")
		r.writeRich(b, c.Text)
		b.WriteString("</p>\n")
		r.writeChildren(b, blk.Children)
		b.WriteString("</div>\n</aside>\n")

	case notion.Toggle:
		b.WriteString("<details class=\"toggle\">\n<summary>")
		r.writeRich(b, c.Text)
		b.WriteString("</summary>\n")
		r.writeChildren(b, blk.Children)
		b.WriteString("</details>\n")

	case notion.ColumnList:
		b.WriteString("<div class=\"columns\">\n")
		for _, col := range blk.Children {
			b.WriteString("<div class=\"column\">\n")
			r.writeChildren(b, col.Children)
			b.WriteString("</div>\n")
		}
		b.WriteString("</div>\n")

	case notion.Column:
		b.WriteString("<div class=\"column\">\n")
		r.writeChildren(b, blk.Children)
		b.WriteString("</div>\n")

	case notion.Divider:
		b.WriteString("<hr>\n")

	case notion.ListItem:
		// Reached only when a caller bypasses Group.
		r.writeList(b, ListNode{Ordered: c.Numbered, Items: []notion.Block{blk}})
	}
}

func (r Renderer) writeRich(b *strings.Builder, spans []notion.RichText) {
	for _, s := range spans {
		text := strings.ReplaceAll(html.EscapeString(s.PlainText), "\n", "<br>")
		a := s.Annotations
		if a.Code {
			text = "<code>" + text + "</code>"
		}
		if a.Bold {
			text = "<strong>" + text + "</strong>"
		}
		if a.Italic {
			text = "<em>" + text + "</em>"
		}
		if a.Strikethrough {
			text = "<s>" + text + "</s>"
		}
		if a.Underline {
			text = "<u>" + text + "</u>"
		}
		if s.Href != "" {
			text = r.link(s.Href, text)
		}
		b.WriteString(text)
	}
}

// link wraps inner in an anchor. Unsafe schemes drop the link and keep the text.
func (r Renderer) link(href, inner string) string {
	u, err := url.Parse(href)
	if err != nil {
		return inner
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
	default:
		return inner
	}
	attrs := "href=\"" + html.EscapeString(href) + "\""
	if r.external(u) {
		attrs += " target=\"_blank\" rel=\"noopener noreferrer\""
	}
	return "<a " + attrs + ">" + inner + "</a>"
}

func (r Renderer) external(u *url.URL) bool {
	if u.Host == "" {
		return false
	}
	if r.SiteOrigin == "" {
		return true
	}
	site, err := url.Parse(r.SiteOrigin)
	if err != nil {
		return true
	}
	return !strings.EqualFold(site.Host, u.Host)
}

func (r Renderer) imageURL(src string) string {
	if src == "" || r.ImageURL == nil {
		return src
	}
	return r.ImageURL(src)
}

func languageClass(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "plain"
	}
	var b strings.Builder
	for _, r := range lang {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '#':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// PlainText flattens a block tree to text, one block per line. List items and
// nested children are included; code and captions are not.
func PlainText(blocks []notion.Block) string {
	var lines []string
	var walk func([]notion.Block)
	walk = func(bs []notion.Block) {
		for _, blk := range bs {
			var spans []notion.RichText
			switch c := blk.Content.(type) {
			case notion.Paragraph:
				spans = c.Text
			case notion.Heading:
				spans = c.Text
			case notion.Quote:
				spans = c.Text
			case notion.Callout:
				spans = c.Text
			case notion.Toggle:
				spans = c.Text
			case notion.ListItem:
				spans = c.Text
			}
			if t := strings.TrimSpace(notion.PlainText(spans)); t != "" {
				lines = append(lines, t)
			}
			walk(blk.Children)
		}
	}
	walk(blocks)
	return strings.Join(lines, "\n")
}
