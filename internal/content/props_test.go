package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/notion"
)

func TestExtractorDefaults(t *testing.T) {
	require.Equal(t, "", Text(nil))
	require.Equal(t, []string{}, Labels(nil))
	require.Equal(t, "", Label(nil))
	require.Equal(t, "", FileURL(nil))
	require.Equal(t, "", URL(nil))
	require.False(t, Checkbox(nil))
	_, ok := Number(nil)
	require.False(t, ok)

	fallback := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, fallback, Date(nil, fallback))
	require.Equal(t, fallback, Date(notion.DateProperty{Start: "not a date"}, fallback))

	// Wrong kind also yields the default.
	require.Equal(t, "", Text(notion.CheckboxProperty{Checked: true}))
	require.False(t, Checkbox(notion.TitleProperty{}))
}

func TestExtractors(t *testing.T) {
	title := notion.TitleProperty{Text: []notion.RichText{{PlainText: "Hello "}, {PlainText: "world"}}}
	require.Equal(t, "Hello world", Text(title))

	ms := notion.MultiSelectProperty{Options: []notion.SelectOption{{Name: "Go"}, {Name: ""}, {Name: "SQL"}}}
	require.Equal(t, []string{"Go", "SQL"}, Labels(ms))
	require.Equal(t, "Go", Label(ms))

	sel := notion.SelectProperty{Option: &notion.SelectOption{Name: "Engineering"}}
	require.Equal(t, "Engineering", Label(sel))
	require.Equal(t, []string{"Engineering"}, Labels(sel))

	files := notion.FilesProperty{Files: []notion.File{{Origin: notion.OriginExternal, URL: "https://x.test/a.png"}}}
	require.Equal(t, "https://x.test/a.png", FileURL(files))

	require.Equal(t, "https://example.com", URL(notion.URLProperty{URL: " https://example.com "}))

	n := 3.0
	v, ok := Number(notion.NumberProperty{Value: &n})
	require.True(t, ok)
	require.Equal(t, 3.0, v)

	got := Date(notion.DateProperty{Start: "2024-03-05"}, time.Time{})
	require.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)
}

func TestProp_Aliases(t *testing.T) {
	page := &notion.Page{Properties: notion.Properties{
		"Title": notion.TitleProperty{Text: []notion.RichText{{PlainText: "B"}}},
	}}
	require.Equal(t, "B", Text(Prop(page, "Name", "Title")))
	require.Nil(t, Prop(page, "Missing"))
	require.Nil(t, Prop(nil, "Name"))
}

func TestParseBlogPost_Fallbacks(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	page := &notion.Page{
		ID:          "p1",
		CreatedTime: created,
		Cover:       &notion.File{URL: "https://cdn.test/cover.jpg"},
		Properties: notion.Properties{
			"Title": notion.TitleProperty{Text: []notion.RichText{{PlainText: "Héllo, World!"}}},
		},
	}
	post := ParseBlogPost(page)
	require.Equal(t, "hello-world", post.Slug)
	require.Equal(t, created, post.PublishedAt)
	require.Equal(t, created, post.UpdatedAt)
	require.Equal(t, "https://cdn.test/cover.jpg", post.CoverImage)
	require.Equal(t, []string{}, post.Tags)
	require.Equal(t, "", post.Category)
}

func TestParsePortfolio(t *testing.T) {
	page := &notion.Page{
		ID:          "abc",
		CreatedTime: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		Properties: notion.Properties{
			"Name":         notion.TitleProperty{Text: []notion.RichText{{PlainText: "Site"}}},
			"Description":  notion.RichTextProperty{Text: []notion.RichText{{PlainText: "A site"}}},
			"Technologies": notion.MultiSelectProperty{Options: []notion.SelectOption{{Name: "Go"}}},
			"Live URL":     notion.URLProperty{URL: "https://site.test"},
			"GitHub URL":   notion.URLProperty{URL: "https://github.com/x/y"},
			"Featured":     notion.CheckboxProperty{Checked: true},
		},
	}
	p := ParsePortfolio(page)
	require.Equal(t, "abc", p.ID)
	require.Equal(t, "Site", p.Title)
	require.Equal(t, "A site", p.Description)
	require.Equal(t, []string{"Go"}, p.Technologies)
	require.Equal(t, "https://site.test", p.LiveURL)
	require.Equal(t, "https://github.com/x/y", p.GithubURL)
	require.True(t, p.Featured)
	require.Equal(t, "", p.Thumbnail)
	require.Equal(t, page.CreatedTime, p.CreatedAt)
}
