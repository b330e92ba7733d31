package content

import (
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/notion"
	"github.com/starford/folio/internal/slug"
)

// Column names, first match wins.
var (
	colTitle        = []string{"Name", "Title"}
	colDescription  = []string{"Description", "Summary"}
	colThumbnail    = []string{"Thumbnail", "Image", "Cover"}
	colTechnologies = []string{"Technologies", "Tech Stack", "Tech"}
	colLiveURL      = []string{"Live URL", "Demo URL", "Website"}
	colGithubURL    = []string{"GitHub URL", "GitHub", "Repository"}
	colFeatured     = []string{"Featured"}
	colPublished    = []string{"Published"}
	colOrder        = []string{"Order"}

	colPostTitle   = []string{"Title", "Name"}
	colSlug        = []string{"Slug"}
	colExcerpt     = []string{"Excerpt", "Summary", "Description"}
	colCategory    = []string{"Category"}
	colTags        = []string{"Tags"}
	colPublishedAt = []string{"Published Date", "Publish Date", "Date"}
	colCoverImage  = []string{"Cover Image", "Cover"}
)

// Property names used in service-side filters and sorts.
const (
	propPublished   = "Published"
	propFeatured    = "Featured"
	propOrder       = "Order"
	propSlug        = "Slug"
	propPublishedAt = "Published Date"
)

// ParsePortfolio maps one portfolio record. Every field is populated; missing
// columns yield extractor defaults.
func ParsePortfolio(page *notion.Page) models.Portfolio {
	return models.Portfolio{
		ID:           page.ID,
		Title:        Text(Prop(page, colTitle...)),
		Description:  Text(Prop(page, colDescription...)),
		Thumbnail:    FileURL(Prop(page, colThumbnail...)),
		Technologies: Labels(Prop(page, colTechnologies...)),
		LiveURL:      URL(Prop(page, colLiveURL...)),
		GithubURL:    URL(Prop(page, colGithubURL...)),
		CreatedAt:    page.CreatedTime,
		Featured:     Checkbox(Prop(page, colFeatured...)),
	}
}

// ParseBlogPost maps one blog record. An empty Slug column falls back to a
// slug derived from the title; PublishedAt falls back to creation time.
func ParseBlogPost(page *notion.Page) models.BlogPost {
	title := Text(Prop(page, colPostTitle...))
	s := Text(Prop(page, colSlug...))
	if s == "" {
		s = slug.Make(title)
	}
	updated := page.LastEditedTime
	if updated.IsZero() {
		updated = page.CreatedTime
	}
	cover := FileURL(Prop(page, colCoverImage...))
	if cover == "" && page.Cover != nil {
		cover = page.Cover.URL
	}
	return models.BlogPost{
		ID:          page.ID,
		Title:       title,
		Slug:        s,
		Excerpt:     Text(Prop(page, colExcerpt...)),
		Category:    Label(Prop(page, colCategory...)),
		Tags:        Labels(Prop(page, colTags...)),
		PublishedAt: Date(Prop(page, colPublishedAt...), page.CreatedTime),
		UpdatedAt:   updated,
		CoverImage:  cover,
	}
}

func isPublished(page *notion.Page) bool {
	return !page.Archived && Checkbox(Prop(page, colPublished...))
}
