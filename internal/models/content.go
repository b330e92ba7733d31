// Package models defines the domain types for folio.
package models

import "time"

// Portfolio is one published portfolio item.
type Portfolio struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Thumbnail    string    `json:"thumbnail"`
	Technologies []string  `json:"technologies"`
	LiveURL      string    `json:"liveUrl,omitempty"`
	GithubURL    string    `json:"githubUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Featured     bool      `json:"featured"`
}

// BlogPost is one blog post. Slug is unique among published posts.
type BlogPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	PublishedAt time.Time `json:"publishedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	CoverImage  string    `json:"coverImage,omitempty"`
}
