package api

import (
	"html/template"

	"github.com/starford/folio/internal/models"
)

// CommentListResponse is returned by GET /api/comments.
type CommentListResponse struct {
	Success  bool             `json:"success"`
	Comments []models.Comment `json:"comments"`
	Total    int              `json:"total"`
}

// CommentCreatedResponse is returned by POST /api/comments.
type CommentCreatedResponse struct {
	Success   bool   `json:"success"`
	CommentID string `json:"commentId"`
	Message   string `json:"message"`
}

// LikeResponse is returned by POST /api/comments/{id}/like.
type LikeResponse struct {
	Success    bool   `json:"success"`
	IsLiked    bool   `json:"isLiked"`
	LikesCount int    `json:"likesCount"`
	Message    string `json:"message"`
}

// ReportRequest is the body of POST /api/comments/{id}/report.
type ReportRequest struct {
	Reason string `json:"reason"`
}

// MessageResponse is a bare success acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RevalidateRequest is the body of POST /api/admin/revalidate.
type RevalidateRequest struct {
	Tag string `json:"tag"`
}

// RevalidateResponse reports how many cache entries a tag dropped.
type RevalidateResponse struct {
	Success     bool   `json:"success"`
	Revalidated int    `json:"revalidated"`
	Tag         string `json:"tag"`
}

// PortfolioDetail is a portfolio item with its rendered page.
type PortfolioDetail struct {
	models.Portfolio
	HTML template.HTML `json:"html"`
}

// PostDetail is a blog post with its rendered page.
type PostDetail struct {
	models.BlogPost
	HTML template.HTML `json:"html"`
}
