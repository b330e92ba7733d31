package models

import "time"

// Comment system types.
const (
	SystemSQLite = "sqlite"
	SystemMongo  = "mongo"
)

// Comment is a visitor comment attached to a post slug. ReplyTo points at a
// parent comment id; it is a thread relation, not ownership.
type Comment struct {
	ID          string    `json:"id" bson:"_id"`
	PostSlug    string    `json:"post_slug" bson:"post_slug"`
	AuthorName  string    `json:"author_name" bson:"author_name"`
	AuthorEmail string    `json:"author_email,omitempty" bson:"author_email"`
	Content     string    `json:"content" bson:"content"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	IsApproved  bool      `json:"is_approved" bson:"is_approved"`
	IsDeleted   bool      `json:"is_deleted" bson:"is_deleted"`
	ReplyTo     string    `json:"reply_to,omitempty" bson:"reply_to,omitempty"`
	LikesCount  int       `json:"likes_count" bson:"likes_count"`
	SystemType  string    `json:"system_type" bson:"system_type"`
}

// Visible reports whether the comment may appear in public listings.
func (c *Comment) Visible() bool {
	return c.IsApproved && !c.IsDeleted
}
