// Package comments implements the moderated comment subsystem. Rows change
// only through Backend operations; the service never edits a comment value
// and writes it back.
package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/htmlsanitize"
	"github.com/starford/folio/internal/models"
)

// NewComment is a validated, sanitized comment ready for insertion. Backends
// always store it unapproved.
type NewComment struct {
	PostSlug    string
	AuthorName  string
	AuthorEmail string
	Content     string
	ReplyTo     string
}

// Backend is the set of operations a comment store exposes.
type Backend interface {
	// ListApproved returns approved, non-deleted comments on a post, oldest first.
	ListApproved(ctx context.Context, postSlug string) ([]models.Comment, error)
	// ListPending returns unapproved, non-deleted comments, oldest first.
	ListPending(ctx context.Context) ([]models.Comment, error)
	// Get returns one comment regardless of state, or apperr.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Comment, error)
	Insert(ctx context.Context, c NewComment) (string, error)
	Approve(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
	// ToggleLike flips requester's like and returns the new state and count.
	ToggleLike(ctx context.Context, id, requester string) (liked bool, count int, err error)
	// Report records a moderation report; repeated reports by one requester
	// are ignored.
	Report(ctx context.Context, id, requester, reason string) error
	Close() error
}

// CreateInput is the public comment submission.
type CreateInput struct {
	PostSlug    string `json:"post_slug"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
	ReplyTo     string `json:"reply_to,omitempty"`
}

// Validate checks required fields and limits.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.PostSlug, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.AuthorName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.AuthorEmail, validation.Required, is.EmailFormat, validation.Length(3, 254)),
		validation.Field(&in.Content, validation.Required, validation.Length(1, 5000)),
		validation.Field(&in.ReplyTo, validation.Length(0, 64)),
	)
}

// Service applies validation and visibility rules on top of a Backend.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

// NewService creates a comment service.
func NewService(b Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, logger: logger}
}

// List returns the visible comments on a post with author emails removed.
func (s *Service) List(ctx context.Context, postSlug string) ([]models.Comment, error) {
	postSlug = strings.TrimSpace(postSlug)
	if postSlug == "" {
		return nil, fmt.Errorf("%w: slug is required", apperr.ErrInvalidInput)
	}
	rows, err := s.backend.ListApproved(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	out := make([]models.Comment, 0, len(rows))
	for _, c := range rows {
		if !c.Visible() {
			continue
		}
		c.AuthorEmail = ""
		out = append(out, c)
	}
	return out, nil
}

// Create stores a pending comment and returns its id.
func (s *Service) Create(ctx context.Context, in CreateInput) (string, error) {
	in.PostSlug = strings.TrimSpace(in.PostSlug)
	in.AuthorName = htmlsanitize.StripTags(in.AuthorName)
	in.AuthorEmail = strings.ToLower(strings.TrimSpace(in.AuthorEmail))
	in.Content = htmlsanitize.StripTags(in.Content)
	in.ReplyTo = strings.TrimSpace(in.ReplyTo)
	if err := in.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	if in.ReplyTo != "" {
		parent, err := s.backend.Get(ctx, in.ReplyTo)
		if errors.Is(err, apperr.ErrNotFound) || (err == nil && (!parent.Visible() || parent.PostSlug != in.PostSlug)) {
			return "", fmt.Errorf("%w: reply_to must reference a visible comment on the same post", apperr.ErrInvalidInput)
		}
		if err != nil {
			return "", err
		}
	}

	id, err := s.backend.Insert(ctx, NewComment{
		PostSlug:    in.PostSlug,
		AuthorName:  in.AuthorName,
		AuthorEmail: in.AuthorEmail,
		Content:     in.Content,
		ReplyTo:     in.ReplyTo,
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("comments: created pending comment", slog.String("id", id), slog.String("post_slug", in.PostSlug))
	return id, nil
}

// ToggleLike flips requester's like on a visible comment.
func (s *Service) ToggleLike(ctx context.Context, id, requester string) (bool, int, error) {
	if requester == "" {
		return false, 0, fmt.Errorf("%w: requester is unknown", apperr.ErrInvalidInput)
	}
	if err := s.requireVisible(ctx, id); err != nil {
		return false, 0, err
	}
	return s.backend.ToggleLike(ctx, id, requester)
}

// Report flags a visible comment for moderation.
func (s *Service) Report(ctx context.Context, id, requester, reason string) error {
	reason = htmlsanitize.StripTags(reason)
	if err := validation.Validate(reason, validation.Length(0, 500)); err != nil {
		return fmt.Errorf("%w: reason %v", apperr.ErrInvalidInput, err)
	}
	if err := s.requireVisible(ctx, id); err != nil {
		return err
	}
	return s.backend.Report(ctx, id, requester, reason)
}

// Pending returns the moderation queue, emails included.
func (s *Service) Pending(ctx context.Context) ([]models.Comment, error) {
	return s.backend.ListPending(ctx)
}

// Approve publishes a pending comment.
func (s *Service) Approve(ctx context.Context, id string) error {
	if err := s.backend.Approve(ctx, id); err != nil {
		return err
	}
	s.logger.Info("comments: approved", slog.String("id", id))
	return nil
}

// Delete hides a comment permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.backend.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("comments: deleted", slog.String("id", id))
	return nil
}

// Close releases the backend.
func (s *Service) Close() error {
	return s.backend.Close()
}

func (s *Service) requireVisible(ctx context.Context, id string) error {
	c, err := s.backend.Get(ctx, id)
	if err != nil {
		return err
	}
	if !c.Visible() {
		return apperr.ErrNotFound
	}
	return nil
}
