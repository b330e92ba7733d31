package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/comments"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/sse"
)

func (h *Handler) commentsEnabled(w http.ResponseWriter) bool {
	if h.d.Comments == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("comments are not configured"))
		return false
	}
	return true
}

func (h *Handler) notify(eventType, id, postSlug string) {
	if h.d.Notifier != nil {
		h.d.Notifier.PublishComment(eventType, id, postSlug)
	}
}

// commentError maps service errors to responses. Unknown failures surface
// their message with 500.
func commentError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("comment not found"))
	default:
		slog.Error("api: "+op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	}
}

// ListComments handles GET /api/comments.
//
//	@Summary	List approved comments on a post
//	@Tags		comments
//	@Produce	json
//	@Param		slug	query		string	true	"Post slug"
//	@Success	200		{object}	CommentListResponse
//	@Failure	400		{object}	errResponse
//	@Failure	503		{object}	errResponse
//	@Router		/comments [get]
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	if !h.commentsEnabled(w) {
		return
	}
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug parameter is required"))
		return
	}
	list, err := h.d.Comments.List(r.Context(), slug)
	if err != nil {
		commentError(w, "list comments", err)
		return
	}
	writeJSON(w, http.StatusOK, CommentListResponse{Success: true, Comments: list, Total: len(list)})
}

// CreateComment handles POST /api/comments.
//
//	@Summary	Submit a comment for moderation
//	@Tags		comments
//	@Accept		json
//	@Produce	json
//	@Param		body	body		comments.CreateInput	true	"Comment"
//	@Success	201		{object}	CommentCreatedResponse
//	@Failure	400		{object}	errResponse
//	@Failure	503		{object}	errResponse
//	@Router		/comments [post]
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	if !h.commentsEnabled(w) {
		return
	}
	var in comments.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	id, err := h.d.Comments.Create(r.Context(), in)
	if err != nil {
		commentError(w, "create comment", err)
		return
	}
	h.notify(sse.TypeCommentCreated, id, strings.TrimSpace(in.PostSlug))
	writeJSON(w, http.StatusCreated, CommentCreatedResponse{
		Success:   true,
		CommentID: id,
		Message:   "Comment submitted and awaiting moderation",
	})
}

// LikeComment handles POST /api/comments/{id}/like.
func (h *Handler) LikeComment(w http.ResponseWriter, r *http.Request) {
	if !h.commentsEnabled(w) {
		return
	}
	liked, count, err := h.d.Comments.ToggleLike(r.Context(), chi.URLParam(r, "id"), clientIP(r))
	if err != nil {
		commentError(w, "like comment", err)
		return
	}
	msg := "Like removed"
	if liked {
		msg = "Comment liked"
	}
	writeJSON(w, http.StatusOK, LikeResponse{Success: true, IsLiked: liked, LikesCount: count, Message: msg})
}

// ReportComment handles POST /api/comments/{id}/report.
func (h *Handler) ReportComment(w http.ResponseWriter, r *http.Request) {
	if !h.commentsEnabled(w) {
		return
	}
	var req ReportRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if err := h.d.Comments.Report(r.Context(), chi.URLParam(r, "id"), clientIP(r), req.Reason); err != nil {
		commentError(w, "report comment", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Report received"})
}

// PendingComments handles GET /api/admin/comments/pending.
func (h *Handler) PendingComments(w http.ResponseWriter, r *http.Request) {
	if !h.commentsEnabled(w) {
		return
	}
	list, err := h.d.Comments.Pending(r.Context())
	if err != nil {
		commentError(w, "list pending comments", err)
		return
	}
	if list == nil {
		list = []models.Comment{}
	}
	writeJSON(w, http.StatusOK, CommentListResponse{Success: true, Comments: list, Total: len(list)})
}

// ApproveComment handles POST /api/admin/comments/{id}/approve.
func (h *Handler) ApproveComment(w http.ResponseWriter, r *http.Request) {
	if !h.commentsEnabled(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.d.Comments.Approve(r.Context(), id); err != nil {
		commentError(w, "approve comment", err)
		return
	}
	h.notify(sse.TypeCommentApproved, id, "")
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Comment approved"})
}

// DeleteComment handles DELETE /api/admin/comments/{id}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if !h.commentsEnabled(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.d.Comments.Delete(r.Context(), id); err != nil {
		commentError(w, "delete comment", err)
		return
	}
	h.notify(sse.TypeCommentDeleted, id, "")
	w.WriteHeader(http.StatusNoContent)
}
