package comments_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/comments"
	"github.com/starford/folio/internal/testutil"
)

func newService(t *testing.T) *comments.Service {
	t.Helper()
	return comments.NewService(testutil.CommentDB(t), nil)
}

func validInput() comments.CreateInput {
	return comments.CreateInput{
		PostSlug:    "hello-world",
		AuthorName:  "Ann",
		AuthorEmail: "Ann@Example.com",
		Content:     "Nice post",
	}
}

func TestCreate_PendingUntilApproved(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	listed, err := svc.List(ctx, "hello-world")
	require.NoError(t, err)
	require.Empty(t, listed)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.False(t, pending[0].IsApproved)
	require.Equal(t, "ann@example.com", pending[0].AuthorEmail)

	require.NoError(t, svc.Approve(ctx, id))
	listed, err = svc.List(ctx, "hello-world")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "Nice post", listed[0].Content)
	require.Empty(t, listed[0].AuthorEmail, "public listing hides emails")
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cases := map[string]func(*comments.CreateInput){
		"missing content": func(in *comments.CreateInput) { in.Content = "" },
		"markup only":     func(in *comments.CreateInput) { in.Content = "<script>alert(1)</script>" },
		"missing slug":    func(in *comments.CreateInput) { in.PostSlug = " " },
		"missing name":    func(in *comments.CreateInput) { in.AuthorName = "" },
		"bad email":       func(in *comments.CreateInput) { in.AuthorEmail = "not-an-email" },
		"too long":        func(in *comments.CreateInput) { in.Content = strings.Repeat("x", 5001) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(ctx, in)
			require.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending, "rejected input creates no row")
}

func TestCreate_StripsMarkup(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	in := validInput()
	in.Content = "<b>bold</b> claim <img src=x onerror=alert(1)>"
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	pending, _ := svc.Pending(ctx)
	require.Equal(t, "bold claim", pending[0].Content)
}

func TestCreate_ReplyMustTargetVisibleComment(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	parentID, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	reply := validInput()
	reply.ReplyTo = parentID
	_, err = svc.Create(ctx, reply)
	require.ErrorIs(t, err, apperr.ErrInvalidInput, "parent still pending")

	require.NoError(t, svc.Approve(ctx, parentID))
	id, err := svc.Create(ctx, reply)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	other := reply
	other.PostSlug = "another-post"
	_, err = svc.Create(ctx, other)
	require.ErrorIs(t, err, apperr.ErrInvalidInput, "parent on a different post")

	unknown := validInput()
	unknown.ReplyTo = "does-not-exist"
	_, err = svc.Create(ctx, unknown)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestList_RequiresSlug(t *testing.T) {
	svc := newService(t)
	_, err := svc.List(context.Background(), "")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestToggleLike_TwiceRestoresCount(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id, _ := svc.Create(ctx, validInput())

	_, _, err := svc.ToggleLike(ctx, id, "10.0.0.1")
	require.ErrorIs(t, err, apperr.ErrNotFound, "pending comments cannot be liked")

	require.NoError(t, svc.Approve(ctx, id))
	liked, n, err := svc.ToggleLike(ctx, id, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, liked)
	require.Equal(t, 1, n)

	liked, n, err = svc.ToggleLike(ctx, id, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, liked)
	require.Equal(t, 0, n)

	_, _, err = svc.ToggleLike(ctx, id, "")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestDelete_HidesComment(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id, _ := svc.Create(ctx, validInput())
	require.NoError(t, svc.Approve(ctx, id))
	require.NoError(t, svc.Delete(ctx, id))

	listed, _ := svc.List(ctx, "hello-world")
	require.Empty(t, listed)
	require.ErrorIs(t, svc.Report(ctx, id, "10.0.0.1", "spam"), apperr.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "missing"), apperr.ErrNotFound)
}
