package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
)

func TestContentService_Comments(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada")
	guest := f.user(t, "Grace")
	stranger := f.user(t, "Eve")
	b := f.board(t, owner)
	f.invite(t, owner, b, guest)
	c := f.card(t, owner, f.list(t, owner, b, "todo"), "one")

	_, err := f.content.AddComment(f.ctx, guest, c.ID, domain.CommentCreate{Text: "  "})
	requireCode(t, err, domain.CodeInvalid)

	_, err = f.content.AddComment(f.ctx, stranger, c.ID, domain.CommentCreate{Text: "hi"})
	requireCode(t, err, domain.CodeForbidden)

	f.pub.reset()
	comment, err := f.content.AddComment(f.ctx, guest, c.ID, domain.CommentCreate{Text: " looks good "})
	require.NoError(t, err)
	assert.Equal(t, "looks good", comment.Text)
	assert.Equal(t, guest.ID, comment.Author)

	events := f.pub.events(realtime.BoardTopic(b.ID))
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventCommentAdded, events[0].Type)
	assert.Equal(t, comment.ID.Hex(), events[0].EntityID)

	requireCode(t, f.content.HideComment(f.ctx, owner, c.ID, comment.ID), domain.CodeForbidden)
	requireCode(t, f.content.HideComment(f.ctx, guest, c.ID, primitive.NewObjectID()), domain.CodeNotFound)

	require.NoError(t, f.content.HideComment(f.ctx, guest, c.ID, comment.ID))
	requireCode(t, f.content.HideComment(f.ctx, guest, c.ID, comment.ID), domain.CodeConflict)

	card, err := f.cards.Get(f.ctx, owner, c.ID)
	require.NoError(t, err)
	require.Len(t, card.Comments, 1)
	assert.True(t, card.Comments[0].IsDeleted)
}

func TestContentService_Notes(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada")
	guest := f.user(t, "Grace")
	b := f.board(t, owner)
	f.invite(t, owner, b, guest)
	c := f.card(t, owner, f.list(t, owner, b, "todo"), "one")

	note, err := f.content.AddNote(f.ctx, owner, c.ID, domain.NoteCreate{Content: "remember the changelog"})
	require.NoError(t, err)

	requireCode(t, f.content.HideNote(f.ctx, guest, c.ID, note.ID), domain.CodeForbidden)
	require.NoError(t, f.content.HideNote(f.ctx, owner, c.ID, note.ID))
	requireCode(t, f.content.HideNote(f.ctx, owner, c.ID, note.ID), domain.CodeConflict)
}
