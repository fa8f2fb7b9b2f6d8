package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuswell/internal/models"
)

func TestPostRepository_AnonymousPostKeepsAuthorNil(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{
		Title:     "Gérer le stress des partiels",
		Content:   "Quelques techniques de respiration...",
		Anonymous: true,
		Pseudonym: "un étudiant fatigué",
	}
	require.NoError(t, repo.Create(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AuthorID)
	assert.Equal(t, "un étudiant fatigué", got.Pseudonym)
	assert.True(t, got.Anonymous)
}

func TestPostRepository_ListComputesCommentCounts(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, models.RoleStudent)
	post := &models.Post{Title: "t", Content: "c", AuthorID: &author.ID}
	require.NoError(t, posts.Create(ctx, post))

	for i := 0; i < 3; i++ {
		require.NoError(t, comments.Create(ctx, &models.Comment{
			Content:  "ok",
			PostID:   post.ID,
			AuthorID: &author.ID,
		}))
	}

	list, err := posts.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].CommentsCount)
}

func TestCommentRepository_ReactionFlipKeepsOnePerUser(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, models.RoleStudent)
	reactor := createTestUser(t, db, models.RoleStudent)

	post := &models.Post{Title: "t", Content: "c", AuthorID: &author.ID}
	require.NoError(t, posts.Create(ctx, post))
	comment := &models.Comment{Content: "bravo", PostID: post.ID, AuthorID: &author.ID}
	require.NoError(t, comments.Create(ctx, comment))

	require.NoError(t, comments.SetReaction(ctx, reactor.ID, comment.ID, models.ReactionLike))
	require.NoError(t, comments.SetReaction(ctx, reactor.ID, comment.ID, models.ReactionDislike))

	got, err := comments.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikesCount)
	assert.Equal(t, 1, got.DislikesCount)

	reaction, err := comments.GetReaction(ctx, reactor.ID, comment.ID)
	require.NoError(t, err)
	require.NotNil(t, reaction)
	assert.Equal(t, models.ReactionDislike, reaction.Kind)

	var count int64
	require.NoError(t, db.Model(&models.Reaction{}).
		Where("user_id = ? AND comment_id = ?", reactor.ID, comment.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCommentRepository_RemoveReaction(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, models.RoleStudent)
	post := &models.Post{Title: "t", Content: "c", AuthorID: &author.ID}
	require.NoError(t, posts.Create(ctx, post))
	comment := &models.Comment{Content: "x", PostID: post.ID, AuthorID: &author.ID}
	require.NoError(t, comments.Create(ctx, comment))

	require.NoError(t, comments.SetReaction(ctx, author.ID, comment.ID, models.ReactionLike))
	require.NoError(t, comments.RemoveReaction(ctx, author.ID, comment.ID))

	reaction, err := comments.GetReaction(ctx, author.ID, comment.ID)
	require.NoError(t, err)
	assert.Nil(t, reaction)

	// Removing again is a no-op.
	require.NoError(t, comments.RemoveReaction(ctx, author.ID, comment.ID))
}
