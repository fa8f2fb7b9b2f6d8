package service

import (
	"context"
	"fmt"

	"campuswell/internal/models"
	"campuswell/internal/repository"
)

const maxCommentLen = 10000

// CommentService implements comments and reactions on posts, and emits the
// notifications both produce.
type CommentService struct {
	commentRepo   repository.CommentRepository
	postRepo      repository.PostRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

// CreateCommentInput carries the fields for a new comment.
type CreateCommentInput struct {
	UserID    uint
	PostID    uint
	Content   string
	Anonymous bool
	Pseudonym string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
) *CommentService {
	return &CommentService{
		commentRepo:   commentRepo,
		postRepo:      postRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment := &models.Comment{
		Content:   in.Content,
		PostID:    in.PostID,
		Anonymous: in.Anonymous,
	}
	if in.Anonymous {
		comment.Pseudonym = in.Pseudonym
		if comment.Pseudonym == "" {
			comment.Pseudonym = "anonyme"
		}
	} else {
		userID := in.UserID
		comment.AuthorID = &userID
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	// Notify the post author, unless they commented on their own post or
	// the post is anonymous (no author to notify).
	if post.AuthorID != nil && *post.AuthorID != in.UserID {
		s.notifyAbout(ctx, &models.Notification{
			RecipientID: *post.AuthorID,
			Type:        models.NotificationComment,
			Message:     fmt.Sprintf("Nouveau commentaire sur votre publication « %s »", post.Title),
			PostID:      &post.ID,
			SenderID:    senderRef(in.UserID, in.Anonymous),
		})
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

// React records a like or dislike. A second reaction from the same user
// replaces the first. Likes notify the comment author.
func (s *CommentService) React(ctx context.Context, userID, commentID uint, kind models.ReactionKind) (*models.Comment, error) {
	if kind != models.ReactionLike && kind != models.ReactionDislike {
		return nil, models.NewValidationError("Reaction must be like or dislike")
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	previous, err := s.commentRepo.GetReaction(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.SetReaction(ctx, userID, commentID, kind); err != nil {
		return nil, err
	}

	firstLike := kind == models.ReactionLike && (previous == nil || previous.Kind != models.ReactionLike)
	if firstLike && comment.AuthorID != nil && *comment.AuthorID != userID {
		s.notifyAbout(ctx, &models.Notification{
			RecipientID: *comment.AuthorID,
			Type:        models.NotificationLike,
			Message:     "Quelqu'un a aimé votre commentaire",
			PostID:      &comment.PostID,
			SenderID:    senderRef(userID, false),
		})
	}

	return s.commentRepo.GetByID(ctx, commentID)
}

// ToggleReaction applies the board's reaction semantics: repeating the
// same kind removes the reaction, the opposite kind switches it.
func (s *CommentService) ToggleReaction(ctx context.Context, userID, commentID uint, kind models.ReactionKind) (*models.Comment, error) {
	if kind != models.ReactionLike && kind != models.ReactionDislike {
		return nil, models.NewValidationError("Reaction must be like or dislike")
	}

	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	previous, err := s.commentRepo.GetReaction(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	if previous != nil && previous.Kind == kind {
		return s.RemoveReaction(ctx, userID, commentID)
	}
	return s.React(ctx, userID, commentID, kind)
}

func (s *CommentService) RemoveReaction(ctx context.Context, userID, commentID uint) (*models.Comment, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	if err := s.commentRepo.RemoveReaction(ctx, userID, commentID); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, commentID)
}

// DeleteComment removes a comment. Only the author or an admin may delete.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	if !s.isAdmin(ctx, userID) {
		if comment.AuthorID == nil || *comment.AuthorID != userID {
			return models.NewForbiddenError("You can only delete your own comments")
		}
	}
	return s.commentRepo.Delete(ctx, commentID)
}

func (s *CommentService) notifyAbout(ctx context.Context, n *models.Notification) {
	if s.notifications == nil {
		return
	}
	// Notification failures never fail the triggering operation.
	_ = s.notifications.Notify(ctx, n)
}

func (s *CommentService) isAdmin(ctx context.Context, userID uint) bool {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	return user.Role == models.RoleAdmin
}

// senderRef hides the sender on anonymous actions.
func senderRef(userID uint, anonymous bool) *uint {
	if anonymous || userID == 0 {
		return nil
	}
	id := userID
	return &id
}
