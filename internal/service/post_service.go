package service

import (
	"context"

	"campuswell/internal/models"
	"campuswell/internal/repository"
)

const (
	maxTitleLen   = 200
	maxContentLen = 20000
)

// PostService implements the well-being blog board.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

// CreatePostInput carries the fields for a new post. When Anonymous is set,
// the stored post has no author reference, only the pseudonym.
type CreatePostInput struct {
	UserID    uint
	Title     string
	Content   string
	Anonymous bool
	Pseudonym string
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 20000 characters)")
	}

	post := &models.Post{
		Title:     in.Title,
		Content:   in.Content,
		Anonymous: in.Anonymous,
	}
	if in.Anonymous {
		post.Pseudonym = in.Pseudonym
		if post.Pseudonym == "" {
			post.Pseudonym = "anonyme"
		}
	} else {
		userID := in.UserID
		post.AuthorID = &userID
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.List(ctx, limit, offset)
}

// DeletePost removes a post. Only the author or an admin may delete;
// anonymous posts can only be removed by an admin.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if !s.canModerate(ctx, userID) {
		if post.AuthorID == nil || *post.AuthorID != userID {
			return models.NewForbiddenError("You can only delete your own posts")
		}
	}
	return s.postRepo.Delete(ctx, postID)
}

func (s *PostService) canModerate(ctx context.Context, userID uint) bool {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	return user.Role == models.RoleAdmin
}
