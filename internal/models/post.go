// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a blog post on the well-being board. Posts may be
// published anonymously, in which case AuthorID is nil and Pseudonym
// carries the display name.
type Post struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Title     string `gorm:"not null" json:"title"`
	Content   string `gorm:"type:text;not null" json:"content"`
	AuthorID  *uint  `gorm:"index" json:"author_id,omitempty"`
	Author    *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Anonymous bool   `gorm:"default:false" json:"anonymous"`
	Pseudonym string `json:"pseudonym,omitempty"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int            `gorm:"->" json:"comments_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Comments      []Comment      `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

// Comment represents a comment on a post.
type Comment struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Content   string `gorm:"type:text;not null" json:"content"`
	PostID    uint   `gorm:"not null;index" json:"post_id"`
	AuthorID  *uint  `gorm:"index" json:"author_id,omitempty"`
	Author    *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Anonymous bool   `gorm:"default:false" json:"anonymous"`
	Pseudonym string `json:"pseudonym,omitempty"`
	// Reaction counts are computed at query time
	LikesCount    int            `gorm:"->" json:"likes_count"`
	DislikesCount int            `gorm:"->" json:"dislikes_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// ReactionKind is either a like or a dislike.
type ReactionKind string

const (
	// ReactionLike marks approval of a comment.
	ReactionLike ReactionKind = "like"
	// ReactionDislike marks disapproval of a comment.
	ReactionDislike ReactionKind = "dislike"
)

// Reaction represents a user's like or dislike on a comment.
// The combination of UserID and CommentID must be unique.
type Reaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_user_comment" json:"user_id"`
	CommentID uint         `gorm:"not null;uniqueIndex:idx_user_comment" json:"comment_id"`
	Kind      ReactionKind `gorm:"type:varchar(10);not null" json:"kind"`
	CreatedAt time.Time    `json:"created_at"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Comment Comment `gorm:"foreignKey:CommentID" json:"comment,omitempty"`
}
