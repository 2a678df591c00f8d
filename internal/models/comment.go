package models

import (
	"time"
)

// Comment represents a reader comment on an article. Replies point to their parent.
type Comment struct {
	ID              string     `json:"id" db:"id"`
	ArticleID       string     `json:"article_id" db:"article_id"`
	UserID          string     `json:"user_id,omitempty" db:"user_id"`
	AuthorName      string     `json:"author_name,omitempty" db:"author_name"`
	AuthorEmail     string     `json:"-" db:"author_email"`
	Content         string     `json:"content" db:"content"`
	ParentCommentID string     `json:"parent_comment_id,omitempty" db:"parent_comment_id"`
	IsApproved      bool       `json:"is_approved" db:"is_approved"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	Username        string     `json:"username,omitempty" db:"-"`
	UserAvatar      string     `json:"user_avatar,omitempty" db:"-"`
	ArticleTitle    string     `json:"article_title,omitempty" db:"-"`
	Replies         []*Comment `json:"replies,omitempty" db:"-"`
}

// CommentInput is the payload for posting a comment
type CommentInput struct {
	Content         string `json:"content" binding:"required,max=5000"`
	ParentCommentID string `json:"parent_comment_id" binding:"omitempty,uuid"`
	AuthorName      string `json:"author_name" binding:"omitempty,max=255"`
	AuthorEmail     string `json:"author_email" binding:"omitempty,email"`
}

// BuildCommentTree nests flat comments under their parents, preserving input order.
// Replies whose parent is absent from the slice are promoted to the root.
func BuildCommentTree(flat []*Comment) []*Comment {
	byID := make(map[string]*Comment, len(flat))
	for _, c := range flat {
		c.Replies = nil
		byID[c.ID] = c
	}

	roots := make([]*Comment, 0)
	for _, c := range flat {
		if parent, ok := byID[c.ParentCommentID]; ok && c.ParentCommentID != "" {
			parent.Replies = append(parent.Replies, c)
			continue
		}
		roots = append(roots, c)
	}
	return roots
}
