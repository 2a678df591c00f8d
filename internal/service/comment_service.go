package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/agency-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

// SettingModerateComments holds "true" when new comments need approval
const SettingModerateComments = "moderate_comments"

// commentService is the concrete implementation of CommentService
type commentService struct {
	comments  repository.CommentRepository
	articles  repository.ArticleRepository
	settings  repository.SettingRepository
	sanitizer *validation.Sanitizer
	audit     *auditor
	log       zerolog.Logger
}

func newCommentService(repos *repository.Repositories, sanitizer *validation.Sanitizer, audit *auditor, log zerolog.Logger) *commentService {
	return &commentService{
		comments:  repos.Comment,
		articles:  repos.Article,
		settings:  repos.Setting,
		sanitizer: sanitizer,
		audit:     audit,
		log:       log.With().Str("service", "comment").Logger(),
	}
}

// ListByArticle returns the comment tree. Unapproved comments are only shown to staff.
func (s *commentService) ListByArticle(ctx context.Context, articleID string, viewer *Actor) ([]*models.Comment, error) {
	includeUnapproved := viewer != nil && viewer.IsStaff()
	flat, err := s.comments.ListByArticle(ctx, articleID, includeUnapproved)
	if err != nil {
		return nil, err
	}
	return models.BuildCommentTree(flat), nil
}

func (s *commentService) moderated(ctx context.Context) bool {
	value, ok, err := s.settings.Get(ctx, SettingModerateComments)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read moderation setting")
		return false
	}
	return ok && value == "true"
}

func (s *commentService) Create(ctx context.Context, articleID string, viewer *Actor, in *models.CommentInput) (*models.Comment, error) {
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article == nil || article.Status != models.StatusPublished {
		return nil, notFound("article")
	}

	comment := &models.Comment{
		ArticleID:       articleID,
		Content:         s.sanitizer.StripTags(in.Content),
		ParentCommentID: in.ParentCommentID,
		IsApproved:      !s.moderated(ctx),
	}
	if strings.TrimSpace(comment.Content) == "" {
		return nil, newError(ErrBadRequest, "comment content is required")
	}

	if viewer != nil {
		comment.UserID = viewer.UserID
	} else {
		comment.AuthorName = strings.TrimSpace(in.AuthorName)
		comment.AuthorEmail = validation.NormalizeEmail(in.AuthorEmail)
		if comment.AuthorName == "" {
			return nil, newError(ErrBadRequest, "author_name is required for anonymous comments")
		}
	}

	if comment.ParentCommentID != "" {
		parent, err := s.comments.GetByID(ctx, comment.ParentCommentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.ArticleID != articleID {
			return nil, newError(ErrBadRequest, "parent comment does not belong to this article")
		}
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("comment_id", comment.ID).
		Str("article_id", articleID).
		Bool("approved", comment.IsApproved).
		Msg("Comment created")
	return comment, nil
}

// editable loads a comment the actor may change
func (s *commentService) editable(ctx context.Context, actor Actor, id string) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, notFound("comment")
	}
	if comment.UserID != actor.UserID && !actor.IsStaff() {
		return nil, newError(ErrForbidden, "you can only modify your own comments")
	}
	return comment, nil
}

func (s *commentService) Update(ctx context.Context, actor Actor, id, content string) error {
	if _, err := s.editable(ctx, actor, id); err != nil {
		return err
	}
	content = s.sanitizer.StripTags(content)
	if strings.TrimSpace(content) == "" {
		return newError(ErrBadRequest, "comment content is required")
	}
	return notFoundIf(s.comments.UpdateContent(ctx, id, content), "comment")
}

func (s *commentService) Delete(ctx context.Context, actor Actor, id string) error {
	comment, err := s.editable(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return notFoundIf(err, "comment")
	}
	if comment.UserID != actor.UserID {
		s.audit.record(ctx, actor, "delete", "comment", id, nil)
	}
	return nil
}

func (s *commentService) Approve(ctx context.Context, actor Actor, id string) error {
	if err := s.comments.Approve(ctx, id); err != nil {
		return notFoundIf(err, "comment")
	}
	s.audit.record(ctx, actor, "approve", "comment", id, nil)
	return nil
}

func (s *commentService) ListPending(ctx context.Context, page models.Page) ([]*models.Comment, int, error) {
	return s.comments.ListPending(ctx, page.Normalize(20))
}

func (s *commentService) SetModeration(ctx context.Context, actor Actor, enabled bool) error {
	if err := s.settings.Set(ctx, SettingModerateComments, strconv.FormatBool(enabled)); err != nil {
		return err
	}
	s.audit.record(ctx, actor, "update", "setting", SettingModerateComments, map[string]bool{"enabled": enabled})
	return nil
}
