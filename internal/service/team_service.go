package service

import (
	"context"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/rs/zerolog"
)

const recentArticlesLimit = 5

// teamService is the concrete implementation of TeamService
type teamService struct {
	users    repository.UserRepository
	articles repository.ArticleRepository
	audit    *auditor
	log      zerolog.Logger
}

func newTeamService(repos *repository.Repositories, audit *auditor, log zerolog.Logger) *teamService {
	return &teamService{
		users:    repos.User,
		articles: repos.Article,
		audit:    audit,
		log:      log.With().Str("service", "team").Logger(),
	}
}

func (s *teamService) List(ctx context.Context) ([]models.TeamMember, error) {
	return s.users.ListTeam(ctx)
}

func (s *teamService) GetByUsername(ctx context.Context, username string) (*models.TeamMemberProfile, error) {
	members, err := s.users.ListTeam(ctx)
	if err != nil {
		return nil, err
	}

	for _, m := range members {
		if m.Username != username {
			continue
		}
		recent, err := s.articles.RecentByAuthor(ctx, m.ID, recentArticlesLimit)
		if err != nil {
			return nil, err
		}
		return &models.TeamMemberProfile{TeamMember: m, RecentArticles: recent}, nil
	}
	return nil, notFound("team member")
}

func (s *teamService) UpdateProfile(ctx context.Context, actor Actor, in *models.ProfileUpdate) (*models.User, error) {
	user, err := s.users.UpdateProfile(ctx, actor.UserID, in)
	if err != nil {
		return nil, notFoundIf(err, "user")
	}
	return user, nil
}

func (s *teamService) UpdateMember(ctx context.Context, actor Actor, id string, in *models.TeamUpdate) (*models.User, error) {
	if in.Role != nil && !models.ValidRoles[*in.Role] {
		return nil, newError(ErrBadRequest, "invalid role %q", *in.Role)
	}
	if id == actor.UserID && in.IsActive != nil && !*in.IsActive {
		return nil, newError(ErrBadRequest, "you cannot deactivate your own account")
	}

	user, err := s.users.UpdateTeam(ctx, id, in)
	if err != nil {
		return nil, notFoundIf(err, "user")
	}
	s.audit.record(ctx, actor, "update", "team_member", id, in)
	return user, nil
}
